package interp

import (
	"mapyrus/internal/mcontext"
	"mapyrus/internal/output"
	"mapyrus/internal/pathengine"
	"mapyrus/internal/value"
)

// shapeFromPath converts ctx's current path into the flattened output.Shape
// every drawing call ultimately hands to the Encoder.
func shapeFromPath(ctx *mcontext.Context) output.Shape {
	p := ctx.CurrentPath()
	if p == nil {
		return output.Shape{}
	}
	return output.Shape{SubPaths: p.SubPaths()}
}

// pointsFromPath extracts every vertex of ctx's current path as a flat
// point list, the shape DrawIcon/Label/DrawEPS and friends expect.
func pointsFromPath(ctx *mcontext.Context) []pathengine.Point {
	p := ctx.CurrentPath()
	if p == nil {
		return nil
	}
	var pts []pathengine.Point
	for _, sp := range p.SubPaths() {
		pts = append(pts, sp.Points...)
	}
	return pts
}

func numArgs(args []value.Value) []float64 {
	out := make([]float64, len(args))
	for i, a := range args {
		out[i] = a.AsNumber()
	}
	return out
}

func argNumber(args []value.Value, i int) float64 {
	if i >= len(args) {
		return 0
	}
	return args[i].AsNumber()
}

func argString(args []value.Value, i int) string {
	if i >= len(args) {
		return ""
	}
	return args[i].AsString()
}
