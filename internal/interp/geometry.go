package interp

import (
	"mapyrus/internal/mcontext"
	"mapyrus/internal/pathengine"
	"mapyrus/internal/value"
)

// transformPoint composes the world->page and user CTM transforms §4.F
// describes ("world input -> world CTM -> user CTM -> page") for a single
// coordinate pair read straight out of script source.
func transformPoint(ctx *mcontext.Context, x, y float64) (float64, float64) {
	wx, wy := ctx.WorldToPage(x, y)
	return ctx.CTM().Transform(wx, wy)
}

// transformDistance applies only the linear (non-translating) part of
// the user CTM, for relative offsets such as rdraw.
func transformDistance(ctx *mcontext.Context, dx, dy float64) (float64, float64) {
	return ctx.CTM().TransformDistance(dx, dy)
}

// geometryToPath appends g's vertices onto p, honouring the MoveTo/LineTo
// vertex tags and recursing into Multi*/Collection children, used by
// `addpath` to merge a dataset field's Geometry value into the current
// path.
func geometryToPath(p *pathengine.Path, g *value.Geometry) {
	if g == nil {
		return
	}
	for _, c := range g.Children {
		geometryToPath(p, c)
	}
	for _, v := range g.Vertices {
		if v.Tag == value.VertexMoveTo {
			p.MoveTo(v.X, v.Y)
		} else {
			p.LineTo(v.X, v.Y)
		}
	}
}

// pathToGeometry is the inverse conversion, used when a command needs to
// hand the current path to the language as a Value (e.g. a future
// `$Mapyrus.path` style read-back).
func pathToGeometry(p *pathengine.Path) *value.Geometry {
	g := &value.Geometry{Type: value.GeomMultiLineString}
	for _, sp := range p.SubPaths() {
		child := &value.Geometry{Type: value.GeomLineString}
		for i, pt := range sp.Points {
			tag := value.VertexLineTo
			if i == 0 {
				tag = value.VertexMoveTo
			}
			child.Vertices = append(child.Vertices, value.Vertex{X: pt.X, Y: pt.Y, Tag: tag})
		}
		g.Children = append(g.Children, child)
	}
	return g
}
