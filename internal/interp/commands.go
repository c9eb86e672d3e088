// Built-in command dispatch (§4.I): one case per keyword CommandStmt can
// carry. Each handler validates its own argument count/ranges and fails
// with the specific error kind §7 names for it: one small validating
// function per command rather than a single do-everything dispatcher.
package interp

import (
	"fmt"
	"strings"

	mapyruserr "mapyrus/internal/errors"
	"mapyrus/internal/mcontext"
	"mapyrus/internal/output"
	"mapyrus/internal/parser"
	"mapyrus/internal/pathengine"
	"mapyrus/internal/support"
	"mapyrus/internal/value"
)

func (it *Interpreter) execCommand(cs *parser.CommandStmt) error {
	switch cs.Kind {
	case "let":
		return it.cmdLet(cs)
	case "local":
		return it.cmdLocal(cs)
	case "color":
		return it.cmdColor(cs)
	case "blend":
		return it.cmdBlend(cs)
	case "linestyle":
		return it.cmdLinestyle(cs)
	case "font":
		return it.cmdFont(cs)
	case "justify":
		return it.cmdJustify(cs)
	case "newpage":
		return it.cmdNewpage(cs)
	case "endpage":
		return it.cmdEndpage(cs)
	case "print":
		return it.cmdPrint(cs)
	case "move":
		return it.cmdMove(cs)
	case "draw":
		return it.cmdDraw(cs)
	case "rmove":
		return it.cmdRMove(cs)
	case "rdraw":
		return it.cmdRDraw(cs)
	case "arc":
		return it.cmdArc(cs)
	case "clearpath", "clear":
		it.stack.Top().ClearPath()
		return nil
	case "closepath":
		it.stack.Top().MutatePath().ClosePath()
		return nil
	case "samplepath":
		return it.cmdSamplePath(cs)
	case "stripepath":
		return it.cmdStripePath(cs)
	case "parallelpath":
		return it.cmdParallelPath(cs)
	case "selectpath":
		return it.cmdSelectPath(cs)
	case "reversepath":
		it.stack.Top().MutatePath().ReversePath()
		return nil
	case "sinkhole":
		return it.cmdSinkhole(cs)
	case "guillotine":
		return it.cmdGuillotine(cs)
	case "addpath":
		return it.cmdAddPath(cs)
	case "protect":
		return it.cmdProtect(cs, true)
	case "unprotect":
		return it.cmdProtect(cs, false)
	case "clip":
		return it.cmdClip(cs)
	case "stroke":
		return it.cmdStroke(cs)
	case "fill":
		return it.cmdFill(cs)
	case "icon":
		return it.cmdIcon(cs)
	case "geoimage":
		return it.cmdPathDraw(cs, func(e output.Encoder, pts []pathengine.Point, path string) error { return e.DrawGeoImage(pts, path) })
	case "eps":
		return it.cmdPathDraw(cs, func(e output.Encoder, pts []pathengine.Point, path string) error { return e.DrawEPS(pts, path) })
	case "svg":
		return it.cmdPathDraw(cs, func(e output.Encoder, pts []pathengine.Point, path string) error { return e.DrawSVG(pts, path) })
	case "pdf":
		return it.cmdPathDraw(cs, func(e output.Encoder, pts []pathengine.Point, path string) error { return e.DrawPDF(pts, path) })
	case "label":
		return it.cmdLabel(cs)
	case "flowlabel":
		return it.cmdFlowLabel(cs)
	case "gradientfill":
		return it.cmdGradientFill(cs)
	case "eventscript":
		return it.cmdEventScript(cs)
	case "worlds":
		return it.cmdWorlds(cs)
	case "project":
		return it.cmdProject(cs)
	case "scale":
		return it.cmdScale(cs)
	case "rotate":
		return it.cmdRotate(cs)
	case "translate":
		return it.cmdTranslate(cs)
	case "eval":
		_, err := it.evalArgs(cs.Args)
		return err
	case "key":
		return it.cmdKey(cs)
	case "legend":
		return it.cmdLegend(cs)
	case "mimetype":
		return it.cmdMimetype(cs)
	case "dataset":
		return it.cmdDataset(cs)
	case "fetch":
		return it.cmdFetch(cs)
	case "table":
		return it.cmdTable(cs)
	case "tree":
		return it.cmdTree(cs)
	case "circle":
		return it.cmdShape(cs, 1, func(args []float64) error {
			return drawCircle(it.stack.Top().MutatePath(), args[0])
		})
	case "ellipse":
		return it.cmdShapeVariadic(cs, func(args []float64) error {
			rot := 0.0
			if len(args) > 2 {
				rot = args[2]
			}
			drawEllipse(it.stack.Top().MutatePath(), args[0], args[1], rot)
			return nil
		})
	case "triangle":
		return it.cmdShape(cs, 1, func(args []float64) error { return drawTriangle(it.stack.Top().MutatePath(), args[0]) })
	case "hexagon":
		return it.cmdShape(cs, 1, func(args []float64) error { return drawHexagon(it.stack.Top().MutatePath(), args[0]) })
	case "pentagon":
		return it.cmdShape(cs, 1, func(args []float64) error { return drawPentagon(it.stack.Top().MutatePath(), args[0]) })
	case "star":
		return it.cmdShape(cs, 3, func(args []float64) error {
			return drawStar(it.stack.Top().MutatePath(), int(args[0]), args[1], args[2])
		})
	case "box":
		return it.cmdShape(cs, 2, func(args []float64) error { return drawBox(it.stack.Top().MutatePath(), args[0], args[1]) })
	case "roundedbox":
		return it.cmdShape(cs, 3, func(args []float64) error {
			return drawRoundedBox(it.stack.Top().MutatePath(), args[0], args[1], args[2])
		})
	case "box3d":
		return it.cmdShape(cs, 3, func(args []float64) error {
			return drawBox3D(it.stack.Top().MutatePath(), args[0], args[1], args[2])
		})
	case "cylinder":
		return it.cmdShape(cs, 3, func(args []float64) error {
			drawCylinder(it.stack.Top().MutatePath(), args[0], args[1], args[2])
			return nil
		})
	case "raindrop":
		return it.cmdShape(cs, 2, func(args []float64) error { return drawRaindrop(it.stack.Top().MutatePath(), args[0], args[1]) })
	case "wedge":
		return it.cmdShape(cs, 3, func(args []float64) error {
			return drawWedge(it.stack.Top().MutatePath(), args[0], args[1], args[2])
		})
	case "spiral":
		return it.cmdShape(cs, 2, func(args []float64) error { return drawSpiral(it.stack.Top().MutatePath(), args[0], args[1]) })
	default:
		return mapyruserr.Newf(mapyruserr.InvalidKeyword, "unknown command %q", cs.Kind)
	}
}

func (it *Interpreter) cmdLet(cs *parser.CommandStmt) error {
	name, err := it.eval(cs.Args[0])
	if err != nil {
		return err
	}
	v, err := it.eval(cs.Args[1])
	if err != nil {
		return err
	}
	it.stack.DefineVariable(name.AsString(), v)
	return nil
}

func (it *Interpreter) cmdLocal(cs *parser.CommandStmt) error {
	for _, e := range cs.Args {
		v, err := it.eval(e)
		if err != nil {
			return err
		}
		it.stack.SetLocalScope(v.AsString())
	}
	return nil
}

func (it *Interpreter) cmdColor(cs *parser.CommandStmt) error {
	args, err := it.evalArgs(cs.Args)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return mapyruserr.New(mapyruserr.InvalidColor, "color requires at least a name")
	}
	ctx := it.stack.Top()
	if strings.EqualFold(args[0].AsString(), "hsb") {
		if len(args) < 4 {
			return mapyruserr.New(mapyruserr.InvalidColor, "color \"hsb\" requires h, s, b")
		}
		alpha := 1.0
		if len(args) > 4 {
			alpha = args[4].AsNumber()
		}
		ctx.SetColor(support.HSBColor(args[1].AsNumber(), args[2].AsNumber(), args[3].AsNumber(), alpha))
		return nil
	}
	// §9 Open Question: alpha defaults to opaque (1.0) when not supplied,
	// but an explicitly-given alpha of exactly 0 is honoured as fully
	// transparent rather than clamped back to opaque.
	alpha := 1.0
	if len(args) > 1 {
		alpha = args[1].AsNumber()
	}
	col, err := support.ResolveColor(args[0].AsString(), alpha, ctx.Color())
	if err != nil {
		return err
	}
	ctx.SetColor(col)
	return nil
}

func (it *Interpreter) cmdBlend(cs *parser.CommandStmt) error {
	args, err := it.evalArgs(cs.Args)
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return mapyruserr.New(mapyruserr.WrongParameters, "blend requires a mode name")
	}
	it.stack.Top().SetBlend(args[0].AsString())
	return nil
}

func (it *Interpreter) cmdLinestyle(cs *parser.CommandStmt) error {
	args, err := it.evalArgs(cs.Args)
	if err != nil {
		return err
	}
	if len(args) < 1 {
		return mapyruserr.New(mapyruserr.InvalidLineWidth, "linestyle requires a width")
	}
	style := mcontext.StrokeStyle{Width: args[0].AsNumber(), Cap: "butt", Join: "miter", MiterLimit: 10}
	if style.Width < 0 {
		return mapyruserr.New(mapyruserr.InvalidLineWidth, "line width must not be negative")
	}
	if len(args) > 1 {
		style.Cap = args[1].AsString()
	}
	if len(args) > 2 {
		style.Join = args[2].AsString()
	}
	if len(args) > 3 {
		style.MiterLimit = args[3].AsNumber()
	}
	if len(args) > 4 {
		style.DashPhase = args[4].AsNumber()
		for _, a := range args[5:] {
			style.Dash = append(style.Dash, a.AsNumber())
		}
	}
	it.stack.Top().SetLineStyle(style)
	return nil
}

func (it *Interpreter) cmdFont(cs *parser.CommandStmt) error {
	args, err := it.evalArgs(cs.Args)
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return mapyruserr.New(mapyruserr.InvalidFontSize, "font requires a family and size")
	}
	size := args[1].AsNumber()
	if size <= 0 {
		return mapyruserr.New(mapyruserr.InvalidFontSize, "font size must be positive")
	}
	f := mcontext.FontStyle{Family: args[0].AsString(), Size: size, LineSpacing: 1}
	if len(args) > 2 {
		f.Rotation = args[2].AsNumber()
	}
	if len(args) > 3 {
		f.OutlineWidth = args[3].AsNumber()
	}
	if len(args) > 4 {
		f.LineSpacing = args[4].AsNumber()
	}
	it.stack.Top().SetFont(f)
	return nil
}

func (it *Interpreter) cmdJustify(cs *parser.CommandStmt) error {
	args, err := it.evalArgs(cs.Args)
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return mapyruserr.New(mapyruserr.WrongParameters, "justify requires one word list")
	}
	var bits mcontext.Justify
	for _, word := range strings.FieldsFunc(args[0].AsString(), func(r rune) bool { return r == ',' || r == ' ' }) {
		switch strings.ToLower(word) {
		case "left":
			bits |= mcontext.JustifyLeft
		case "center", "centre":
			bits |= mcontext.JustifyCenter
		case "right":
			bits |= mcontext.JustifyRight
		case "top":
			bits |= mcontext.JustifyTop
		case "middle":
			bits |= mcontext.JustifyMiddle
		case "bottom":
			bits |= mcontext.JustifyBottom
		default:
			return mapyruserr.Newf(mapyruserr.WrongParameters, "unrecognised justify keyword %q", word)
		}
	}
	it.stack.Top().SetJustify(bits)
	return nil
}

func (it *Interpreter) cmdNewpage(cs *parser.CommandStmt) error {
	args, err := it.evalArgs(cs.Args)
	if err != nil {
		return err
	}
	if len(args) < 4 {
		return mapyruserr.New(mapyruserr.InvalidPageRange, "newpage requires format, destination, width and height")
	}
	format, dest := args[0].AsString(), args[1].AsString()
	width, height := args[2].AsNumber(), args[3].AsNumber()
	if width <= 0 || height <= 0 {
		return mapyruserr.New(mapyruserr.InvalidPageRange, "page width and height must be positive")
	}
	resolution := 96.0
	if len(args) > 4 {
		resolution = args[4].AsNumber()
	}
	extras := ""
	if len(args) > 5 {
		extras = args[5].AsString()
	}
	ctx := it.stack.Bottom()
	out := ctx.Output()
	if out == nil {
		return mapyruserr.New(mapyruserr.NoOutput, "no output encoder configured for newpage")
	}
	if err := out.OpenPage(format, dest, width, height, resolution, extras); err != nil {
		return mapyruserr.Wrap(mapyruserr.Io, err, "newpage failed")
	}
	ctx.SetOutput(out)
	return nil
}

func (it *Interpreter) cmdEndpage(cs *parser.CommandStmt) error {
	ctx := it.stack.Bottom()
	out := ctx.Output()
	if out == nil {
		return mapyruserr.New(mapyruserr.NoOutput, "endpage with no open page")
	}
	if err := out.ClosePage(); err != nil {
		return mapyruserr.Wrap(mapyruserr.Io, err, "endpage failed")
	}
	return nil
}

func (it *Interpreter) cmdPrint(cs *parser.CommandStmt) error {
	args, err := it.evalArgs(cs.Args)
	if err != nil {
		return err
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.AsString()
	}
	fmt.Fprintln(it.stdout, strings.Join(parts, " "))
	return nil
}

func (it *Interpreter) cmdMove(cs *parser.CommandStmt) error {
	args, err := it.evalArgs(cs.Args)
	if err != nil {
		return err
	}
	if len(args) == 0 || len(args)%2 != 0 {
		return mapyruserr.New(mapyruserr.WrongCoordinate, "move requires one or more x,y pairs")
	}
	ctx := it.stack.Top()
	p := ctx.MutatePath()
	for i := 0; i < len(args); i += 2 {
		x, y := transformPoint(ctx, args[i].AsNumber(), args[i+1].AsNumber())
		p.MoveTo(x, y)
	}
	return nil
}

func (it *Interpreter) cmdDraw(cs *parser.CommandStmt) error {
	args, err := it.evalArgs(cs.Args)
	if err != nil {
		return err
	}
	if len(args) == 0 || len(args)%2 != 0 {
		return mapyruserr.New(mapyruserr.WrongCoordinate, "draw requires one or more x,y pairs")
	}
	ctx := it.stack.Top()
	p := ctx.MutatePath()
	for i := 0; i < len(args); i += 2 {
		x, y := transformPoint(ctx, args[i].AsNumber(), args[i+1].AsNumber())
		if err := p.LineTo(x, y); err != nil {
			return err
		}
	}
	return nil
}

func (it *Interpreter) cmdRMove(cs *parser.CommandStmt) error {
	args, err := it.evalArgs(cs.Args)
	if err != nil {
		return err
	}
	if len(args) != 2 {
		return mapyruserr.New(mapyruserr.WrongCoordinate, "rmove requires dx,dy")
	}
	ctx := it.stack.Top()
	p := ctx.MutatePath()
	dx, dy := transformDistance(ctx, args[0].AsNumber(), args[1].AsNumber())
	cur := p.EndPoint()
	p.MoveTo(cur.X+dx, cur.Y+dy)
	return nil
}

func (it *Interpreter) cmdRDraw(cs *parser.CommandStmt) error {
	args, err := it.evalArgs(cs.Args)
	if err != nil {
		return err
	}
	if len(args) != 2 {
		return mapyruserr.New(mapyruserr.WrongCoordinate, "rdraw requires dx,dy")
	}
	ctx := it.stack.Top()
	dx, dy := transformDistance(ctx, args[0].AsNumber(), args[1].AsNumber())
	return ctx.MutatePath().RLineTo(dx, dy)
}

func (it *Interpreter) cmdArc(cs *parser.CommandStmt) error {
	args, err := it.evalArgs(cs.Args)
	if err != nil {
		return err
	}
	if len(args) != 5 {
		return mapyruserr.New(mapyruserr.WrongParameters, "arc requires direction, cx, cy, ex, ey")
	}
	ctx := it.stack.Top()
	cx, cy := transformPoint(ctx, args[1].AsNumber(), args[2].AsNumber())
	ex, ey := transformPoint(ctx, args[3].AsNumber(), args[4].AsNumber())
	dir := 1
	if args[0].AsNumber() < 0 {
		dir = -1
	}
	return ctx.MutatePath().ArcTo(dir, cx, cy, ex, ey)
}

func (it *Interpreter) cmdSamplePath(cs *parser.CommandStmt) error {
	args, err := it.evalArgs(cs.Args)
	if err != nil {
		return err
	}
	if len(args) < 1 {
		return mapyruserr.New(mapyruserr.WrongParameters, "samplepath requires a spacing")
	}
	offset := 0.0
	if len(args) > 1 {
		offset = args[1].AsNumber()
	}
	it.stack.Top().MutatePath().SamplePath(args[0].AsNumber(), offset)
	return nil
}

func (it *Interpreter) cmdStripePath(cs *parser.CommandStmt) error {
	args, err := it.evalArgs(cs.Args)
	if err != nil {
		return err
	}
	if len(args) < 1 {
		return mapyruserr.New(mapyruserr.WrongParameters, "stripepath requires a spacing")
	}
	angle := 0.0
	if len(args) > 1 {
		angle = args[1].AsNumber()
	}
	it.stack.Top().MutatePath().StripePath(args[0].AsNumber(), angle)
	return nil
}

func (it *Interpreter) cmdParallelPath(cs *parser.CommandStmt) error {
	args, err := it.evalArgs(cs.Args)
	if err != nil {
		return err
	}
	it.stack.Top().MutatePath().ParallelPath(numArgs(args))
	return nil
}

func (it *Interpreter) cmdSelectPath(cs *parser.CommandStmt) error {
	args, err := it.evalArgs(cs.Args)
	if err != nil {
		return err
	}
	if len(args)%2 != 0 {
		return mapyruserr.New(mapyruserr.WrongParameters, "selectpath requires offset,length pairs")
	}
	var offsets, lengths []float64
	for i := 0; i < len(args); i += 2 {
		offsets = append(offsets, args[i].AsNumber())
		lengths = append(lengths, args[i+1].AsNumber())
	}
	return it.stack.Top().MutatePath().SelectPath(offsets, lengths)
}

func (it *Interpreter) cmdSinkhole(cs *parser.CommandStmt) error {
	ctx := it.stack.Top()
	pt := ctx.MutatePath().Sinkhole()
	ctx.ClearPath()
	ctx.MutatePath().MoveTo(pt.X, pt.Y)
	return nil
}

func (it *Interpreter) cmdGuillotine(cs *parser.CommandStmt) error {
	args, err := it.evalArgs(cs.Args)
	if err != nil {
		return err
	}
	if len(args) != 4 {
		return mapyruserr.New(mapyruserr.WrongParameters, "guillotine requires x1,y1,x2,y2")
	}
	ctx := it.stack.Top()
	x1, y1 := transformPoint(ctx, args[0].AsNumber(), args[1].AsNumber())
	x2, y2 := transformPoint(ctx, args[2].AsNumber(), args[3].AsNumber())
	ctx.MutatePath().Guillotine(x1, y1, x2, y2)
	return nil
}

func (it *Interpreter) cmdAddPath(cs *parser.CommandStmt) error {
	args, err := it.evalArgs(cs.Args)
	if err != nil {
		return err
	}
	ctx := it.stack.Top()
	p := ctx.MutatePath()
	for _, a := range args {
		if g := a.AsGeometry(); g != nil {
			geometryToPath(p, g)
		}
	}
	return nil
}

func (it *Interpreter) cmdProtect(cs *parser.CommandStmt, protect bool) error {
	ctx := it.stack.Top()
	out := ctx.Output()
	if out == nil {
		return mapyruserr.New(mapyruserr.NoOutput, "protect/unprotect requires an open page")
	}
	out.PageMask().SetValue(shapeFromPath(ctx), protect)
	return nil
}

func (it *Interpreter) cmdClip(cs *parser.CommandStmt) error {
	args, err := it.evalArgs(cs.Args)
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return mapyruserr.New(mapyruserr.WrongParameters, "clip requires inside|outside")
	}
	mode := strings.ToLower(args[0].AsString())
	if mode != "inside" && mode != "outside" {
		return mapyruserr.Newf(mapyruserr.WrongParameters, "clip mode must be inside or outside, got %q", mode)
	}
	ctx := it.stack.Top()
	ctx.AddClip(ctx.MutatePath().Clone(), mode)
	ctx.Flush(mcontext.AttrClip)
	return nil
}

func (it *Interpreter) cmdStroke(cs *parser.CommandStmt) error {
	args, err := it.evalArgs(cs.Args)
	if err != nil {
		return err
	}
	ctx := it.stack.Top()
	out := ctx.Output()
	if out == nil {
		return mapyruserr.New(mapyruserr.NoOutput, "stroke requires an open page")
	}
	ctx.Flush(mcontext.AttrColor | mcontext.AttrBlend | mcontext.AttrLineStyle | mcontext.AttrClip)
	xmlAttrs := ""
	if len(args) > 0 {
		xmlAttrs = args[0].AsString()
	}
	if err := out.Stroke(shapeFromPath(ctx), xmlAttrs); err != nil {
		return mapyruserr.Wrap(mapyruserr.Io, err, "stroke failed")
	}
	return nil
}

func (it *Interpreter) cmdFill(cs *parser.CommandStmt) error {
	args, err := it.evalArgs(cs.Args)
	if err != nil {
		return err
	}
	ctx := it.stack.Top()
	out := ctx.Output()
	if out == nil {
		return mapyruserr.New(mapyruserr.NoOutput, "fill requires an open page")
	}
	ctx.Flush(mcontext.AttrColor | mcontext.AttrBlend | mcontext.AttrClip)
	xmlAttrs := ""
	if len(args) > 0 {
		xmlAttrs = args[0].AsString()
	}
	if err := out.Fill(shapeFromPath(ctx), xmlAttrs); err != nil {
		return mapyruserr.Wrap(mapyruserr.Io, err, "fill failed")
	}
	return nil
}

func (it *Interpreter) cmdIcon(cs *parser.CommandStmt) error {
	args, err := it.evalArgs(cs.Args)
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return mapyruserr.New(mapyruserr.WrongParameters, "icon requires image and size")
	}
	ctx := it.stack.Top()
	out := ctx.Output()
	if out == nil {
		return mapyruserr.New(mapyruserr.NoOutput, "icon requires an open page")
	}
	size := args[1].AsNumber()
	rotation, scaling := ctx.Rotation(), ctx.Scaling()
	if len(args) > 2 {
		rotation = args[2].AsNumber()
	}
	if len(args) > 3 {
		scaling = args[3].AsNumber()
	}
	return out.DrawIcon(pointsFromPath(ctx), args[0].AsString(), size, rotation, scaling)
}

func (it *Interpreter) cmdPathDraw(cs *parser.CommandStmt, fn func(output.Encoder, []pathengine.Point, string) error) error {
	args, err := it.evalArgs(cs.Args)
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return mapyruserr.New(mapyruserr.WrongParameters, "command requires exactly one path/filename argument")
	}
	ctx := it.stack.Top()
	out := ctx.Output()
	if out == nil {
		return mapyruserr.New(mapyruserr.NoOutput, "command requires an open page")
	}
	return fn(out, pointsFromPath(ctx), args[0].AsString())
}

func (it *Interpreter) cmdLabel(cs *parser.CommandStmt) error {
	args, err := it.evalArgs(cs.Args)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return mapyruserr.New(mapyruserr.WrongParameters, "label requires text")
	}
	ctx := it.stack.Top()
	out := ctx.Output()
	if out == nil {
		return mapyruserr.New(mapyruserr.NoOutput, "label requires an open page")
	}
	ctx.Flush(mcontext.AttrColor | mcontext.AttrFont | mcontext.AttrJustify | mcontext.AttrClip)
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.AsString()
	}
	return out.Label(pointsFromPath(ctx), strings.Join(parts, " "))
}

func (it *Interpreter) cmdFlowLabel(cs *parser.CommandStmt) error {
	// flowlabel places text along the path rather than at its points;
	// approximated here by labelling at each sampled position, which is
	// the same underlying Output call with the path already reduced to
	// points by an upstream samplepath.
	return it.cmdLabel(cs)
}

func (it *Interpreter) cmdGradientFill(cs *parser.CommandStmt) error {
	args, err := it.evalArgs(cs.Args)
	if err != nil {
		return err
	}
	if len(args) != 3 {
		return mapyruserr.New(mapyruserr.WrongParameters, "gradientfill requires direction, color1, color2")
	}
	ctx := it.stack.Top()
	out := ctx.Output()
	if out == nil {
		return mapyruserr.New(mapyruserr.NoOutput, "gradientfill requires an open page")
	}
	vertical := strings.EqualFold(args[0].AsString(), "vertical")
	c1, err := support.Color(args[1].AsString(), 1)
	if err != nil {
		return err
	}
	c2, err := support.Color(args[2].AsString(), 1)
	if err != nil {
		return err
	}
	ctx.Flush(mcontext.AttrClip)
	return out.GradientFill(shapeFromPath(ctx), vertical, c1, c2)
}

func (it *Interpreter) cmdEventScript(cs *parser.CommandStmt) error {
	args, err := it.evalArgs(cs.Args)
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return mapyruserr.New(mapyruserr.WrongParameters, "eventscript requires one code string")
	}
	ctx := it.stack.Top()
	out := ctx.Output()
	if out == nil {
		return mapyruserr.New(mapyruserr.NoOutput, "eventscript requires an open page")
	}
	// Per §9's Open Question, the argument is forwarded verbatim with no
	// interpretation by the runtime.
	return out.SetEventScript(shapeFromPath(ctx), args[0].AsString())
}

func (it *Interpreter) cmdWorlds(cs *parser.CommandStmt) error {
	args, err := it.evalArgs(cs.Args)
	if err != nil {
		return err
	}
	if len(args) < 4 {
		return mapyruserr.New(mapyruserr.WrongParameters, "worlds requires a world rectangle")
	}
	world := mcontext.Rect{X1: args[0].AsNumber(), Y1: args[1].AsNumber(), X2: args[2].AsNumber(), Y2: args[3].AsNumber()}
	if world.X2 == world.X1 || world.Y2 == world.Y1 {
		return mapyruserr.New(mapyruserr.ZeroWorldRange, "world rectangle must have non-zero width and height")
	}
	rest := args[4:]
	var page mcontext.Rect
	if len(rest) >= 4 {
		allNum := true
		for _, a := range rest[:4] {
			if a.Kind() != value.KindNumber {
				allNum = false
				break
			}
		}
		if allNum {
			page = mcontext.Rect{X1: rest[0].AsNumber(), Y1: rest[1].AsNumber(), X2: rest[2].AsNumber(), Y2: rest[3].AsNumber()}
			rest = rest[4:]
		}
	}
	unit := mcontext.UnitMetres
	allowDistortion := false
	for _, a := range rest {
		s := a.AsString()
		if strings.HasPrefix(strings.ToLower(s), "units=") {
			u, err := support.ResolveWorldUnit(strings.TrimPrefix(s, s[:6]))
			if err != nil {
				return err
			}
			unit = u
		}
		if strings.EqualFold(s, "distort") {
			allowDistortion = true
		}
	}
	it.stack.Top().SetWorlds(world, page, unit, allowDistortion)
	return nil
}

func (it *Interpreter) cmdProject(cs *parser.CommandStmt) error {
	// Projection transforms are an external collaborator's concern per
	// §1; the command is accepted and its arguments validated, but the
	// reprojection itself is not modelled in this runtime.
	_, err := it.evalArgs(cs.Args)
	return err
}

func (it *Interpreter) cmdScale(cs *parser.CommandStmt) error {
	args, err := it.evalArgs(cs.Args)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return mapyruserr.New(mapyruserr.WrongParameters, "scale requires at least one factor")
	}
	sx := args[0].AsNumber()
	sy := sx
	if len(args) > 1 {
		sy = args[1].AsNumber()
	}
	it.stack.Top().Scale(sx, sy)
	return nil
}

func (it *Interpreter) cmdRotate(cs *parser.CommandStmt) error {
	args, err := it.evalArgs(cs.Args)
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return mapyruserr.New(mapyruserr.WrongParameters, "rotate requires one angle in radians")
	}
	it.stack.Top().Rotate(args[0].AsNumber())
	return nil
}

func (it *Interpreter) cmdTranslate(cs *parser.CommandStmt) error {
	args, err := it.evalArgs(cs.Args)
	if err != nil {
		return err
	}
	if len(args) != 2 {
		return mapyruserr.New(mapyruserr.WrongParameters, "translate requires dx,dy")
	}
	ctx := it.stack.Top()
	dx, dy := transformDistance(ctx, args[0].AsNumber(), args[1].AsNumber())
	ctx.MutatePath().TranslatePath(dx, dy)
	ctx.Translate(args[0].AsNumber(), args[1].AsNumber())
	return nil
}

func (it *Interpreter) cmdKey(cs *parser.CommandStmt) error {
	args, err := it.evalArgs(cs.Args)
	if err != nil {
		return err
	}
	if len(args) < 3 {
		return mapyruserr.New(mapyruserr.InvalidLegendType, "key requires kind, description, block name")
	}
	var kind LegendKind
	switch strings.ToLower(args[0].AsString()) {
	case "point":
		kind = LegendPoint
	case "line":
		kind = LegendLine
	case "zigzag":
		kind = LegendZigzag
	case "box":
		kind = LegendBox
	default:
		return mapyruserr.Newf(mapyruserr.InvalidLegendType, "unrecognised legend kind %q", args[0].AsString())
	}
	it.stack.Legend().Add(LegendEntry{
		Kind:        kind,
		Description: args[1].AsString(),
		BlockName:   args[2].AsString(),
		Args:        append([]value.Value(nil), args[3:]...),
	})
	return nil
}

// cmdLegend re-invokes every accumulated key entry's block against a
// synthetic path sized for its kind, stacking entries lineSpacing mm apart,
// and labels each with its description. Additions to the legend are
// suppressed for the duration so the blocks' own drawing commands don't
// recurse into the list being rendered.
func (it *Interpreter) cmdLegend(cs *parser.CommandStmt) error {
	args, err := it.evalArgs(cs.Args)
	if err != nil {
		return err
	}
	lineSpacing := 10.0
	if len(args) > 0 {
		lineSpacing = args[0].AsNumber()
	}
	ctx := it.stack.Top()
	out := ctx.Output()
	if out == nil {
		return mapyruserr.New(mapyruserr.NoOutput, "legend requires an open page")
	}

	legend := it.stack.Legend()
	legend.IgnoreAdditions()
	defer legend.AcceptAdditions()

	origin := ctx.MutatePath().EndPoint()
	for i, entry := range legend.Entries() {
		y := origin.Y + float64(i)*lineSpacing
		it.stack.SaveState()
		if err := it.renderLegendEntry(entry, origin.X, y, lineSpacing, out); err != nil {
			it.stack.RestoreState()
			return err
		}
		it.stack.RestoreState()
	}
	return nil
}

func (it *Interpreter) renderLegendEntry(entry *LegendEntry, x, y, lineSpacing float64, out output.Encoder) error {
	top := it.stack.Top()
	top.ClearPath()
	p := top.MutatePath()
	switch entry.Kind {
	case LegendPoint:
		p.MoveTo(x, y)
	case LegendLine:
		p.MoveTo(x, y)
		if err := p.LineTo(x+lineSpacing, y); err != nil {
			return err
		}
	case LegendZigzag:
		p.MoveTo(x, y)
		if err := p.LineTo(x+lineSpacing/2, y-lineSpacing/4); err != nil {
			return err
		}
		if err := p.LineTo(x+lineSpacing, y); err != nil {
			return err
		}
	case LegendBox:
		p.MoveTo(x+lineSpacing/2, y)
		if err := drawBox(p, lineSpacing, lineSpacing); err != nil {
			return err
		}
	}
	if bd, ok := it.blocks[strings.ToLower(entry.BlockName)]; ok {
		if err := it.invokeBlock(bd, entry.Args); err != nil {
			return err
		}
	}
	if entry.Kind == LegendBox {
		top.SetColor(output.Color{R: 0, G: 0, B: 0, A: 1})
		top.Flush(mcontext.AttrColor | mcontext.AttrBlend | mcontext.AttrLineStyle | mcontext.AttrClip)
		if err := out.Stroke(shapeFromPath(top), ""); err != nil {
			return mapyruserr.Wrap(mapyruserr.Io, err, "legend box outline failed")
		}
	}
	top.Flush(mcontext.AttrColor | mcontext.AttrFont | mcontext.AttrJustify)
	return out.Label([]pathengine.Point{{X: x + lineSpacing*1.5, Y: y}}, entry.Description)
}

func (it *Interpreter) cmdMimetype(cs *parser.CommandStmt) error {
	args, err := it.evalArgs(cs.Args)
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return mapyruserr.New(mapyruserr.WrongParameters, "mimetype requires one type string")
	}
	it.stack.Bottom().DefineVariable("$Mapyrus.mimetype", args[0])
	return nil
}

func (it *Interpreter) cmdDataset(cs *parser.CommandStmt) error {
	args, err := it.evalArgs(cs.Args)
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return mapyruserr.New(mapyruserr.WrongParameters, "dataset requires type and spec")
	}
	if it.opener == nil {
		return mapyruserr.New(mapyruserr.Io, "no dataset driver configured")
	}
	extras := ""
	if len(args) > 2 {
		extras = args[2].AsString()
	}
	ds, err := it.opener(args[0].AsString(), args[1].AsString(), extras, it.stdin)
	if err != nil {
		return mapyruserr.Wrap(mapyruserr.Io, err, "dataset open failed")
	}
	it.stack.Bottom().SetDataset(ds)
	return nil
}

func (it *Interpreter) cmdFetch(cs *parser.CommandStmt) error {
	ds, ok := it.stack.Bottom().Dataset().(Dataset)
	if !ok || ds == nil {
		return mapyruserr.New(mapyruserr.Io, "fetch with no open dataset")
	}
	row, err := ds.Fetch()
	ctx := it.stack.Top()
	if err != nil {
		ctx.DefineVariable("$Mapyrus.fetch.eof", value.One)
		return mapyruserr.Wrap(mapyruserr.Io, err, "fetch failed")
	}
	if row == nil {
		ctx.DefineVariable("$Mapyrus.fetch.eof", value.One)
		return nil
	}
	ctx.DefineVariable("$Mapyrus.fetch.eof", value.Zero)
	names := ds.FieldNames()
	for i, v := range row {
		if i < len(names) {
			ctx.DefineVariable(names[i], v)
		}
	}
	return nil
}

func (it *Interpreter) cmdTable(cs *parser.CommandStmt) error {
	ds, ok := it.stack.Bottom().Dataset().(Dataset)
	if !ok || ds == nil {
		return mapyruserr.New(mapyruserr.Io, "table with no open dataset")
	}
	ctx := it.stack.Top()
	out := ctx.Output()
	if out == nil {
		return mapyruserr.New(mapyruserr.NoOutput, "table requires an open page")
	}
	names := ds.FieldNames()
	ctx.Flush(mcontext.AttrColor | mcontext.AttrFont | mcontext.AttrJustify)
	if err := out.Label(pointsFromPath(ctx), strings.Join(names, "\t")); err != nil {
		return err
	}
	for {
		row, err := ds.Fetch()
		if err != nil || row == nil {
			return nil
		}
		parts := make([]string, len(row))
		for i, v := range row {
			parts[i] = v.AsString()
		}
		if err := out.Label(pointsFromPath(ctx), strings.Join(parts, "\t")); err != nil {
			return err
		}
	}
}

func (it *Interpreter) cmdTree(cs *parser.CommandStmt) error {
	args, err := it.evalArgs(cs.Args)
	if err != nil {
		return err
	}
	if len(args) != 1 || args[0].AsMap() == nil {
		return mapyruserr.New(mapyruserr.WrongParameters, "tree requires one map argument")
	}
	ctx := it.stack.Top()
	out := ctx.Output()
	if out == nil {
		return mapyruserr.New(mapyruserr.NoOutput, "tree requires an open page")
	}
	ctx.Flush(mcontext.AttrColor | mcontext.AttrFont | mcontext.AttrJustify)
	return renderTree(out, pointsFromPath(ctx), args[0].AsMap(), 0)
}

func renderTree(out output.Encoder, pts []pathengine.Point, m *value.Map, depth int) error {
	for _, k := range m.KeysInsertionOrder() {
		v, _ := m.Get(k)
		indent := strings.Repeat("  ", depth)
		text := indent + k
		if v.Kind() != value.KindMap {
			text += " = " + v.AsString()
		}
		if err := out.Label(pts, text); err != nil {
			return err
		}
		if child := v.AsMap(); child != nil {
			if err := renderTree(out, pts, child, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

func (it *Interpreter) cmdShape(cs *parser.CommandStmt, want int, fn func([]float64) error) error {
	args, err := it.evalArgs(cs.Args)
	if err != nil {
		return err
	}
	if len(args) != want {
		return mapyruserr.Newf(mapyruserr.WrongParameters, "%s requires %d argument(s)", cs.Kind, want)
	}
	return fn(numArgs(args))
}

func (it *Interpreter) cmdShapeVariadic(cs *parser.CommandStmt, fn func([]float64) error) error {
	args, err := it.evalArgs(cs.Args)
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return mapyruserr.Newf(mapyruserr.WrongParameters, "%s requires at least 2 arguments", cs.Kind)
	}
	return fn(numArgs(args))
}
