// Package output defines the Encoder contract described in §6: the
// external collaborator that turns flushed graphics attributes and
// geometry into a concrete page format (SVG, PDF, PNG, ...). Concrete
// encoders are explicitly out of scope — this package carries the
// contract plus a recording implementation used by tests and by the CLI
// when no real renderer is wired in.
package output

import "mapyrus/internal/pathengine"

// Color is an RGBA color in the 0..1 range, as passed to
// setColorAttribute.
type Color struct {
	R, G, B, A float64
}

// Font describes the setFontAttribute parameters.
type Font struct {
	Name         string
	Size         float64
	Rotation     float64
	OutlineWidth float64
	LineSpacing  float64
}

// Shape is whatever geometry a draw call operates on: the current path's
// subpaths, already flattened to page coordinates.
type Shape struct {
	SubPaths []pathengine.SubPath

	// Mode distinguishes the two `clip inside|outside` regions passed to
	// SetClipAttribute: "inside" (or "") for a plain clip, "outside" when
	// later drawing must be confined to the region outside this shape.
	// Unused outside clip shapes.
	Mode string
}

// Encoder is the output-format contract every Context ultimately flushes
// attribute and drawing calls to. A *Context never talks to a concrete
// renderer directly — only through this interface.
type Encoder interface {
	OpenPage(format, dest string, widthMM, heightMM, resolution float64, extras string) error
	ClosePage() error

	SetColorAttribute(c Color)
	SetBlendAttribute(mode string)
	SetLinestyleAttribute(width float64, cap, join string, miterLimit float64, dashPhase float64, dash []float64)
	SetFontAttribute(f Font)
	SetJustifyAttribute(bits int)
	SetClipAttribute(clips []Shape)

	// SaveState/RestoreState return whether the previous attribute state
	// was fully restored; false tells the caller it must reflush.
	SaveState() bool
	RestoreState() bool

	Stroke(shape Shape, xmlAttrs string) error
	Fill(shape Shape, xmlAttrs string) error
	Clip(shape Shape) error

	DrawIcon(points []pathengine.Point, image string, sizeMM, rotation, scaling float64) error
	DrawEPS(points []pathengine.Point, path string) error
	DrawSVG(points []pathengine.Point, path string) error
	DrawPDF(points []pathengine.Point, path string) error
	DrawGeoImage(points []pathengine.Point, path string) error
	Label(points []pathengine.Point, text string) error
	AddSVGCode(xml string) error
	GradientFill(shape Shape, vertical bool, c1, c2 Color) error
	SetEventScript(shape Shape, code string) error

	PageMask() PageMask
}

// PageMask is the per-page protect/unprotect bitmap that `protect` and
// `unprotect` mutate and the interpreter's `protected()` function consults.
type PageMask interface {
	SetValue(shape Shape, v bool)
	IsAllZero(shape Shape) bool
}
