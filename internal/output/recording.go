package output

import (
	"strings"

	"mapyrus/internal/pathengine"
)

// Recording is an in-memory Encoder that appends a string describing
// every call it receives, used by interpreter tests and by the CLI and
// HTTP front end, where no concrete renderer is wired in.
type Recording struct {
	Calls      []string
	stateStack []int
	mask       *recordingMask
	clipModes  []string
}

// NewRecording returns a ready-to-use Recording encoder.
func NewRecording() *Recording {
	return &Recording{mask: &recordingMask{}}
}

func (r *Recording) record(name string) { r.Calls = append(r.Calls, name) }

func (r *Recording) OpenPage(format, dest string, widthMM, heightMM, resolution float64, extras string) error {
	r.record("openPage:" + format)
	return nil
}

func (r *Recording) ClosePage() error {
	r.record("closePage")
	return nil
}

func (r *Recording) SetColorAttribute(c Color)     { r.record("setColor") }
func (r *Recording) SetBlendAttribute(mode string) { r.record("setBlend:" + mode) }
func (r *Recording) SetLinestyleAttribute(width float64, cap, join string, miterLimit, dashPhase float64, dash []float64) {
	r.record("setLinestyle")
}
func (r *Recording) SetFontAttribute(f Font)        { r.record("setFont:" + f.Name) }
func (r *Recording) SetJustifyAttribute(bits int)   { r.record("setJustify") }
func (r *Recording) SetClipAttribute(clips []Shape) {
	modes := make([]string, len(clips))
	for i, cl := range clips {
		mode := cl.Mode
		if mode == "" {
			mode = "inside"
		}
		modes[i] = mode
	}
	r.clipModes = modes
	r.record("setClip:" + strings.Join(modes, ","))
}

// SaveState pushes a save marker and always reports true, approximating
// a renderer that can always restore the attributes it just saved.
func (r *Recording) SaveState() bool {
	r.stateStack = append(r.stateStack, len(r.Calls))
	r.record("saveState")
	return true
}

func (r *Recording) RestoreState() bool {
	r.record("restoreState")
	if len(r.stateStack) == 0 {
		return false
	}
	r.stateStack = r.stateStack[:len(r.stateStack)-1]
	return true
}

func (r *Recording) Stroke(shape Shape, xmlAttrs string) error { r.record("stroke"); return nil }
func (r *Recording) Fill(shape Shape, xmlAttrs string) error   { r.record("fill"); return nil }
func (r *Recording) Clip(shape Shape) error                    { r.record("clip"); return nil }

func (r *Recording) DrawIcon(points []pathengine.Point, image string, sizeMM, rotation, scaling float64) error {
	r.record("drawIcon:" + image)
	return nil
}

func (r *Recording) DrawEPS(points []pathengine.Point, path string) error {
	r.record("drawEPS")
	return nil
}

func (r *Recording) DrawSVG(points []pathengine.Point, path string) error {
	r.record("drawSVG")
	return nil
}

func (r *Recording) DrawPDF(points []pathengine.Point, path string) error {
	r.record("drawPDF")
	return nil
}

func (r *Recording) DrawGeoImage(points []pathengine.Point, path string) error {
	r.record("drawGeoImage")
	return nil
}

func (r *Recording) Label(points []pathengine.Point, text string) error {
	r.record("label:" + text)
	return nil
}

func (r *Recording) AddSVGCode(xml string) error {
	r.record("addSVGCode")
	return nil
}

func (r *Recording) GradientFill(shape Shape, vertical bool, c1, c2 Color) error {
	r.record("gradientFill")
	return nil
}

func (r *Recording) SetEventScript(shape Shape, code string) error {
	r.record("setEventScript:" + code)
	return nil
}

func (r *Recording) PageMask() PageMask { return r.mask }

// ClipModes returns the inside/outside mode of each clip region from the
// most recent SetClipAttribute call.
func (r *Recording) ClipModes() []string { return r.clipModes }

// recordingMask is a trivial in-memory PageMask: it tracks only whether
// any SetValue(true) call has ever been made, which is enough for tests
// exercising protect/unprotect/clip-inside-outside without needing a
// real per-pixel bitmap.
type recordingMask struct {
	anySet bool
}

func (m *recordingMask) SetValue(shape Shape, v bool) {
	if v {
		m.anySet = true
	}
}

func (m *recordingMask) IsAllZero(shape Shape) bool { return !m.anySet }
