package mcontext

import (
	"mapyrus/internal/output"
	"mapyrus/internal/pathengine"
	"mapyrus/internal/value"
)

// AttrBit is one of the six tracked graphics attributes whose pending/
// changed state drives the dirty-flag flush protocol.
type AttrBit int

const (
	AttrFont AttrBit = 1 << iota
	AttrJustify
	AttrColor
	AttrBlend
	AttrLineStyle
	AttrClip
	AttrAll = AttrFont | AttrJustify | AttrColor | AttrBlend | AttrLineStyle | AttrClip
)

// clipPath pairs one accumulated clip region with the inside/outside mode
// it was added under, per `clip inside|outside`.
type clipPath struct {
	path *pathengine.Path
	mode string
}

// StrokeStyle holds the line-drawing attributes.
type StrokeStyle struct {
	Width      float64
	Cap        string
	Join       string
	MiterLimit float64
	DashPhase  float64
	Dash       []float64
}

// FontStyle holds the text-drawing attributes.
type FontStyle struct {
	Family       string
	Size         float64
	Rotation     float64
	OutlineWidth float64
	LineSpacing  float64
}

// Justify is a bitmask of horizontal/vertical text anchor flags.
type Justify int

const (
	JustifyLeft Justify = 1 << iota
	JustifyCenter
	JustifyRight
	JustifyTop
	JustifyMiddle
	JustifyBottom
)

// DefaultJustify matches §4.G's default: LEFT|BOTTOM.
const DefaultJustify = JustifyLeft | JustifyBottom

// Context is the graphical and variable state of one procedure frame.
type Context struct {
	color   output.Color
	blend   string
	stroke  StrokeStyle
	font    FontStyle
	justify Justify

	ctm      Matrix
	scaling  float64
	rotation float64

	worldCtm     *Matrix
	worldExtents Rect
	worldPage    Rect
	worldUnit    WorldUnit

	path         *pathengine.Path // frame-owned, nil until first mutation
	existingPath *pathengine.Path // inherited read-through reference

	clips []clipPath

	dataset        interface{}
	datasetDefined bool

	out            output.Encoder
	outputDefined bool

	vars       map[string]value.Value
	localScope map[string]bool

	pending AttrBit
	changed AttrBit
}

// New returns a fresh, default Context (§4.G defaults) around out, which
// may be nil for a frame that doesn't itself draw (e.g. a data-only
// nested procedure call).
func New(out output.Encoder) *Context {
	return &Context{
		color:          output.Color{A: 1},
		blend:          "Normal",
		stroke:         StrokeStyle{Width: 0.1, Cap: "square", Join: "miter", MiterLimit: 10},
		font:           FontStyle{Family: "SansSerif", Size: 5},
		justify:        DefaultJustify,
		ctm:            Identity(),
		scaling:        1,
		rotation:       0,
		out:            out,
		outputDefined:  out != nil,
		vars:           make(map[string]value.Value),
		localScope:     make(map[string]bool),
		pending:        AttrAll,
		changed:        0,
	}
}

// Clone creates a child frame from parent, per the §4.G clone rules:
// shared style values, CTM cloned by value, cumulative scaling/rotation
// kept, the parent's output handle shared (with saveState invoked on
// it), variables reset, current path shared by reference, clip list
// copied by value.
func Clone(parent *Context) *Context {
	c := &Context{
		color:      parent.color,
		blend:      parent.blend,
		stroke:     parent.stroke,
		font:       parent.font,
		justify:    parent.justify,
		ctm:        parent.ctm,
		scaling:    parent.scaling,
		rotation:   parent.rotation,
		worldCtm:   parent.worldCtm,
		worldExtents: parent.worldExtents,
		worldPage:  parent.worldPage,
		worldUnit:  parent.worldUnit,
		vars:       make(map[string]value.Value),
		localScope: make(map[string]bool),
		pending:    0,
		changed:    0,
	}
	// Path lifecycle: the child starts with no path of its own; queries
	// fall through to the parent's via existingPath until a mutation
	// forces a copy.
	if parent.path != nil {
		c.existingPath = parent.path
	} else {
		c.existingPath = parent.existingPath
	}
	c.clips = append([]clipPath(nil), parent.clips...)
	c.dataset = parent.dataset
	c.datasetDefined = false
	c.out = parent.out
	c.outputDefined = false
	if c.out != nil {
		c.out.SaveState()
	}
	return c
}

// Close destroys a frame, applying the attribute-restore discipline: the
// output encoder's restoreState is attempted first; if it reports the
// previous state was fully restored, this frame's changed bits are
// cleared and the parent need not reflush, otherwise the parent inherits
// this frame's changed bits as newly pending.
func (c *Context) Close(parent *Context) {
	if c.outputDefined && c.out != nil {
		// This frame opened the output handle itself — nothing above it
		// to restore into.
		return
	}
	if c.out == nil {
		return
	}
	restored := c.out.RestoreState()
	if restored {
		c.changed = 0
	}
	if parent != nil {
		parent.pending |= c.changed
	}
	if c.datasetDefined {
		// the dataset belongs to this frame; callers close the concrete
		// handle through the dataset package before discarding it.
	}
}

// CurrentPath returns the path this frame reads through: its own if it
// has materialised one, otherwise the inherited parent reference.
func (c *Context) CurrentPath() *pathengine.Path {
	if c.path != nil {
		return c.path
	}
	return c.existingPath
}

// MutatePath returns the path this frame should apply a mutating
// operation to, materialising a private copy-on-write clone of the
// inherited path on first use.
func (c *Context) MutatePath() *pathengine.Path {
	if c.path == nil {
		if c.existingPath != nil {
			c.path = c.existingPath.Clone()
		} else {
			c.path = pathengine.New()
		}
	}
	return c.path
}

// ClearPath implements clearPath's two-case rule: if this frame already
// owns a path, it is reset in place; otherwise the inherited reference is
// simply detached, leaving the parent's path untouched and this frame
// pathless until the next mutation.
func (c *Context) ClearPath() {
	if c.path != nil {
		c.path.ClearPath()
		return
	}
	c.existingPath = nil
}

// SetColor sets the drawing color and marks AttrColor dirty.
func (c *Context) SetColor(col output.Color) {
	c.color = col
	c.markDirty(AttrColor)
}

// SetBlend sets the blend mode and marks AttrBlend dirty.
func (c *Context) SetBlend(mode string) {
	c.blend = mode
	c.markDirty(AttrBlend)
}

// SetLineStyle sets the stroke style and marks AttrLineStyle dirty.
func (c *Context) SetLineStyle(s StrokeStyle) {
	c.stroke = s
	c.markDirty(AttrLineStyle)
}

// SetFont sets the font style and marks AttrFont dirty.
func (c *Context) SetFont(f FontStyle) {
	c.font = f
	c.markDirty(AttrFont)
}

// SetJustify sets the text justification and marks AttrJustify dirty.
func (c *Context) SetJustify(j Justify) {
	c.justify = j
	c.markDirty(AttrJustify)
}

// AddClip appends a clip path under the given inside/outside mode and
// marks AttrClip dirty.
func (c *Context) AddClip(p *pathengine.Path, mode string) {
	c.clips = append(c.clips, clipPath{path: p, mode: mode})
	c.markDirty(AttrClip)
}

// ClearClips empties the clip list and marks AttrClip dirty.
func (c *Context) ClearClips() {
	c.clips = nil
	c.markDirty(AttrClip)
}

func (c *Context) markDirty(bit AttrBit) {
	c.pending |= bit
	c.changed |= bit
}

// Flush emits every attribute in pending ∩ needed to the output encoder
// and clears those bits from pending, per the dirty-flag protocol.
func (c *Context) Flush(needed AttrBit) {
	if c.out == nil {
		return
	}
	toFlush := c.pending & needed
	if toFlush == 0 {
		return
	}
	if toFlush&AttrColor != 0 {
		c.out.SetColorAttribute(c.color)
	}
	if toFlush&AttrBlend != 0 {
		c.out.SetBlendAttribute(c.blend)
	}
	if toFlush&AttrLineStyle != 0 {
		c.out.SetLinestyleAttribute(c.stroke.Width, c.stroke.Cap, c.stroke.Join, c.stroke.MiterLimit, c.stroke.DashPhase, c.stroke.Dash)
	}
	if toFlush&AttrFont != 0 {
		c.out.SetFontAttribute(output.Font{Name: c.font.Family, Size: c.font.Size, Rotation: c.font.Rotation, OutlineWidth: c.font.OutlineWidth, LineSpacing: c.font.LineSpacing})
	}
	if toFlush&AttrJustify != 0 {
		c.out.SetJustifyAttribute(int(c.justify))
	}
	if toFlush&AttrClip != 0 {
		shapes := make([]output.Shape, len(c.clips))
		for i, cl := range c.clips {
			shapes[i] = output.Shape{SubPaths: cl.path.SubPaths(), Mode: cl.mode}
		}
		c.out.SetClipAttribute(shapes)
	}
	c.pending &^= toFlush
}

// Color returns the current drawing color.
func (c *Context) Color() output.Color { return c.color }

// Blend returns the current blend mode.
func (c *Context) Blend() string { return c.blend }

// Stroke returns the current stroke style.
func (c *Context) Stroke() StrokeStyle { return c.stroke }

// Font returns the current font style.
func (c *Context) Font() FontStyle { return c.font }

// Justify returns the current text justification bits.
func (c *Context) Justify() Justify { return c.justify }

// Clips returns the active clip path list, read-only.
func (c *Context) Clips() []*pathengine.Path {
	paths := make([]*pathengine.Path, len(c.clips))
	for i, cl := range c.clips {
		paths[i] = cl.path
	}
	return paths
}

// Output returns the encoder this frame draws through, or nil.
func (c *Context) Output() output.Encoder { return c.out }

// SetOutput installs out as this frame's output handle, marking this
// frame as the one that opened (and must eventually close) it.
func (c *Context) SetOutput(out output.Encoder) {
	c.out = out
	c.outputDefined = true
	c.pending = AttrAll
}

// OutputDefined reports whether this frame opened its own output handle.
func (c *Context) OutputDefined() bool { return c.outputDefined }

// CTM returns the current user-space transform.
func (c *Context) CTM() Matrix { return c.ctm }

// Scale composes a scale into the CTM and the cumulative scaling factor.
func (c *Context) Scale(sx, sy float64) {
	c.ctm = c.ctm.Scale(sx, sy)
	c.scaling *= (sx + sy) / 2
}

// Rotate composes a rotation into the CTM and the cumulative rotation.
func (c *Context) Rotate(radians float64) {
	c.ctm = c.ctm.Rotate(radians)
	c.rotation += radians
}

// Translate composes a translation into the CTM.
func (c *Context) Translate(dx, dy float64) {
	c.ctm = c.ctm.Translate(dx, dy)
}

// Rotation returns the cumulative rotation in radians.
func (c *Context) Rotation() float64 { return c.rotation }

// Scaling returns the cumulative scaling factor.
func (c *Context) Scaling() float64 { return c.scaling }

// SetCTM replaces the CTM outright, used when restoring saved state
// around a per-moveto call.
func (c *Context) SetCTM(m Matrix) { c.ctm = m }

// --- variable scoping ---

// DefineVariable writes name=v into this frame's local map.
func (c *Context) DefineVariable(name string, v value.Value) {
	c.vars[name] = v
}

// LookupLocal returns a value defined directly in this frame.
func (c *Context) LookupLocal(name string) (value.Value, bool) {
	v, ok := c.vars[name]
	return v, ok
}

// SetLocalScope marks name as locally-scoped in this frame, so that a
// ContextStack read stops here even if no value has been assigned yet.
func (c *Context) SetLocalScope(name string) {
	c.localScope[name] = true
}

// IsLocalScope reports whether name was declared local in this frame.
func (c *Context) IsLocalScope(name string) bool {
	return c.localScope[name]
}

// Dataset returns the handle open in this frame, if any.
func (c *Context) Dataset() interface{} { return c.dataset }

// SetDataset installs d as this frame's dataset handle.
func (c *Context) SetDataset(d interface{}) {
	c.dataset = d
	c.datasetDefined = true
}

// DatasetDefined reports whether this frame opened its own dataset.
func (c *Context) DatasetDefined() bool { return c.datasetDefined }
