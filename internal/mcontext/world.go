package mcontext

import "math"

// WorldUnit names the coordinate system of a setWorlds rectangle.
type WorldUnit int

const (
	UnitMetres WorldUnit = iota
	UnitFeet
	UnitDegrees
)

// millimetresPerUnit reports how many real-world millimetres one world
// unit spans, used by WorldScale's reporting conversion.
func millimetresPerUnit(u WorldUnit) float64 {
	switch u {
	case UnitFeet:
		return 1000.0 / 0.3048
	case UnitDegrees:
		return 110000000.0
	default:
		return 1000.0
	}
}

// Rect is an axis-aligned rectangle, used both for world extents and
// page sub-rectangles.
type Rect struct {
	X1, Y1, X2, Y2 float64
}

func (r Rect) width() float64  { return r.X2 - r.X1 }
func (r Rect) height() float64 { return r.Y2 - r.Y1 }
func (r Rect) midX() float64   { return (r.X1 + r.X2) / 2 }
func (r Rect) midY() float64   { return (r.Y1 + r.Y2) / 2 }

// SetWorlds composes the world→page affine for world, to be drawn into
// the page sub-rectangle page (full page millimetres if zero-valued),
// in the given unit, honouring allowDistortion. When distortion is not
// allowed, the world rectangle is expanded on whichever axis has the
// smaller world-to-page ratio so its aspect matches the page region,
// keeping the world midpoint fixed.
func (c *Context) SetWorlds(world Rect, page Rect, unit WorldUnit, allowDistortion bool) {
	w := world
	if !allowDistortion && w.width() != 0 && w.height() != 0 && page.width() != 0 && page.height() != 0 {
		worldAspect := w.width() / w.height()
		pageAspect := page.width() / page.height()
		if worldAspect < pageAspect {
			// world is relatively taller than the page: widen it.
			newWidth := w.height() * pageAspect
			mid := w.midX()
			w.X1, w.X2 = mid-newWidth/2, mid+newWidth/2
		} else if worldAspect > pageAspect {
			// world is relatively wider than the page: heighten it.
			newHeight := w.width() / pageAspect
			mid := w.midY()
			w.Y1, w.Y2 = mid-newHeight/2, mid+newHeight/2
		}
	}

	sx := page.width() / nonZero(w.width())
	sy := page.height() / nonZero(w.height())
	m := Identity()
	m = m.Translate(-w.X1, -w.Y1)
	m = m.Scale(sx, sy)
	m = m.Translate(page.X1, page.Y1)

	c.worldCtm = &m
	c.worldExtents = w
	c.worldUnit = unit
	c.worldPage = page
}

func nonZero(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}

// WorldScale reports the ratio of one world unit to the current page
// scale, expressed in the convention §4.G describes: the world width in
// millimetres (via the unit's conversion factor) divided by the page
// width it's mapped onto.
func (c *Context) WorldScale() float64 {
	if c.worldCtm == nil || c.worldPage.width() == 0 {
		return 1
	}
	worldWidthMM := math.Abs(c.worldExtents.width()) * millimetresPerUnit(c.worldUnit)
	return worldWidthMM / c.worldPage.width()
}

// HasWorlds reports whether setWorlds has been called on this context or
// an ancestor it cloned from.
func (c *Context) HasWorlds() bool { return c.worldCtm != nil }

// WorldToPage transforms a point through the world CTM, failing with
// ZeroWorldRange-flavoured behaviour left to the caller (Context itself
// just returns the input unchanged when no world transform is set).
func (c *Context) WorldToPage(x, y float64) (float64, float64) {
	if c.worldCtm == nil {
		return x, y
	}
	return c.worldCtm.Transform(x, y)
}
