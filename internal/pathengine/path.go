// Package pathengine implements the geometric path described in §4.F:
// move/line/arc/curve/ellipse construction, sampling and striping,
// parallel offset, selection, clipping and the sinkhole interior-point
// algorithm. All coordinates a Path receives are already in page
// millimetres — the world/user/page CTM composition is mcontext's job,
// not this package's; Path only ever sees the final page-space numbers.
//
// The struct layout (one small type per concern, exported methods
// validating their own preconditions and returning a
// *mapyruserr.MapyrusError on failure) keeps data structures thin and
// puts behaviour in small top-level functions rather than a large
// "manager" object.
package pathengine

import (
	"math"

	mapyruserr "mapyrus/internal/errors"
)

// Point is one page-space coordinate pair.
type Point struct {
	X, Y float64
}

// SubPath is one contiguous run of the path: a MoveTo followed by zero or
// more LineTos. Angle is only meaningful for the single-point subpaths
// samplePath produces, where it carries the tangent direction at that
// sample (see moveToRotations).
type SubPath struct {
	Points []Point
	Closed bool
	Angle  float64
}

// Path is the mutable geometric object every drawing and measurement
// command operates on. The zero value is an empty, cursor-less path.
type Path struct {
	subpaths   []SubPath
	cursor     Point
	haveCursor bool
}

// New returns an empty path.
func New() *Path {
	return &Path{}
}

// Clone deep-copies the path, used by Context's copy-on-write path
// inheritance.
func (p *Path) Clone() *Path {
	out := &Path{cursor: p.cursor, haveCursor: p.haveCursor}
	out.subpaths = make([]SubPath, len(p.subpaths))
	for i, sp := range p.subpaths {
		out.subpaths[i] = SubPath{Closed: sp.Closed, Angle: sp.Angle, Points: append([]Point(nil), sp.Points...)}
	}
	return out
}

// IsEmpty reports whether the path has no subpaths at all.
func (p *Path) IsEmpty() bool { return len(p.subpaths) == 0 }

// SubPaths exposes the subpath list read-only, for encoders and geometry
// conversion.
func (p *Path) SubPaths() []SubPath { return p.subpaths }

func (p *Path) last() *SubPath {
	if len(p.subpaths) == 0 {
		return nil
	}
	return &p.subpaths[len(p.subpaths)-1]
}

// MoveTo starts a new subpath at (x,y).
func (p *Path) MoveTo(x, y float64) {
	p.subpaths = append(p.subpaths, SubPath{Points: []Point{{x, y}}})
	p.cursor = Point{x, y}
	p.haveCursor = true
}

// LineTo appends a straight segment to the current subpath.
func (p *Path) LineTo(x, y float64) error {
	if !p.haveCursor {
		return mapyruserr.New(mapyruserr.NoMoveTo, "lineTo with no preceding moveTo")
	}
	sp := p.last()
	sp.Points = append(sp.Points, Point{x, y})
	p.cursor = Point{x, y}
	return nil
}

// RLineTo appends a segment relative to the current cursor; dx,dy are
// already expressed in page millimetres by the caller.
func (p *Path) RLineTo(dx, dy float64) error {
	if !p.haveCursor {
		return mapyruserr.New(mapyruserr.NoMoveTo, "rlineTo with no preceding moveTo")
	}
	return p.LineTo(p.cursor.X+dx, p.cursor.Y+dy)
}

// ArcTo flattens a circular arc from the current cursor around (cx,cy) to
// (ex,ey) into line segments appended to the current subpath. direction
// is +1 for clockwise, -1 for counter-clockwise, in page coordinates
// (Y-down screen sense).
func (p *Path) ArcTo(direction int, cx, cy, ex, ey float64) error {
	if !p.haveCursor {
		return mapyruserr.New(mapyruserr.NoArcStart, "arcTo with no current path position")
	}
	start := p.cursor
	r := math.Hypot(start.X-cx, start.Y-cy)
	if r < epsilon {
		return mapyruserr.New(mapyruserr.WrongCoordinate, "arcTo centre coincides with start point")
	}
	a0 := math.Atan2(start.Y-cy, start.X-cx)
	a1 := math.Atan2(ey-cy, ex-cx)
	if direction >= 0 {
		for a1 < a0 {
			a1 += 2 * math.Pi
		}
	} else {
		for a1 > a0 {
			a1 -= 2 * math.Pi
		}
	}
	sweep := a1 - a0
	segments := arcSegmentCount(sweep)
	sp := p.last()
	for i := 1; i <= segments; i++ {
		t := a0 + sweep*float64(i)/float64(segments)
		sp.Points = append(sp.Points, Point{cx + r*math.Cos(t), cy + r*math.Sin(t)})
	}
	p.cursor = Point{ex, ey}
	return nil
}

func arcSegmentCount(sweep float64) int {
	n := int(math.Abs(sweep) / (math.Pi / 36))
	if n < 4 {
		n = 4
	}
	return n
}

// CurveTo flattens a cubic Bézier from the current cursor through the two
// control points to (ex,ey).
func (p *Path) CurveTo(c1x, c1y, c2x, c2y, ex, ey float64) error {
	if !p.haveCursor {
		return mapyruserr.New(mapyruserr.NoBezierStart, "curveTo with no current path position")
	}
	const n = 20
	p0 := p.cursor
	sp := p.last()
	for i := 1; i <= n; i++ {
		t := float64(i) / n
		mt := 1 - t
		x := mt*mt*mt*p0.X + 3*mt*mt*t*c1x + 3*mt*t*t*c2x + t*t*t*ex
		y := mt*mt*mt*p0.Y + 3*mt*mt*t*c1y + 3*mt*t*t*c2y + t*t*t*ey
		sp.Points = append(sp.Points, Point{x, y})
	}
	p.cursor = Point{ex, ey}
	return nil
}

// EllipseTo appends a closed elliptical subpath inscribed in the given
// box, rotated by rotation radians about its centre (the caller supplies
// the current CTM rotation).
func (p *Path) EllipseTo(xmin, ymin, xmax, ymax, rotation float64) {
	const n = 72
	cx, cy := (xmin+xmax)/2, (ymin+ymax)/2
	rx, ry := (xmax-xmin)/2, (ymax-ymin)/2
	sinr, cosr := math.Sin(rotation), math.Cos(rotation)
	sp := SubPath{Closed: true}
	for i := 0; i < n; i++ {
		t := 2 * math.Pi * float64(i) / n
		ex, ey := rx*math.Cos(t), ry*math.Sin(t)
		x := cx + ex*cosr - ey*sinr
		y := cy + ex*sinr + ey*cosr
		sp.Points = append(sp.Points, Point{x, y})
	}
	p.subpaths = append(p.subpaths, sp)
	last := sp.Points[len(sp.Points)-1]
	p.cursor = last
	p.haveCursor = true
}

// SineWaveTo produces repeats*20 linear segments tracing a sine wave from
// the current point to (x,y), amplitude applied perpendicular to the
// straight baseline between the two points.
func (p *Path) SineWaveTo(x, y, repeats, amplitude float64) error {
	if !p.haveCursor {
		return mapyruserr.New(mapyruserr.NoSineWaveStart, "sineWaveTo with no current path position")
	}
	const samplesPerCycle = 20
	start := p.cursor
	dx, dy := x-start.X, y-start.Y
	baseLen := math.Hypot(dx, dy)
	if baseLen < epsilon {
		return mapyruserr.New(mapyruserr.WrongCoordinate, "sineWaveTo endpoint coincides with start")
	}
	ux, uy := dx/baseLen, dy/baseLen
	nx, ny := -uy, ux
	n := int(math.Round(repeats * samplesPerCycle))
	if n < 1 {
		n = 1
	}
	sp := p.last()
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n)
		baseX := start.X + dx*t
		baseY := start.Y + dy*t
		phase := 2 * math.Pi * repeats * t
		off := amplitude * math.Sin(phase)
		sp.Points = append(sp.Points, Point{baseX + nx*off, baseY + ny*off})
	}
	p.cursor = Point{x, y}
	return nil
}

// ReversePath reverses the direction of every subpath and the order in
// which they appear.
func (p *Path) ReversePath() {
	n := len(p.subpaths)
	for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
		p.subpaths[i], p.subpaths[j] = p.subpaths[j], p.subpaths[i]
	}
	for i := range p.subpaths {
		pts := p.subpaths[i].Points
		for a, b := 0, len(pts)-1; a < b; a, b = a+1, b-1 {
			pts[a], pts[b] = pts[b], pts[a]
		}
	}
	if n > 0 {
		last := p.subpaths[n-1].Points
		p.cursor = last[len(last)-1]
		p.haveCursor = true
	}
}

// ClosePath marks the current subpath closed.
func (p *Path) ClosePath() {
	if sp := p.last(); sp != nil {
		sp.Closed = true
	}
}

// ClearPath discards all subpaths and the cursor.
func (p *Path) ClearPath() {
	p.subpaths = nil
	p.cursor = Point{}
	p.haveCursor = false
}

// TranslatePath adds (dx,dy) — already scaled/rotated through the CTM by
// the caller — to every vertex of every subpath.
func (p *Path) TranslatePath(dx, dy float64) {
	for i := range p.subpaths {
		pts := p.subpaths[i].Points
		for j := range pts {
			pts[j].X += dx
			pts[j].Y += dy
		}
	}
	if p.haveCursor {
		p.cursor.X += dx
		p.cursor.Y += dy
	}
}
