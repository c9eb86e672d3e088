package pathengine

import (
	"math"

	mapyruserr "mapyrus/internal/errors"
)

// SamplePath replaces the path with isolated moveTo points spaced every
// spacing units along its flattened length, the first at offset, each
// tagged with the tangent angle of the original path at that arc-length
// parameter.
func (p *Path) SamplePath(spacing, offset float64) {
	if spacing <= 0 {
		return
	}
	var out []SubPath
	for _, sp := range p.subpaths {
		out = append(out, sampleSubPath(sp, spacing, offset)...)
	}
	p.subpaths = out
	if len(out) > 0 {
		pt := out[len(out)-1].Points[0]
		p.cursor = pt
		p.haveCursor = true
	} else {
		p.haveCursor = false
	}
}

func sampleSubPath(sp SubPath, spacing, offset float64) []SubPath {
	segs := segmentsOf(sp)
	total := 0.0
	for _, s := range segs {
		total += s.length
	}
	var out []SubPath
	for d := offset; d <= total+epsilon; d += spacing {
		pt, angle := pointAtDistance(segs, d)
		out = append(out, SubPath{Points: []Point{pt}, Angle: angle})
	}
	return out
}

type segment struct {
	a, b   Point
	length float64
}

func segmentsOf(sp SubPath) []segment {
	var segs []segment
	for i := 1; i < len(sp.Points); i++ {
		a, b := sp.Points[i-1], sp.Points[i]
		segs = append(segs, segment{a, b, dist(a, b)})
	}
	if sp.Closed && len(sp.Points) > 1 {
		a, b := sp.Points[len(sp.Points)-1], sp.Points[0]
		segs = append(segs, segment{a, b, dist(a, b)})
	}
	return segs
}

func pointAtDistance(segs []segment, d float64) (Point, float64) {
	if len(segs) == 0 {
		return Point{}, 0
	}
	remaining := d
	for _, s := range segs {
		if remaining <= s.length || s == segs[len(segs)-1] {
			t := 0.0
			if s.length > epsilon {
				t = remaining / s.length
			}
			t = math.Max(0, math.Min(1, t))
			x := s.a.X + (s.b.X-s.a.X)*t
			y := s.a.Y + (s.b.Y-s.a.Y)*t
			return Point{x, y}, angleBetween(s.a, s.b)
		}
		remaining -= s.length
	}
	last := segs[len(segs)-1]
	return last.b, angleBetween(last.a, last.b)
}

// StripePath replaces a polygon with a set of parallel lineTo segments
// ("hatching") covering it at the given spacing and angle (radians, 0 =
// horizontal). Implemented by rotating the polygon so the stripe
// direction is horizontal, scanning rows at the requested spacing, and
// pairing row/edge intersections by the even-odd rule.
func (p *Path) StripePath(spacing, angle float64) {
	if spacing <= 0 {
		return
	}
	sinr, cosr := math.Sin(-angle), math.Cos(-angle)
	rotate := func(pt Point) Point {
		return Point{pt.X*cosr - pt.Y*sinr, pt.X*sinr + pt.Y*cosr}
	}
	unrotateSin, unrotateCos := math.Sin(angle), math.Cos(angle)
	unrotate := func(pt Point) Point {
		return Point{pt.X*unrotateCos - pt.Y*unrotateSin, pt.X*unrotateSin + pt.Y*unrotateCos}
	}

	var rotated [][]Point
	ymin, ymax := math.Inf(1), math.Inf(-1)
	for _, sp := range p.subpaths {
		ring := make([]Point, len(sp.Points))
		for i, pt := range sp.Points {
			ring[i] = rotate(pt)
			ymin = math.Min(ymin, ring[i].Y)
			ymax = math.Max(ymax, ring[i].Y)
		}
		rotated = append(rotated, ring)
	}
	if len(rotated) == 0 {
		return
	}

	var out []SubPath
	for y := ymin; y <= ymax; y += spacing {
		var xs []float64
		for _, ring := range rotated {
			n := len(ring)
			for i := 0; i < n; i++ {
				a, b := ring[i], ring[(i+1)%n]
				if (a.Y <= y && b.Y > y) || (b.Y <= y && a.Y > y) {
					t := (y - a.Y) / (b.Y - a.Y)
					xs = append(xs, a.X+(b.X-a.X)*t)
				}
			}
		}
		sortFloats(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			start := unrotate(Point{xs[i], y})
			end := unrotate(Point{xs[i+1], y})
			out = append(out, SubPath{Points: []Point{start, end}})
		}
	}
	p.subpaths = out
	if len(out) > 0 {
		last := out[len(out)-1].Points
		p.cursor = last[len(last)-1]
		p.haveCursor = true
	} else {
		p.haveCursor = false
	}
}

func sortFloats(xs []float64) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j-1] > xs[j]; j-- {
			xs[j-1], xs[j] = xs[j], xs[j-1]
		}
	}
}

// ParallelPath replaces the path with one offset copy per signed
// distance in distances (right-hand positive), each vertex displaced
// along the averaged normal of its two adjacent segments — an
// approximate miter join, adequate for the short, mostly-straight runs
// Mapyrus symbolisation produces.
func (p *Path) ParallelPath(distances []float64) {
	var out []SubPath
	for _, d := range distances {
		for _, sp := range p.subpaths {
			out = append(out, offsetSubPath(sp, d))
		}
	}
	p.subpaths = out
	if len(out) > 0 {
		last := out[len(out)-1].Points
		p.cursor = last[len(last)-1]
		p.haveCursor = true
	}
}

func offsetSubPath(sp SubPath, d float64) SubPath {
	n := len(sp.Points)
	if n == 0 {
		return sp
	}
	out := SubPath{Closed: sp.Closed, Points: make([]Point, n)}
	for i := 0; i < n; i++ {
		var prevDir, nextDir Point
		havePrev, haveNext := false, false
		if i > 0 {
			prevDir = direction(sp.Points[i-1], sp.Points[i])
			havePrev = true
		} else if sp.Closed {
			prevDir = direction(sp.Points[n-1], sp.Points[i])
			havePrev = true
		}
		if i < n-1 {
			nextDir = direction(sp.Points[i], sp.Points[i+1])
			haveNext = true
		} else if sp.Closed {
			nextDir = direction(sp.Points[i], sp.Points[0])
			haveNext = true
		}
		nx, ny := 0.0, 0.0
		switch {
		case havePrev && haveNext:
			nx, ny = (rightNormalX(prevDir)+rightNormalX(nextDir))/2, (rightNormalY(prevDir)+rightNormalY(nextDir))/2
		case havePrev:
			nx, ny = rightNormalX(prevDir), rightNormalY(prevDir)
		case haveNext:
			nx, ny = rightNormalX(nextDir), rightNormalY(nextDir)
		}
		norm := math.Hypot(nx, ny)
		if norm > epsilon {
			nx, ny = nx/norm, ny/norm
		}
		out.Points[i] = Point{sp.Points[i].X + nx*d, sp.Points[i].Y + ny*d}
	}
	return out
}

func direction(a, b Point) Point {
	l := dist(a, b)
	if l < epsilon {
		return Point{}
	}
	return Point{(b.X - a.X) / l, (b.Y - a.Y) / l}
}

func rightNormalX(dir Point) float64 { return dir.Y }
func rightNormalY(dir Point) float64 { return -dir.X }

// SelectPath picks sub-arcs of the path by arc-length parameters: the
// i'th selection starts at offsets[i] and runs for lengths[i] along the
// path's total flattened length, each becoming its own subpath in the
// result.
func (p *Path) SelectPath(offsets, lengths []float64) error {
	if len(offsets) != len(lengths) {
		return mapyruserr.New(mapyruserr.WrongParameters, "selectPath requires matching offsets and lengths")
	}
	var allSegs []segment
	for _, sp := range p.subpaths {
		allSegs = append(allSegs, segmentsOf(sp)...)
	}
	var out []SubPath
	for i := range offsets {
		sub := sliceByArcLength(allSegs, offsets[i], lengths[i])
		if len(sub) > 0 {
			out = append(out, sub)
		}
	}
	p.subpaths = out
	if len(out) > 0 {
		last := out[len(out)-1].Points
		p.cursor = last[len(last)-1]
		p.haveCursor = true
	}
	return nil
}

func sliceByArcLength(segs []segment, offset, length float64) SubPath {
	var pts []Point
	traveled := 0.0
	end := offset + length
	for _, s := range segs {
		segStart, segEnd := traveled, traveled+s.length
		traveled = segEnd
		if segEnd < offset || segStart > end {
			continue
		}
		lo := math.Max(0, (offset-segStart)/maxEps(s.length))
		hi := math.Min(1, (end-segStart)/maxEps(s.length))
		if lo > hi {
			continue
		}
		a := Point{s.a.X + (s.b.X-s.a.X)*lo, s.a.Y + (s.b.Y-s.a.Y)*lo}
		b := Point{s.a.X + (s.b.X-s.a.X)*hi, s.a.Y + (s.b.Y-s.a.Y)*hi}
		if len(pts) == 0 {
			pts = append(pts, a)
		}
		pts = append(pts, b)
	}
	return SubPath{Points: pts}
}

func maxEps(v float64) float64 {
	if v < epsilon {
		return epsilon
	}
	return v
}
