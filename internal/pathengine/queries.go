package pathengine

import "math"

// MoveToCount returns the number of subpaths (each begins with one
// moveTo).
func (p *Path) MoveToCount() int { return len(p.subpaths) }

// LineToCount returns the total number of lineTo vertices across every
// subpath (a subpath of n points has n-1 lineTos).
func (p *Path) LineToCount() int {
	total := 0
	for _, sp := range p.subpaths {
		if len(sp.Points) > 1 {
			total += len(sp.Points) - 1
		}
	}
	return total
}

// Length returns the total flattened length of every subpath, including
// the closing edge of subpaths marked Closed.
func (p *Path) Length() float64 {
	total := 0.0
	for _, sp := range p.subpaths {
		total += subPathLength(sp)
	}
	return total
}

func subPathLength(sp SubPath) float64 {
	total := 0.0
	for i := 1; i < len(sp.Points); i++ {
		total += dist(sp.Points[i-1], sp.Points[i])
	}
	if sp.Closed && len(sp.Points) > 1 {
		total += dist(sp.Points[len(sp.Points)-1], sp.Points[0])
	}
	return total
}

func dist(a, b Point) float64 { return math.Hypot(b.X-a.X, b.Y-a.Y) }

// Area returns the signed area of the path treated as one or more closed
// rings, positive when counter-clockwise, via the shoelace formula. Open
// subpaths are treated as implicitly closed for the purpose of this
// calculation, matching the "polygon" use of the path.
func (p *Path) Area() float64 {
	total := 0.0
	for _, sp := range p.subpaths {
		total += ringArea(sp.Points)
	}
	return total
}

func ringArea(pts []Point) float64 {
	n := len(pts)
	if n < 3 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return sum / 2
}

// IsClockwise reports whether the path's signed area is negative (page
// coordinates are Y-down, so a positive shoelace sum is counter-clockwise
// per §4.F).
func (p *Path) IsClockwise() bool { return p.Area() < 0 }

// Centroid returns the area-weighted centroid of every ring; for an empty
// or zero-area path it returns (0,0).
func (p *Path) Centroid() Point {
	var cx, cy, areaSum float64
	for _, sp := range p.subpaths {
		a := ringArea(sp.Points)
		if a == 0 {
			continue
		}
		rx, ry := ringCentroid(sp.Points, a)
		cx += rx * a
		cy += ry * a
		areaSum += a
	}
	if areaSum == 0 {
		return Point{}
	}
	return Point{cx / areaSum, cy / areaSum}
}

func ringCentroid(pts []Point, area float64) (float64, float64) {
	n := len(pts)
	var cx, cy float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		cross := pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
		cx += (pts[i].X + pts[j].X) * cross
		cy += (pts[i].Y + pts[j].Y) * cross
	}
	return cx / (6 * area), cy / (6 * area)
}

// BoundingBox returns (xmin,ymin,xmax,ymax) across every vertex. An empty
// path yields all zeros.
func (p *Path) BoundingBox() (xmin, ymin, xmax, ymax float64) {
	first := true
	for _, sp := range p.subpaths {
		for _, pt := range sp.Points {
			if first {
				xmin, xmax = pt.X, pt.X
				ymin, ymax = pt.Y, pt.Y
				first = false
				continue
			}
			xmin = math.Min(xmin, pt.X)
			xmax = math.Max(xmax, pt.X)
			ymin = math.Min(ymin, pt.Y)
			ymax = math.Max(ymax, pt.Y)
		}
	}
	return
}

// StartPoint returns the first vertex of the first subpath.
func (p *Path) StartPoint() Point {
	if len(p.subpaths) == 0 || len(p.subpaths[0].Points) == 0 {
		return Point{}
	}
	return p.subpaths[0].Points[0]
}

// EndPoint returns the last vertex of the last subpath.
func (p *Path) EndPoint() Point {
	if len(p.subpaths) == 0 {
		return Point{}
	}
	last := p.subpaths[len(p.subpaths)-1].Points
	if len(last) == 0 {
		return Point{}
	}
	return last[len(last)-1]
}

// StartAngle returns the tangent direction (radians) of the first segment
// of the first subpath.
func (p *Path) StartAngle() float64 {
	if len(p.subpaths) == 0 || len(p.subpaths[0].Points) < 2 {
		return 0
	}
	pts := p.subpaths[0].Points
	return angleBetween(pts[0], pts[1])
}

// EndAngle returns the tangent direction of the last segment of the last
// subpath.
func (p *Path) EndAngle() float64 {
	if len(p.subpaths) == 0 {
		return 0
	}
	pts := p.subpaths[len(p.subpaths)-1].Points
	if len(pts) < 2 {
		return 0
	}
	return angleBetween(pts[len(pts)-2], pts[len(pts)-1])
}

func angleBetween(a, b Point) float64 {
	return math.Atan2(b.Y-a.Y, b.X-a.X)
}

// MoveTos returns the moveTo point of every subpath, in order.
func (p *Path) MoveTos() []Point {
	out := make([]Point, 0, len(p.subpaths))
	for _, sp := range p.subpaths {
		if len(sp.Points) > 0 {
			out = append(out, sp.Points[0])
		}
	}
	return out
}

// MoveToRotations returns the Angle recorded against every subpath, in
// order — meaningful for paths produced by SamplePath, zero otherwise.
func (p *Path) MoveToRotations() []float64 {
	out := make([]float64, 0, len(p.subpaths))
	for _, sp := range p.subpaths {
		out = append(out, sp.Angle)
	}
	return out
}
