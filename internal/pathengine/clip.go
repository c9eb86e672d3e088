package pathengine

import "math"

// Guillotine clips the path against the axis-aligned rectangle
// (x1,y1)-(x2,y2) using Sutherland–Hodgman, one subpath at a time. A
// subpath entirely outside the rectangle's bounding test is dropped
// without running the clipper; one entirely inside is kept unchanged.
// Point-only subpaths (a moveTo with no lineTo) are kept only if the
// single point falls inside.
func (p *Path) Guillotine(x1, y1, x2, y2 float64) {
	xmin, xmax := math.Min(x1, x2), math.Max(x1, x2)
	ymin, ymax := math.Min(y1, y2), math.Max(y1, y2)

	var out []SubPath
	for _, sp := range p.subpaths {
		if len(sp.Points) == 1 {
			pt := sp.Points[0]
			if pt.X >= xmin && pt.X <= xmax && pt.Y >= ymin && pt.Y <= ymax {
				out = append(out, sp)
			}
			continue
		}

		bxmin, bymin, bxmax, bymax := ringBounds(sp.Points)
		if bxmax < xmin || bxmin > xmax || bymax < ymin || bymin > ymax {
			continue // fully outside
		}
		if bxmin >= xmin && bxmax <= xmax && bymin >= ymin && bymax <= ymax {
			out = append(out, sp) // fully inside
			continue
		}

		clipped := sutherlandHodgman(sp.Points, xmin, ymin, xmax, ymax)
		if len(clipped) > 0 {
			out = append(out, SubPath{Points: clipped, Closed: true})
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

func ringBounds(pts []Point) (xmin, ymin, xmax, ymax float64) {
	xmin, xmax = pts[0].X, pts[0].X
	ymin, ymax = pts[0].Y, pts[0].Y
	for _, pt := range pts[1:] {
		xmin = math.Min(xmin, pt.X)
		xmax = math.Max(xmax, pt.X)
		ymin = math.Min(ymin, pt.Y)
		ymax = math.Max(ymax, pt.Y)
	}
	return
}

// sutherlandHodgman clips a (possibly unclosed) ring against an
// axis-aligned rectangle, one edge of the rectangle at a time.
func sutherlandHodgman(subject []Point, xmin, ymin, xmax, ymax float64) []Point {
	edges := []struct {
		inside func(Point) bool
		isect  func(a, b Point) Point
	}{
		{func(p Point) bool { return p.X >= xmin }, func(a, b Point) Point { return xIntersect(a, b, xmin) }},
		{func(p Point) bool { return p.X <= xmax }, func(a, b Point) Point { return xIntersect(a, b, xmax) }},
		{func(p Point) bool { return p.Y >= ymin }, func(a, b Point) Point { return yIntersect(a, b, ymin) }},
		{func(p Point) bool { return p.Y <= ymax }, func(a, b Point) Point { return yIntersect(a, b, ymax) }},
	}

	output := subject
	for _, edge := range edges {
		if len(output) == 0 {
			break
		}
		input := output
		output = nil
		n := len(input)
		for i := 0; i < n; i++ {
			cur := input[i]
			prev := input[(i-1+n)%n]
			curIn := edge.inside(cur)
			prevIn := edge.inside(prev)
			if curIn {
				if !prevIn {
					output = append(output, edge.isect(prev, cur))
				}
				output = append(output, cur)
			} else if prevIn {
				output = append(output, edge.isect(prev, cur))
			}
		}
	}
	return output
}

func xIntersect(a, b Point, x float64) Point {
	t := (x - a.X) / (b.X - a.X)
	return Point{x, a.Y + (b.Y-a.Y)*t}
}

func yIntersect(a, b Point, y float64) Point {
	t := (y - a.Y) / (b.Y - a.Y)
	return Point{a.X + (b.X-a.X)*t, y}
}
