// Built-in symbol shapes (§4.I): circle, ellipse, cylinder, raindrop,
// wedge, spiral, hexagon, pentagon, triangle, star, box, roundedbox,
// box3d. Each is appended to the current path, centred on the path's
// current cursor (set by a preceding `move`), following each shape's
// exact fixed control-point recipe.
package interp

import (
	"math"

	mapyruserr "mapyrus/internal/errors"
	"mapyrus/internal/pathengine"
)

func drawCircle(p *pathengine.Path, r float64) error {
	cx, cy := p.EndPoint().X, p.EndPoint().Y
	p.MoveTo(cx+r, cy)
	if err := p.ArcTo(1, cx, cy, cx-r, cy); err != nil {
		return err
	}
	return p.ArcTo(1, cx, cy, cx+r, cy)
}

func drawEllipse(p *pathengine.Path, rx, ry, rotation float64) {
	cx, cy := p.EndPoint().X, p.EndPoint().Y
	p.EllipseTo(cx-rx, cy-ry, cx+rx, cy+ry, rotation)
}

// drawRegularPolygon places n vertices at radius r starting at angle
// start (radians, measured the usual maths way, 0 = east, increasing
// counter-clockwise), closing the ring.
func drawRegularPolygon(p *pathengine.Path, n int, r, start float64) error {
	if n < 3 {
		return mapyruserr.New(mapyruserr.WrongParameters, "a polygon needs at least 3 sides")
	}
	cx, cy := p.EndPoint().X, p.EndPoint().Y
	for i := 0; i < n; i++ {
		a := start + 2*math.Pi*float64(i)/float64(n)
		x, y := cx+r*math.Cos(a), cy+r*math.Sin(a)
		if i == 0 {
			p.MoveTo(x, y)
		} else if err := p.LineTo(x, y); err != nil {
			return err
		}
	}
	p.ClosePath()
	return nil
}

// drawTriangle is equilateral, first vertex at angle pi/2 (straight up),
// per §4.I.
func drawTriangle(p *pathengine.Path, r float64) error {
	return drawRegularPolygon(p, 3, r, math.Pi/2)
}

func drawHexagon(p *pathengine.Path, r float64) error {
	return drawRegularPolygon(p, 6, r, math.Pi/2)
}

func drawPentagon(p *pathengine.Path, r float64) error {
	return drawRegularPolygon(p, 5, r, math.Pi/2)
}

// drawStar alternates outer vertices at radius r with inner vertices at
// distance r*sin(alpha/2)/sin(pi - alpha/2 - beta/2), where alpha is the
// angle at each point's tip and beta is the angle between adjacent
// points, per §4.I's exact recipe.
func drawStar(p *pathengine.Path, points int, r, alpha float64) error {
	if points < 2 {
		return mapyruserr.New(mapyruserr.WrongParameters, "a star needs at least 2 points")
	}
	beta := 2 * math.Pi / float64(points)
	innerR := r * math.Sin(alpha/2) / math.Sin(math.Pi-alpha/2-beta/2)
	cx, cy := p.EndPoint().X, p.EndPoint().Y
	total := points * 2
	for i := 0; i < total; i++ {
		a := math.Pi/2 + float64(i)*math.Pi/float64(points)
		radius := r
		if i%2 == 1 {
			radius = innerR
		}
		x, y := cx+radius*math.Cos(a), cy+radius*math.Sin(a)
		if i == 0 {
			p.MoveTo(x, y)
		} else if err := p.LineTo(x, y); err != nil {
			return err
		}
	}
	p.ClosePath()
	return nil
}

// drawBox appends an axis-aligned rectangle of the given width/height
// centred on the cursor.
func drawBox(p *pathengine.Path, width, height float64) error {
	cx, cy := p.EndPoint().X, p.EndPoint().Y
	x1, y1 := cx-width/2, cy-height/2
	x2, y2 := cx+width/2, cy+height/2
	p.MoveTo(x1, y1)
	if err := p.LineTo(x2, y1); err != nil {
		return err
	}
	if err := p.LineTo(x2, y2); err != nil {
		return err
	}
	if err := p.LineTo(x1, y2); err != nil {
		return err
	}
	p.ClosePath()
	return nil
}

// drawBox3D draws the box plus a "lid" and "side" face offset by depth,
// to give a simple extruded-box look: three subpaths (front, top, side).
func drawBox3D(p *pathengine.Path, width, height, depth float64) error {
	cx, cy := p.EndPoint().X, p.EndPoint().Y
	if err := drawBox(p, width, height); err != nil {
		return err
	}
	x1, y1 := cx-width/2, cy-height/2
	x2 := cx + width/2
	// top face
	p.MoveTo(x1, y1)
	if err := p.LineTo(x1+depth, y1-depth); err != nil {
		return err
	}
	if err := p.LineTo(x2+depth, y1-depth); err != nil {
		return err
	}
	if err := p.LineTo(x2, y1); err != nil {
		return err
	}
	p.ClosePath()
	// side face
	y2 := cy + height/2
	p.MoveTo(x2, y1)
	if err := p.LineTo(x2+depth, y1-depth); err != nil {
		return err
	}
	if err := p.LineTo(x2+depth, y2-depth); err != nil {
		return err
	}
	if err := p.LineTo(x2, y2); err != nil {
		return err
	}
	p.ClosePath()
	return nil
}

// drawRoundedBox appends a rectangle whose four corners are replaced by
// quarter-circle arcs of radius corner.
func drawRoundedBox(p *pathengine.Path, width, height, corner float64) error {
	cx, cy := p.EndPoint().X, p.EndPoint().Y
	x1, y1 := cx-width/2, cy-height/2
	x2, y2 := cx+width/2, cy+height/2
	if corner > width/2 {
		corner = width / 2
	}
	if corner > height/2 {
		corner = height / 2
	}
	p.MoveTo(x1+corner, y1)
	if err := p.LineTo(x2-corner, y1); err != nil {
		return err
	}
	if err := p.ArcTo(1, x2-corner, y1+corner, x2, y1+corner); err != nil {
		return err
	}
	if err := p.LineTo(x2, y2-corner); err != nil {
		return err
	}
	if err := p.ArcTo(1, x2-corner, y2-corner, x2-corner, y2); err != nil {
		return err
	}
	if err := p.LineTo(x1+corner, y2); err != nil {
		return err
	}
	if err := p.ArcTo(1, x1+corner, y2-corner, x1, y2-corner); err != nil {
		return err
	}
	if err := p.LineTo(x1, y1+corner); err != nil {
		return err
	}
	if err := p.ArcTo(1, x1+corner, y1+corner, x1+corner, y1); err != nil {
		return err
	}
	p.ClosePath()
	return nil
}

// drawCylinder approximates a cylinder symbol: an ellipse "cap" plus two
// vertical sides down to a second ellipse.
func drawCylinder(p *pathengine.Path, rx, ry, height float64) {
	cx, cy := p.EndPoint().X, p.EndPoint().Y
	p.EllipseTo(cx-rx, cy-ry, cx+rx, cy+ry, 0)
	p.MoveTo(cx-rx, cy)
	p.LineTo(cx-rx, cy+height)
	p.EllipseTo(cx-rx, cy+height-ry, cx+rx, cy+height+ry, 0)
	p.MoveTo(cx+rx, cy)
	p.LineTo(cx+rx, cy+height)
}

// drawRaindrop draws a teardrop: a circle with a triangular point
// extending upward by height.
func drawRaindrop(p *pathengine.Path, r, height float64) error {
	cx, cy := p.EndPoint().X, p.EndPoint().Y
	p.MoveTo(cx, cy-height)
	if err := p.LineTo(cx-r*0.8, cy-height*0.2); err != nil {
		return err
	}
	if err := p.ArcTo(1, cx, cy, cx+r*0.8, cy-height*0.2); err != nil {
		return err
	}
	p.ClosePath()
	return nil
}

// drawWedge draws a pie-slice of radius r spanning from startAngle to
// endAngle (radians), returning to the centre.
func drawWedge(p *pathengine.Path, r, startAngle, endAngle float64) error {
	cx, cy := p.EndPoint().X, p.EndPoint().Y
	sx, sy := cx+r*math.Cos(startAngle), cy+r*math.Sin(startAngle)
	ex, ey := cx+r*math.Cos(endAngle), cy+r*math.Sin(endAngle)
	p.MoveTo(cx, cy)
	if err := p.LineTo(sx, sy); err != nil {
		return err
	}
	direction := 1
	if endAngle < startAngle {
		direction = -1
	}
	if err := p.ArcTo(direction, cx, cy, ex, ey); err != nil {
		return err
	}
	p.ClosePath()
	return nil
}

// drawSpiral appends `turns` full revolutions of an Archimedean spiral
// growing from radius 0 to maxRadius, flattened into 24 segments per turn.
func drawSpiral(p *pathengine.Path, maxRadius, turns float64) error {
	cx, cy := p.EndPoint().X, p.EndPoint().Y
	const segmentsPerTurn = 24
	n := int(math.Round(turns * segmentsPerTurn))
	if n < 1 {
		n = 1
	}
	p.MoveTo(cx, cy)
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n)
		angle := t * turns * 2 * math.Pi
		r := t * maxRadius
		x, y := cx+r*math.Cos(angle), cy+r*math.Sin(angle)
		if err := p.LineTo(x, y); err != nil {
			return err
		}
	}
	return nil
}
