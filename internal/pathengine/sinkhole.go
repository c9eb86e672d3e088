package pathengine

import "sync"

// sinkholeGridSize is the rasterisation resolution used by Sinkhole, and
// sinkholeNth selects the Nth-last pixel cleared by erosion as the
// representative point, per §4.F.
const (
	sinkholeGridSize = 64
	sinkholeNth      = 10
)

// sinkholeBuf is the shared 64x64 scratch buffer the concurrency model
// calls for: every interpreter clone computing a sinkhole borrows this
// one buffer rather than allocating its own, so only one sinkhole
// computation runs at a time process-wide.
var sinkholeBuf struct {
	mu   sync.Mutex
	grid [sinkholeGridSize][sinkholeGridSize]bool
}

// Sinkhole returns one representative interior point of the current
// polygon: the path is rasterised into a 64x64 mask, eroded by
// repeatedly clearing any set pixel with fewer than 4 set 4-neighbours,
// and the Nth-last pixel cleared (N=10) is taken as the result,
// transformed back into page coordinates. An empty raster (zero area)
// falls back to the bounding-box centre.
func (p *Path) Sinkhole() Point {
	xmin, ymin, xmax, ymax := p.BoundingBox()
	if xmax <= xmin || ymax <= ymin {
		return Point{(xmin + xmax) / 2, (ymin + ymax) / 2}
	}

	sinkholeBuf.mu.Lock()
	defer sinkholeBuf.mu.Unlock()
	grid := &sinkholeBuf.grid
	rasterize(p, grid, xmin, ymin, xmax, ymax)

	cleared := erode(grid)
	if len(cleared) < sinkholeNth {
		return Point{(xmin + xmax) / 2, (ymin + ymax) / 2}
	}
	pix := cleared[len(cleared)-sinkholeNth]
	return pixelToPage(pix, xmin, ymin, xmax, ymax)
}

type pixel struct{ row, col int }

func rasterize(p *Path, grid *[sinkholeGridSize][sinkholeGridSize]bool, xmin, ymin, xmax, ymax float64) {
	dx := (xmax - xmin) / sinkholeGridSize
	dy := (ymax - ymin) / sinkholeGridSize
	for r := 0; r < sinkholeGridSize; r++ {
		cy := ymin + dy*(float64(r)+0.5)
		for c := 0; c < sinkholeGridSize; c++ {
			cx := xmin + dx*(float64(c)+0.5)
			grid[r][c] = pointInPath(p, cx, cy)
		}
	}
}

// pointInPath applies the even-odd rule across every subpath, treating
// each as a closed ring regardless of its Closed flag, which supports
// polygons with holes expressed as separate subpaths.
func pointInPath(p *Path, x, y float64) bool {
	inside := false
	for _, sp := range p.subpaths {
		pts := sp.Points
		n := len(pts)
		if n < 3 {
			continue
		}
		for i, j := 0, n-1; i < n; j, i = i, i+1 {
			pi, pj := pts[i], pts[j]
			if (pi.Y > y) != (pj.Y > y) {
				xint := pj.X + (y-pj.Y)/(pi.Y-pj.Y)*(pi.X-pj.X)
				if x < xint {
					inside = !inside
				}
			}
		}
	}
	return inside
}

// erode repeatedly clears any set pixel with fewer than 4 set
// 4-neighbours, returning the pixels in the order they were cleared.
func erode(grid *[sinkholeGridSize][sinkholeGridSize]bool) []pixel {
	var cleared []pixel
	for {
		var toClear []pixel
		for r := 0; r < sinkholeGridSize; r++ {
			for c := 0; c < sinkholeGridSize; c++ {
				if !grid[r][c] {
					continue
				}
				if countNeighbours(grid, r, c) < 4 {
					toClear = append(toClear, pixel{r, c})
				}
			}
		}
		if len(toClear) == 0 {
			break
		}
		for _, px := range toClear {
			grid[px.row][px.col] = false
		}
		cleared = append(cleared, toClear...)
	}
	return cleared
}

func countNeighbours(grid *[sinkholeGridSize][sinkholeGridSize]bool, r, c int) int {
	n := 0
	if r > 0 && grid[r-1][c] {
		n++
	}
	if r < sinkholeGridSize-1 && grid[r+1][c] {
		n++
	}
	if c > 0 && grid[r][c-1] {
		n++
	}
	if c < sinkholeGridSize-1 && grid[r][c+1] {
		n++
	}
	return n
}

func pixelToPage(px pixel, xmin, ymin, xmax, ymax float64) Point {
	dx := (xmax - xmin) / sinkholeGridSize
	dy := (ymax - ymin) / sinkholeGridSize
	return Point{
		xmin + dx*(float64(px.col)+0.5),
		ymin + dy*(float64(px.row)+0.5),
	}
}
