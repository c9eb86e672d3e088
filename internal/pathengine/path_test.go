package pathengine

import (
	"math"
	"testing"
)

func TestLineToWithoutMoveToFails(t *testing.T) {
	p := New()
	if err := p.LineTo(1, 1); err == nil {
		t.Fatal("expected NoMoveTo error")
	}
}

func TestMoveLineLength(t *testing.T) {
	p := New()
	p.MoveTo(0, 0)
	p.LineTo(3, 0)
	p.LineTo(3, 4)
	if got := p.Length(); !DoublesEqual(got, 7) {
		t.Fatalf("length = %v, want 7", got)
	}
	if got := p.MoveToCount(); got != 1 {
		t.Fatalf("moveToCount = %d, want 1", got)
	}
	if got := p.LineToCount(); got != 2 {
		t.Fatalf("lineToCount = %d, want 2", got)
	}
}

func TestAreaAndClockwise(t *testing.T) {
	p := New()
	p.MoveTo(0, 0)
	p.LineTo(10, 0)
	p.LineTo(10, 10)
	p.LineTo(0, 10)
	if got := p.Area(); !DoublesEqual(math.Abs(got), 100) {
		t.Fatalf("area = %v, want 100", got)
	}
	if got := p.Centroid(); !DoublesEqual(got.X, 5) || !DoublesEqual(got.Y, 5) {
		t.Fatalf("centroid = %v, want (5,5)", got)
	}
}

func TestGuillotineExactCorners(t *testing.T) {
	p := New()
	p.MoveTo(0, 0)
	p.LineTo(10, 0)
	p.LineTo(10, 10)
	p.LineTo(0, 10)
	p.Guillotine(2, 2, 8, 8)

	if len(p.subpaths) != 1 {
		t.Fatalf("expected one clipped subpath, got %d", len(p.subpaths))
	}
	want := map[[2]float64]bool{{2, 2}: true, {8, 2}: true, {8, 8}: true, {2, 8}: true}
	got := map[[2]float64]bool{}
	for _, pt := range p.subpaths[0].Points {
		got[[2]float64{pt.X, pt.Y}] = true
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 distinct corners, got %v", got)
	}
	for k := range want {
		if !got[k] {
			t.Fatalf("missing expected corner %v in %v", k, got)
		}
	}
}

func TestGuillotineFullyOutsideDropsSubpath(t *testing.T) {
	p := New()
	p.MoveTo(100, 100)
	p.LineTo(110, 100)
	p.LineTo(110, 110)
	p.Guillotine(0, 0, 10, 10)
	if !p.IsEmpty() {
		t.Fatal("expected path fully outside clip rectangle to be dropped")
	}
}

func TestSinkholeOnSquareReturnsInteriorPoint(t *testing.T) {
	p := New()
	p.MoveTo(0, 0)
	p.LineTo(20, 0)
	p.LineTo(20, 20)
	p.LineTo(0, 20)
	pt := p.Sinkhole()
	if pt.X < 0 || pt.X > 20 || pt.Y < 0 || pt.Y > 20 {
		t.Fatalf("sinkhole %v not inside polygon bounds", pt)
	}
}

func TestSinkholeEmptyPathReturnsBoundingBoxCentre(t *testing.T) {
	p := New()
	pt := p.Sinkhole()
	if pt != (Point{}) {
		t.Fatalf("empty path sinkhole = %v, want zero point", pt)
	}
}

func TestSamplePathSpacing(t *testing.T) {
	p := New()
	p.MoveTo(0, 0)
	p.LineTo(100, 0)
	p.SamplePath(10, 0)
	got := p.MoveToCount()
	want := 11 // 0,10,...,100
	if got != want {
		t.Fatalf("moveToCount after samplePath = %d, want %d", got, want)
	}
}

func TestReversePath(t *testing.T) {
	p := New()
	p.MoveTo(0, 0)
	p.LineTo(1, 1)
	p.LineTo(2, 2)
	start, end := p.StartPoint(), p.EndPoint()
	p.ReversePath()
	if got := p.StartPoint(); got != end {
		t.Fatalf("reversed start = %v, want %v", got, end)
	}
	if got := p.EndPoint(); got != start {
		t.Fatalf("reversed end = %v, want %v", got, start)
	}
}

func TestClearPath(t *testing.T) {
	p := New()
	p.MoveTo(1, 1)
	p.ClearPath()
	if !p.IsEmpty() {
		t.Fatal("expected empty path after clearPath")
	}
	if err := p.LineTo(1, 1); err == nil {
		t.Fatal("expected NoMoveTo after clearPath resets cursor")
	}
}

func TestArcToRequiresCursor(t *testing.T) {
	p := New()
	if err := p.ArcTo(1, 0, 0, 1, 1); err == nil {
		t.Fatal("expected NoArcStart error")
	}
}

func TestFmodNormalisesToPositiveRange(t *testing.T) {
	if got := Fmod(-1, 4); got < 0 || got >= 4 {
		t.Fatalf("fmod(-1,4) = %v, want in [0,4)", got)
	}
}
