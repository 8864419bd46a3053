package geom

import (
	"math"
	"strings"
	"testing"
)

func TestRoundPolygonCorners(t *testing.T) {
	square := Polygon{{0, 0}, {100, 0}, {100, 100}, {0, 100}}
	segs := RoundPolygonCorners(square, 10)

	if len(segs) != 2*len(square)+1 {
		t.Fatalf("len(segs) = %d, want %d", len(segs), 2*len(square)+1)
	}
	if segs[0].Op != MoveTo || segs[len(segs)-1].Op != Close {
		t.Fatalf("path must start with M and end with Z, got %s ... %s", segs[0].Op, segs[len(segs)-1].Op)
	}

	// First corner at (0,0): previous vertex (0,100), next (100,0).
	if got, want := segs[0].Points[0], (Point{0, 10}); got.Dist(want) > 1e-9 {
		t.Errorf("first tangent point = %v, want %v", got, want)
	}
	curve := segs[1]
	if curve.Op != CubicTo || len(curve.Points) != 3 {
		t.Fatalf("segment 1 = %+v, want cubic", curve)
	}
	if got, want := curve.Points[2], (Point{10, 0}); got.Dist(want) > 1e-9 {
		t.Errorf("curve end = %v, want %v", got, want)
	}
	if got, want := curve.Points[0], (Point{0, 10 - 10*bezierCircle}); got.Dist(want) > 1e-9 {
		t.Errorf("first handle = %v, want %v", got, want)
	}
}

func TestRoundPolygonCornersCapsRadius(t *testing.T) {
	thin := Polygon{{0, 0}, {10, 0}, {10, 200}, {0, 200}}
	segs := RoundPolygonCorners(thin, 50)

	// The cut at every corner is at most half the shorter edge (5).
	for _, s := range segs {
		if s.Op != CubicTo {
			continue
		}
		h1, end := s.Points[0], s.Points[2]
		if d := h1.Dist(end); d > 10+1e-9 {
			t.Errorf("corner span %v exceeds shorter edge", d)
		}
	}
	start := segs[0].Points[0]
	if math.Abs(start.Y-5) > 1e-9 || start.X != 0 {
		t.Errorf("start = %v, want (0,5)", start)
	}
}

func TestRoundPolygonCornersZeroRadius(t *testing.T) {
	tri := Polygon{{0, 0}, {10, 0}, {5, 5}}
	got := PathData(RoundPolygonCorners(tri, 0))
	want := "M 0 0 L 10 0 L 5 5 Z"
	if got != want {
		t.Errorf("PathData = %q, want %q", got, want)
	}
}

func TestPathData(t *testing.T) {
	segs := []PathSegment{
		{Op: MoveTo, Points: []Point{{1.234, -0.001}}},
		{Op: CubicTo, Points: []Point{{1, 2}, {3, 4}, {5.5, 6}}},
		{Op: Close},
	}
	got := PathData(segs)
	want := "M 1.23 0 C 1 2, 3 4, 5.5 6 Z"
	if got != want {
		t.Errorf("PathData = %q, want %q", got, want)
	}
	if strings.Contains(got, "-0") {
		t.Errorf("negative zero leaked into %q", got)
	}
}
