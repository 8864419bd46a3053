package geom

import (
	"errors"
	"math"
	"testing"
)

func TestComputeGroupHullEmpty(t *testing.T) {
	_, err := ComputeGroupHull(nil, DefaultHullOptions())
	if !errors.Is(err, ErrNoPoints) {
		t.Fatalf("err = %v, want ErrNoPoints", err)
	}
}

func TestComputeGroupHullSinglePoint(t *testing.T) {
	opts := DefaultHullOptions()
	opts.MinEdgePadding = 10

	hull, err := ComputeGroupHull([]Point{{100, 50}}, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(hull) != 4 {
		t.Fatalf("len(hull) = %d, want 4", len(hull))
	}
	want := Rect{X: 90, Y: 40, Width: 20, Height: 20}
	if got := hull.Bounds(); got != want {
		t.Errorf("bounds = %+v, want %+v", got, want)
	}
}

func TestComputeGroupHullCollinear(t *testing.T) {
	tests := []struct {
		name   string
		points []Point
		angle  float64
	}{
		{"horizontal", []Point{{0, 0}, {100, 0}, {200, 0}}, 0},
		{"vertical", []Point{{5, 0}, {5, 100}, {5, 300}}, math.Pi / 2},
		{"diagonal", []Point{{0, 0}, {100, 100}, {200, 200}}, math.Pi / 4},
		{"two points", []Point{{0, 0}, {30, 40}}, math.Atan2(40, 30)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultHullOptions()
			hull, err := ComputeGroupHull(tt.points, opts)
			if err != nil {
				t.Fatal(err)
			}
			if len(hull) != 4 {
				t.Fatalf("len(hull) = %d, want 4", len(hull))
			}

			// Long axis of the rectangle follows the fitted line.
			e1 := hull[1].Sub(hull[0])
			e2 := hull[2].Sub(hull[1])
			long := e1
			if e2.Len() > e1.Len() {
				long = e2
			}
			got := math.Atan2(long.Y, long.X)
			if !sameAxis(got, tt.angle, 1e-6) {
				t.Errorf("long axis angle = %v, want %v", got, tt.angle)
			}

			for _, p := range tt.points {
				if !hull.Contains(p, 1e-9) {
					t.Errorf("hull does not contain %v", p)
				}
			}
		})
	}
}

func TestComputeGroupHullConvex(t *testing.T) {
	points := []Point{
		{0, 0}, {400, 0}, {400, 300}, {0, 300},
		{200, 150}, {100, 50}, {300, 250}, {200, 0},
	}
	opts := DefaultHullOptions()

	hull, err := ComputeGroupHull(points, opts)
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range points {
		if !hull.Contains(p, 1e-9) {
			t.Errorf("padded hull does not contain %v", p)
		}
	}

	raw := ConvexHull(points)
	if len(raw) != 4 {
		t.Fatalf("ConvexHull returned %d vertices, want 4: %v", len(raw), raw)
	}
	for _, v := range raw {
		if !containsPoint(points, v) {
			t.Errorf("hull vertex %v is not an input point", v)
		}
	}
	for _, p := range points {
		if !raw.Contains(p, 1e-9) {
			t.Errorf("unpadded hull does not contain %v", p)
		}
	}

	c := raw.Centroid()
	for i, v := range hull {
		want := c.Add(raw[i].Sub(c).Scale(1 + opts.PaddingFraction))
		if v.Dist(want) > 1e-9 {
			t.Errorf("vertex %d = %v, want %v", i, v, want)
		}
	}
}

func TestConvexHullDropsCollinearAndDuplicates(t *testing.T) {
	points := []Point{{0, 0}, {2, 0}, {2, 2}, {0, 2}, {0, 1}, {1, 0}, {2, 2}, {0, 0}}
	hull := ConvexHull(points)
	if len(hull) != 4 {
		t.Fatalf("len(hull) = %d, want 4: %v", len(hull), hull)
	}
	if hull[0] != (Point{0, 0}) {
		t.Errorf("start = %v, want lowest-leftmost point", hull[0])
	}
}

func TestFitLineThreshold(t *testing.T) {
	points := []Point{{0, 0}, {100, 10}, {200, 0}}
	if _, ok := FitLine(points, 20); !ok {
		t.Error("expected points within 20 to be collinear")
	}
	if _, ok := FitLine(points, 1); ok {
		t.Error("expected points to exceed threshold 1")
	}
}

func sameAxis(a, b, eps float64) bool {
	d := math.Mod(math.Abs(a-b), math.Pi)
	return d < eps || math.Pi-d < eps
}

func containsPoint(points []Point, p Point) bool {
	for _, q := range points {
		if q == p {
			return true
		}
	}
	return false
}
