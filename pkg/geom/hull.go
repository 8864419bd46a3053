package geom

import (
	"errors"
	"math"
	"sort"
)

// ErrNoPoints is returned when a hull is requested for an empty point set.
var ErrNoPoints = errors.New("geom: no points")

// HullOptions controls [ComputeGroupHull].
type HullOptions struct {
	// PaddingFraction scales the convex hull outward from its centroid by
	// 1+PaddingFraction.
	PaddingFraction float64 `json:"padding_fraction" toml:"padding_fraction"`

	// MinEdgePadding is the padding applied around a single point and on
	// every side of the rectangle drawn for collinear points.
	MinEdgePadding float64 `json:"min_edge_padding" toml:"min_edge_padding"`

	// CollinearThreshold is the largest perpendicular distance from the
	// fitted line at which points still count as collinear.
	CollinearThreshold float64 `json:"collinear_threshold" toml:"collinear_threshold"`
}

// Default hull parameters.
const (
	DefaultPaddingFraction    = 0.075
	DefaultMinEdgePadding     = 25
	DefaultCollinearThreshold = 50
)

// DefaultHullOptions returns the hull parameters used when none are configured.
func DefaultHullOptions() HullOptions {
	return HullOptions{
		PaddingFraction:    DefaultPaddingFraction,
		MinEdgePadding:     DefaultMinEdgePadding,
		CollinearThreshold: DefaultCollinearThreshold,
	}
}

// ComputeGroupHull returns a padded polygon enclosing every point.
//
// A single point yields an axis-aligned box padded by MinEdgePadding. Points
// lying within CollinearThreshold of their least-squares line (always the
// case for two points) yield a rectangle rotated onto that line. Any other
// set yields its convex hull scaled by 1+PaddingFraction about the hull
// centroid.
func ComputeGroupHull(points []Point, opts HullOptions) (Polygon, error) {
	switch len(points) {
	case 0:
		return nil, ErrNoPoints
	case 1:
		return AxisAlignedBoundingBox(points, opts.MinEdgePadding).Corners(), nil
	}

	if line, ok := FitLine(points, opts.CollinearThreshold); ok {
		return RotatedBoundingBox(points, line, opts.MinEdgePadding), nil
	}

	hull := ConvexHull(points)
	if len(hull) < 3 {
		// Residuals exceeded the threshold but the scan still collapsed.
		line, _ := FitLine(points, math.Inf(1))
		return RotatedBoundingBox(points, line, opts.MinEdgePadding), nil
	}
	return hull.ScaleFrom(hull.Centroid(), 1+opts.PaddingFraction), nil
}

// Line is a fitted line through Origin with direction Angle (radians).
type Line struct {
	Origin Point
	Angle  float64
}

// Direction returns the unit vector along the line.
func (l Line) Direction() Point { return Point{math.Cos(l.Angle), math.Sin(l.Angle)} }

// Normal returns the unit vector perpendicular to the line.
func (l Line) Normal() Point { return Point{-math.Sin(l.Angle), math.Cos(l.Angle)} }

// FitLine fits an orthogonal least-squares line through points and reports
// whether every point lies within threshold of it. The orthogonal fit has
// no special case for vertical lines.
func FitLine(points []Point, threshold float64) (Line, bool) {
	c := Polygon(points).Centroid()
	var sxx, syy, sxy float64
	for _, p := range points {
		d := p.Sub(c)
		sxx += d.X * d.X
		syy += d.Y * d.Y
		sxy += d.X * d.Y
	}
	line := Line{Origin: c, Angle: 0.5 * math.Atan2(2*sxy, sxx-syy)}
	n := line.Normal()
	for _, p := range points {
		if math.Abs(p.Sub(c).Dot(n)) > threshold {
			return line, false
		}
	}
	return line, true
}

// RotatedBoundingBox returns the rectangle aligned with line that encloses
// points, grown by padding on every side.
func RotatedBoundingBox(points []Point, line Line, padding float64) Polygon {
	dir, n := line.Direction(), line.Normal()
	minU, maxU := math.Inf(1), math.Inf(-1)
	minV, maxV := math.Inf(1), math.Inf(-1)
	for _, p := range points {
		d := p.Sub(line.Origin)
		u, v := d.Dot(dir), d.Dot(n)
		minU, maxU = math.Min(minU, u), math.Max(maxU, u)
		minV, maxV = math.Min(minV, v), math.Max(maxV, v)
	}
	minU, maxU = minU-padding, maxU+padding
	minV, maxV = minV-padding, maxV+padding

	at := func(u, v float64) Point {
		return line.Origin.Add(dir.Scale(u)).Add(n.Scale(v))
	}
	return Polygon{at(minU, minV), at(maxU, minV), at(maxU, maxV), at(minU, maxV)}
}

// ConvexHull returns the convex hull of points using a Graham scan. The
// start is the point with the lowest Y (ties broken by lowest X); the rest
// are swept by polar angle and collinear vertices are dropped. Every
// returned vertex is one of the input points.
func ConvexHull(points []Point) Polygon {
	if len(points) < 3 {
		return append(Polygon(nil), points...)
	}

	start := 0
	for i, p := range points {
		s := points[start]
		if p.Y < s.Y || (p.Y == s.Y && p.X < s.X) {
			start = i
		}
	}
	origin := points[start]

	rest := make([]Point, 0, len(points)-1)
	for i, p := range points {
		if i != start && p != origin {
			rest = append(rest, p)
		}
	}
	sort.SliceStable(rest, func(i, j int) bool {
		ai := math.Atan2(rest[i].Y-origin.Y, rest[i].X-origin.X)
		aj := math.Atan2(rest[j].Y-origin.Y, rest[j].X-origin.X)
		if ai != aj {
			return ai < aj
		}
		return origin.Dist(rest[i]) < origin.Dist(rest[j])
	})

	hull := Polygon{origin}
	for _, p := range rest {
		for len(hull) >= 2 && Cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull
}
