package geom

import "math"

// LineCircleIntersection casts a ray from lineStart through lineEnd and
// returns its first crossing with the circle of the given radius around
// center. The ray may extend past lineEnd. When the ray misses the circle,
// lineEnd is returned unchanged.
func LineCircleIntersection(lineStart, lineEnd, center Point, radius float64) Point {
	d := lineEnd.Sub(lineStart)
	f := lineStart.Sub(center)

	a := d.Dot(d)
	if a == 0 {
		return lineEnd
	}
	b := 2 * f.Dot(d)
	c := f.Dot(f) - radius*radius

	disc := b*b - 4*a*c
	if disc < 0 {
		return lineEnd
	}
	sq := math.Sqrt(disc)
	for _, t := range []float64{(-b - sq) / (2 * a), (-b + sq) / (2 * a)} {
		if t >= 0 {
			return lineStart.Add(d.Scale(t))
		}
	}
	return lineEnd
}

// LinePolygonIntersection casts a ray from lineStart through lineEnd and
// returns the crossing with the outline of poly nearest to lineEnd, ties
// going to the crossing nearer lineStart. If the ray crosses no edge, each
// edge contributes its point closest to lineStart and the one nearest
// lineEnd wins.
func LinePolygonIntersection(lineStart, lineEnd Point, poly Polygon) Point {
	if len(poly) == 0 {
		return lineEnd
	}

	const eps = 1e-9
	best, bestDist, bestT := lineEnd, math.Inf(1), math.Inf(1)
	for i := range poly {
		a, b := poly[i], poly[(i+1)%len(poly)]
		p, t, ok := raySegment(lineStart, lineEnd, a, b)
		if !ok {
			continue
		}
		d := p.Dist(lineEnd)
		if d < bestDist-eps || (math.Abs(d-bestDist) <= eps && t < bestT) {
			best, bestDist, bestT = p, d, t
		}
	}
	if !math.IsInf(bestDist, 1) {
		return best
	}

	for i := range poly {
		p := ClosestPointOnSegment(lineStart, poly[i], poly[(i+1)%len(poly)])
		if d := p.Dist(lineEnd); d < bestDist {
			best, bestDist = p, d
		}
	}
	return best
}

// raySegment intersects the ray from p1 through p2 with segment a-b.
// Parallel lines never intersect.
func raySegment(p1, p2, a, b Point) (Point, float64, bool) {
	d1 := p2.Sub(p1)
	d2 := b.Sub(a)
	den := d1.X*d2.Y - d1.Y*d2.X
	if math.Abs(den) < 1e-14 {
		return Point{}, 0, false
	}
	w := a.Sub(p1)
	t := (w.X*d2.Y - w.Y*d2.X) / den
	u := (w.X*d1.Y - w.Y*d1.X) / den
	if t < 0 || u < 0 || u > 1 {
		return Point{}, 0, false
	}
	return p1.Add(d1.Scale(t)), t, true
}

// ClosestPointOnSegment returns the point on segment a-b nearest to p.
func ClosestPointOnSegment(p, a, b Point) Point {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 == 0 {
		return a
	}
	t := math.Max(0, math.Min(1, p.Sub(a).Dot(ab)/l2))
	return a.Add(ab.Scale(t))
}
