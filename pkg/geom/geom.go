package geom

import "math"

// Point is a position in layout space. Y grows downwards after the graph
// has been flipped into screen orientation.
type Point struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Scale returns p multiplied by s.
func (p Point) Scale(s float64) Point { return Point{p.X * s, p.Y * s} }

// Len returns the Euclidean length of p treated as a vector.
func (p Point) Len() float64 { return math.Hypot(p.X, p.Y) }

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 { return p.Sub(q).Len() }

// Unit returns p normalized to length 1. The zero vector is returned as is.
func (p Point) Unit() Point {
	l := p.Len()
	if l == 0 {
		return p
	}
	return Point{p.X / l, p.Y / l}
}

// Dot returns the dot product of p and q.
func (p Point) Dot(q Point) float64 { return p.X*q.X + p.Y*q.Y }

// Cross returns the z component of the cross product (b-a) x (c-a).
// Positive means a->b->c turns left in a y-up frame.
func Cross(a, b, c Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// Rect is an axis-aligned rectangle with its origin at the minimum corner.
type Rect struct {
	X      float64 `json:"x" bson:"x"`
	Y      float64 `json:"y" bson:"y"`
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
}

// RectFromCenter returns the rectangle of the given size centered on c.
func RectFromCenter(c Point, width, height float64) Rect {
	return Rect{X: c.X - width/2, Y: c.Y - height/2, Width: width, Height: height}
}

// MinX returns the left edge.
func (r Rect) MinX() float64 { return r.X }

// MinY returns the top edge.
func (r Rect) MinY() float64 { return r.Y }

// MaxX returns the right edge.
func (r Rect) MaxX() float64 { return r.X + r.Width }

// MaxY returns the bottom edge.
func (r Rect) MaxY() float64 { return r.Y + r.Height }

// Center returns the center point of the rectangle.
func (r Rect) Center() Point { return Point{r.X + r.Width/2, r.Y + r.Height/2} }

// Corners returns the four corners clockwise from the minimum corner.
func (r Rect) Corners() Polygon {
	return Polygon{
		{r.X, r.Y},
		{r.MaxX(), r.Y},
		{r.MaxX(), r.MaxY()},
		{r.X, r.MaxY()},
	}
}

// Union returns the smallest rectangle containing r and o.
func (r Rect) Union(o Rect) Rect {
	minX := math.Min(r.MinX(), o.MinX())
	minY := math.Min(r.MinY(), o.MinY())
	maxX := math.Max(r.MaxX(), o.MaxX())
	maxY := math.Max(r.MaxY(), o.MaxY())
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Translate returns r moved by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	r.X += dx
	r.Y += dy
	return r
}

// Contains reports whether p lies inside r or on its boundary.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.MinX() && p.X <= r.MaxX() && p.Y >= r.MinY() && p.Y <= r.MaxY()
}

// Polygon is an ordered list of vertices. The closing edge from the last
// vertex back to the first is implied.
type Polygon []Point

// Centroid returns the arithmetic mean of the vertices.
func (p Polygon) Centroid() Point {
	if len(p) == 0 {
		return Point{}
	}
	var c Point
	for _, v := range p {
		c = c.Add(v)
	}
	return c.Scale(1 / float64(len(p)))
}

// Bounds returns the axis-aligned bounding rectangle of the vertices.
func (p Polygon) Bounds() Rect {
	return AxisAlignedBoundingBox(p, 0)
}

// ScaleFrom returns the polygon scaled by factor about center.
func (p Polygon) ScaleFrom(center Point, factor float64) Polygon {
	out := make(Polygon, len(p))
	for i, v := range p {
		out[i] = center.Add(v.Sub(center).Scale(factor))
	}
	return out
}

// Contains reports whether pt lies inside the convex polygon p or within eps
// of its boundary. Vertex order may be either orientation.
func (p Polygon) Contains(pt Point, eps float64) bool {
	if len(p) < 3 {
		return false
	}
	var pos, neg bool
	for i := range p {
		a, b := p[i], p[(i+1)%len(p)]
		edge := b.Sub(a).Len()
		if edge == 0 {
			continue
		}
		d := Cross(a, b, pt) / edge
		if d > eps {
			pos = true
		}
		if d < -eps {
			neg = true
		}
		if pos && neg {
			return false
		}
	}
	return true
}

// AxisAlignedBoundingBox returns the smallest axis-aligned rectangle
// containing every point, grown by padding on each side. An empty input
// yields a zero-sized rectangle at the origin grown by padding.
func AxisAlignedBoundingBox(points []Point, padding float64) Rect {
	if len(points) == 0 {
		return Rect{X: -padding, Y: -padding, Width: 2 * padding, Height: 2 * padding}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range points {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{
		X:      minX - padding,
		Y:      minY - padding,
		Width:  maxX - minX + 2*padding,
		Height: maxY - minY + 2*padding,
	}
}
