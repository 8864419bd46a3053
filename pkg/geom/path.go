package geom

import (
	"math"
	"strconv"
	"strings"
)

// bezierCircle is the handle length, as a fraction of the corner cut,
// that makes a cubic Bézier approximate a quarter circle.
const bezierCircle = 0.5523

// SegmentOp identifies the kind of a [PathSegment].
type SegmentOp string

// Path segment kinds, named after their SVG commands.
const (
	MoveTo  SegmentOp = "M"
	LineTo  SegmentOp = "L"
	CubicTo SegmentOp = "C"
	Close   SegmentOp = "Z"
)

// PathSegment is one drawing command. MoveTo and LineTo carry one point,
// CubicTo carries two control points and an end point, Close carries none.
type PathSegment struct {
	Op     SegmentOp `json:"op" bson:"op"`
	Points []Point   `json:"points,omitempty" bson:"points,omitempty"`
}

// RoundPolygonCorners returns a closed path tracing poly with every corner
// replaced by a cubic curve of the given radius. The distance cut from each
// corner is capped at half the shorter adjacent edge so neighbouring curves
// never overlap. A radius <= 0 yields the plain polygon.
func RoundPolygonCorners(poly Polygon, radius float64) []PathSegment {
	n := len(poly)
	if n == 0 {
		return nil
	}
	if n < 3 || radius <= 0 {
		segs := []PathSegment{{Op: MoveTo, Points: []Point{poly[0]}}}
		for _, p := range poly[1:] {
			segs = append(segs, PathSegment{Op: LineTo, Points: []Point{p}})
		}
		return append(segs, PathSegment{Op: Close})
	}

	segs := make([]PathSegment, 0, 2*n+1)
	for i := range n {
		a, b, c := poly[(i+n-1)%n], poly[i], poly[(i+1)%n]
		in, out, h1, h2 := roundCorner(a, b, c, radius)
		if i == 0 {
			segs = append(segs, PathSegment{Op: MoveTo, Points: []Point{in}})
		} else {
			segs = append(segs, PathSegment{Op: LineTo, Points: []Point{in}})
		}
		segs = append(segs, PathSegment{Op: CubicTo, Points: []Point{h1, h2, out}})
	}
	return append(segs, PathSegment{Op: Close})
}

// roundCorner computes the tangent points and Bézier handles for the corner
// at b between edges a-b and b-c.
func roundCorner(a, b, c Point, radius float64) (in, out, h1, h2 Point) {
	ab, cb := a.Dist(b), c.Dist(b)
	if ab == 0 || cb == 0 {
		return b, b, b, b
	}
	ba, bc := a.Sub(b).Unit(), c.Sub(b).Unit()
	theta := math.Acos(math.Max(-1, math.Min(1, ba.Dot(bc))))

	cut := math.Min(ab, cb) / 2
	if t := math.Tan(theta / 2); t > 1e-9 {
		cut = math.Min(cut, radius/t)
	}

	in = b.Add(ba.Scale(cut))
	out = b.Add(bc.Scale(cut))
	h1 = in.Sub(ba.Scale(cut * bezierCircle))
	h2 = out.Sub(bc.Scale(cut * bezierCircle))
	return in, out, h1, h2
}

// PathData formats segments as SVG path data, rounding coordinates to two
// decimals.
func PathData(segs []PathSegment) string {
	var sb strings.Builder
	for i, s := range segs {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(string(s.Op))
		for j, p := range s.Points {
			if j > 0 {
				sb.WriteByte(',')
			}
			sb.WriteByte(' ')
			sb.WriteString(formatCoord(p.X))
			sb.WriteByte(' ')
			sb.WriteString(formatCoord(p.Y))
		}
	}
	return sb.String()
}

func formatCoord(v float64) string {
	v = math.Round(v*100) / 100
	if v == 0 {
		v = 0 // normalize -0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
