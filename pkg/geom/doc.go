// Package geom is the geometry kernel used to lay out and decorate process
// graphs.
//
// Everything here is pure: functions take points and options and return new
// values without touching shared state, so they are safe to call from any
// goroutine.
//
// # Group hulls
//
// [ComputeGroupHull] wraps a set of node centers in a padded polygon. It
// degrades gracefully for small inputs:
//
//   - one point yields an axis-aligned padded box
//   - collinear points yield a rectangle rotated onto the fitted line
//   - anything else yields a Graham-scan convex hull scaled outward from its
//     centroid
//
// [RoundPolygonCorners] turns the polygon into a closed path with rounded
// corners, and [PathData] formats that path as SVG path data.
//
// # Intersections
//
// Edge endpoints are re-anchored onto node outlines with
// [LineCircleIntersection] (events) and [LinePolygonIntersection] (gateways).
package geom
