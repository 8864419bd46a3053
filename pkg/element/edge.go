package element

import (
	"errors"

	"github.com/matzehuels/procgraph/pkg/geom"
)

// ErrNilNode is returned when an edge is connected to a missing node.
var ErrNilNode = errors.New("element: nil node")

// Edge is a directed connection between two nodes of one graph.
type Edge struct {
	Element

	SourceID  string
	TargetID  string
	Waypoints []geom.Point
}

// NewEdge returns an edge between the given node ids.
func NewEdge(el Element, sourceID, targetID string, waypoints []geom.Point) *Edge {
	return &Edge{Element: el, SourceID: sourceID, TargetID: targetID, Waypoints: waypoints}
}

// ConnectNodes registers e on both endpoints and re-anchors the first and
// last waypoint onto the node outlines.
func (e *Edge) ConnectNodes(src, dst *Node) error {
	if src == nil || dst == nil {
		return ErrNilNode
	}
	e.SourceID = src.ID
	e.TargetID = dst.ID
	if err := src.AddOutgoing(e); err != nil {
		return err
	}
	if err := dst.AddIncoming(e); err != nil {
		return err
	}

	if n := len(e.Waypoints); n > 1 {
		e.Waypoints[0] = src.Intersection(e.Waypoints[1], e.Waypoints[0])
		e.Waypoints[n-1] = dst.Intersection(e.Waypoints[n-2], e.Waypoints[n-1])
	}
	return nil
}

// Shift moves every waypoint and the edge position by (dx, dy).
func (e *Edge) Shift(dx, dy float64) {
	e.Element.Shift(dx, dy)
	d := geom.Pt(dx, dy)
	for i := range e.Waypoints {
		e.Waypoints[i] = e.Waypoints[i].Add(d)
	}
}
