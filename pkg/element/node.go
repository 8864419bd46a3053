package element

import (
	"errors"
	"slices"
	"strings"

	"github.com/matzehuels/procgraph/pkg/geom"
	"github.com/matzehuels/procgraph/pkg/logdata"
)

// ErrNilEdge is returned when a nil edge is registered on a node.
var ErrNilEdge = errors.New("element: nil edge")

// Logs holds the log entries correlated with a task node.
type Logs struct {
	Single []logdata.Entry
	A      []logdata.Entry
	B      []logdata.Entry
}

// Node is a vertex of a process graph.
type Node struct {
	Element

	Kind        Kind
	Name        string // flow description name; the statement id for tasks
	Label       string
	Width       float64
	Height      float64
	ScaleFactor float64

	// Task correlation.
	Statement *logdata.Statement
	Logs      Logs
	LogLevel  string

	incoming map[string]*Edge
	outgoing map[string]*Edge
}

// NewNode returns a node of the given kind. Width and height are taken from
// the layout for tasks; the other kinds use their fixed sizes.
func NewNode(el Element, kind Kind, name, label string, width, height float64) *Node {
	n := &Node{
		Element:  el,
		Kind:     kind,
		Name:     name,
		Label:    label,
		incoming: make(map[string]*Edge),
		outgoing: make(map[string]*Edge),
	}
	switch {
	case kind == KindTask:
		n.Width, n.Height, n.ScaleFactor = width, height, TaskScale
	case kind.IsEvent():
		n.Width, n.Height, n.ScaleFactor = EventSize, EventSize, MarkerScale
	case kind.IsGateway():
		n.Width, n.Height, n.ScaleFactor = GatewaySize, GatewaySize, MarkerScale
	case kind == KindBlackBox:
		n.Width, n.Height, n.ScaleFactor = BlackBoxWidth, BlackBoxHeight, 1
	}
	if n.Position == nil {
		n.Position = &geom.Point{}
	}
	return n
}

// Center returns the node position.
func (n *Node) Center() geom.Point {
	if n.Position == nil {
		return geom.Point{}
	}
	return *n.Position
}

// ScaledBounds returns the node's drawn rectangle: its size multiplied by
// the kind's scale factor, centered on its position.
func (n *Node) ScaledBounds() geom.Rect {
	return geom.RectFromCenter(n.Center(), n.Width*n.ScaleFactor, n.Height*n.ScaleFactor)
}

// Vertices returns the diamond outline of a gateway: top, right, bottom,
// left. Other kinds have no outline and return nil.
func (n *Node) Vertices() geom.Polygon {
	if !n.Kind.IsGateway() {
		return nil
	}
	c := n.Center()
	return geom.Polygon{
		{X: c.X, Y: c.Y - n.Height/2},
		{X: c.X + n.Width/2, Y: c.Y},
		{X: c.X, Y: c.Y + n.Height/2},
		{X: c.X - n.Width/2, Y: c.Y},
	}
}

// Intersection anchors the line from lineStart to lineEnd on the node's
// outline. Events use their circle, gateways their diamond; tasks and black
// boxes keep lineEnd.
func (n *Node) Intersection(lineStart, lineEnd geom.Point) geom.Point {
	switch {
	case n.Kind.IsEvent():
		r := max(n.Width, n.Height) / 2
		return geom.LineCircleIntersection(lineStart, lineEnd, n.Center(), r)
	case n.Kind.IsGateway():
		return geom.LinePolygonIntersection(lineStart, lineEnd, n.Vertices())
	}
	return lineEnd
}

// DisplayLabel returns the text drawn inside the node.
func (n *Node) DisplayLabel() string {
	switch n.Kind {
	case KindStartEvent:
		return "Start"
	case KindEndEvent:
		return "End"
	case KindExclusiveGateway:
		return "X"
	case KindParallelGateway:
		return "+"
	case KindBlackBox:
		if n.Label != "" {
			return n.Label
		}
		return n.Service
	}
	if n.Label != "" {
		return n.Label
	}
	return n.Name
}

// AddIncoming registers e as an incoming edge.
func (n *Node) AddIncoming(e *Edge) error {
	if e == nil {
		return ErrNilEdge
	}
	n.incoming[e.ID] = e
	return nil
}

// AddOutgoing registers e as an outgoing edge.
func (n *Node) AddOutgoing(e *Edge) error {
	if e == nil {
		return ErrNilEdge
	}
	n.outgoing[e.ID] = e
	return nil
}

// Incoming returns the incoming edges ordered by id.
func (n *Node) Incoming() []*Edge { return sortedEdges(n.incoming) }

// Outgoing returns the outgoing edges ordered by id.
func (n *Node) Outgoing() []*Edge { return sortedEdges(n.outgoing) }

func sortedEdges(m map[string]*Edge) []*Edge {
	out := make([]*Edge, 0, len(m))
	for _, e := range m {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b *Edge) int { return strings.Compare(a.ID, b.ID) })
	return out
}

// Correlate attaches the statement and log entries of a task node.
func (n *Node) Correlate(stmt *logdata.Statement, logs Logs) {
	n.Statement = stmt
	n.Logs = logs
	if stmt != nil {
		n.LogLevel = NormalizeLevel(stmt.Level)
	}
}

// StatementField returns a field of the correlated statement.
func (n *Node) StatementField(field string) (string, bool) {
	if n.Statement == nil {
		return "", false
	}
	return n.Statement.Field(field)
}
