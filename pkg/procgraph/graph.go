package procgraph

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/google/uuid"

	"github.com/matzehuels/procgraph/pkg/element"
	"github.com/matzehuels/procgraph/pkg/geom"
	"github.com/matzehuels/procgraph/pkg/logdata"
)

var (
	// ErrDuplicateNodeID is returned when a node id is added twice.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrDuplicateEdgeID is returned when an edge id is added twice.
	ErrDuplicateEdgeID = errors.New("duplicate edge ID")

	// ErrUnknownNode is returned when an edge references a node that is
	// not part of the graph.
	ErrUnknownNode = errors.New("unknown node")

	// ErrNilElement is returned when a nil node or edge is added.
	ErrNilElement = errors.New("nil element")
)

// BlackBoxSubprocess is the subprocess name of black-box graphs.
const BlackBoxSubprocess = "BlackBox"

// Graph is the process graph of one (service, subprocess) pair.
type Graph struct {
	ID         string
	View       element.ViewType
	Service    string
	Subprocess string
	BlackBox   bool
	Data       *logdata.Data

	// Services and Subprocesses are the distinct values of the statements
	// in the graph's statement-id set(s).
	Services     []string
	Subprocesses []string

	nodes     map[string]*element.Node
	nodeOrder []string
	edges     map[string]*element.Edge
	edgeOrder []string

	statements  map[logdata.StatementID]struct{}
	statementsA map[logdata.StatementID]struct{}
	statementsB map[logdata.StatementID]struct{}

	agg     element.Aggregates
	counted bool
}

// New returns an empty graph for a service and subprocess. data may be nil
// for a graph without logs.
func New(view element.ViewType, data *logdata.Data, service, subprocess string) *Graph {
	if data == nil {
		data = &logdata.Data{}
	}
	g := &Graph{
		ID:         uuid.NewString(),
		View:       view,
		Service:    service,
		Subprocess: subprocess,
		Data:       data,
		nodes:      make(map[string]*element.Node),
		edges:      make(map[string]*element.Edge),
	}
	if view == element.Contrast {
		g.statementsA = data.A.StatementIDs()
		g.statementsB = data.B.StatementIDs()
	} else {
		g.statements = data.Single.StatementIDs()
	}
	g.Services = g.UniqueEntities("service")
	g.Subprocesses = g.UniqueEntities("subprocess")
	return g
}

// NewBlackBox returns the placeholder graph of a service without log data:
// one black-box node at the origin and no edges.
func NewBlackBox(view element.ViewType, service string) *Graph {
	g := New(view, nil, service, BlackBoxSubprocess)
	g.BlackBox = true
	g.Services = []string{service}
	g.Subprocesses = []string{BlackBoxSubprocess}

	el := element.Element{
		ID:         "blackboxnode-" + uuid.NewString(),
		GraphID:    g.ID,
		Service:    service,
		Subprocess: BlackBoxSubprocess,
		View:       view,
	}
	n := element.NewNode(el, element.KindBlackBox, service, "Black Box Service", 0, 0)
	_ = g.AddNode(n)
	g.CalculateCounts()
	return g
}

// Key returns "service/subprocess".
func (g *Graph) Key() string { return g.Service + "/" + g.Subprocess }

// AddNode adds n to the graph.
func (g *Graph) AddNode(n *element.Node) error {
	if n == nil {
		return ErrNilElement
	}
	if _, ok := g.nodes[n.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateNodeID, n.ID)
	}
	g.nodes[n.ID] = n
	g.nodeOrder = append(g.nodeOrder, n.ID)
	return nil
}

// AddEdge adds e to the graph. Both endpoints must already be present.
func (g *Graph) AddEdge(e *element.Edge) error {
	if e == nil {
		return ErrNilElement
	}
	if _, ok := g.edges[e.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateEdgeID, e.ID)
	}
	if _, ok := g.nodes[e.SourceID]; !ok {
		return fmt.Errorf("%w: edge %s source %s", ErrUnknownNode, e.ID, e.SourceID)
	}
	if _, ok := g.nodes[e.TargetID]; !ok {
		return fmt.Errorf("%w: edge %s target %s", ErrUnknownNode, e.ID, e.TargetID)
	}
	g.edges[e.ID] = e
	g.edgeOrder = append(g.edgeOrder, e.ID)
	return nil
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (*element.Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Edge returns the edge with the given id.
func (g *Graph) Edge(id string) (*element.Edge, bool) {
	e, ok := g.edges[id]
	return e, ok
}

// Nodes returns the nodes in insertion order.
func (g *Graph) Nodes() []*element.Node {
	out := make([]*element.Node, len(g.nodeOrder))
	for i, id := range g.nodeOrder {
		out[i] = g.nodes[id]
	}
	return out
}

// Edges returns the edges in insertion order.
func (g *Graph) Edges() []*element.Edge {
	out := make([]*element.Edge, len(g.edgeOrder))
	for i, id := range g.edgeOrder {
		out[i] = g.edges[id]
	}
	return out
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Empty reports whether the graph has no nodes.
func (g *Graph) Empty() bool { return len(g.nodes) == 0 }

// HasStatement reports whether id is in the statement set of an execution.
// For a Single graph the execution is ignored.
func (g *Graph) HasStatement(id logdata.StatementID, exec element.Execution) bool {
	var set map[logdata.StatementID]struct{}
	switch {
	case g.View == element.Single:
		set = g.statements
	case exec == element.B:
		set = g.statementsB
	default:
		set = g.statementsA
	}
	_, ok := set[id]
	return ok
}

// Correlation is the result of looking up a statement id in the graph's
// log data.
type Correlation struct {
	Statement *logdata.Statement
	Logs      element.Logs
}

// FindLogs looks up a statement and its log entries. Ids compare as
// strings. In a Contrast graph the statement comes from A if A declares
// it and from B otherwise; entries are looked up per execution and are nil
// for an execution that does not declare the statement.
func (g *Graph) FindLogs(id logdata.StatementID) Correlation {
	find := func(ds *logdata.Dataset) (*logdata.Statement, []logdata.Entry) {
		s, ok := ds.Statement(id)
		if !ok {
			return nil, nil
		}
		return s, ds.Entries(id)
	}

	if g.View == element.Single {
		s, logs := find(g.Data.Single)
		return Correlation{Statement: s, Logs: element.Logs{Single: logs}}
	}
	sa, la := find(g.Data.A)
	sb, lb := find(g.Data.B)
	if sa == nil {
		sa = sb
	}
	return Correlation{Statement: sa, Logs: element.Logs{A: la, B: lb}}
}

// UniqueEntities returns the distinct non-empty values of a statement
// field over the statements whose id is in the graph's statement set(s),
// sorted.
func (g *Graph) UniqueEntities(field string) []string {
	seen := make(map[string]struct{})
	collect := func(ds *logdata.Dataset, exec element.Execution) {
		if ds == nil {
			return
		}
		for i := range ds.Statements {
			s := &ds.Statements[i]
			if !g.HasStatement(s.ID, exec) {
				continue
			}
			if v, ok := s.Field(field); ok && v != "" {
				seen[v] = struct{}{}
			}
		}
	}
	if g.View == element.Contrast {
		collect(g.Data.A, element.A)
		collect(g.Data.B, element.B)
	} else {
		collect(g.Data.Single, element.A)
	}

	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

// FindNodesByField returns the nodes whose correlated statement has
// field == value, in insertion order. A black-box graph matches its own
// service name and the black-box subprocess instead.
func (g *Graph) FindNodesByField(field, value string) []*element.Node {
	if g.BlackBox {
		if (field == "service" && value == g.Service) || (field == "subprocess" && value == BlackBoxSubprocess) {
			return g.Nodes()
		}
		return nil
	}

	var out []*element.Node
	for _, n := range g.Nodes() {
		if v, ok := n.StatementField(field); ok && v == value {
			out = append(out, n)
		}
	}
	return out
}

// CalculateCounts computes the graph aggregates over every node and edge.
// In a Contrast graph an element contributes to an execution's highest
// count only if it is a member of that execution; every element
// contributes its count difference.
func (g *Graph) CalculateCounts() {
	var agg element.Aggregates
	maxDiff, minDiff := math.MinInt, math.MaxInt

	visit := func(el *element.Element) {
		if g.View == element.Single {
			agg.HighestCount = max(agg.HighestCount, el.Count)
			return
		}
		if el.Membership.A {
			agg.HighestCountA = max(agg.HighestCountA, el.Counts.A)
		}
		if el.Membership.B {
			agg.HighestCountB = max(agg.HighestCountB, el.Counts.B)
		}
		d := el.CountDifference()
		maxDiff = max(maxDiff, d)
		minDiff = min(minDiff, d)
	}
	for _, n := range g.Nodes() {
		visit(&n.Element)
	}
	for _, e := range g.Edges() {
		visit(&e.Element)
	}

	if maxDiff != math.MinInt {
		agg.MaxCountDifference = maxDiff
		agg.MinCountDifference = minDiff
	}
	g.agg = agg
	g.counted = true
}

// Aggregates returns the aggregates computed by CalculateCounts.
func (g *Graph) Aggregates() element.Aggregates {
	if !g.counted {
		g.CalculateCounts()
	}
	return g.agg
}

// Bounds returns the union of the scaled node bounds. ok is false for an
// empty graph.
func (g *Graph) Bounds() (r geom.Rect, ok bool) {
	for i, n := range g.Nodes() {
		b := n.ScaledBounds()
		if i == 0 {
			r = b
			continue
		}
		r = r.Union(b)
	}
	return r, len(g.nodes) > 0
}

// Shift moves every node and edge by (dx, dy).
func (g *Graph) Shift(dx, dy float64) {
	for _, n := range g.nodes {
		n.Shift(dx, dy)
	}
	for _, e := range g.edges {
		e.Shift(dx, dy)
	}
}

// FlipY mirrors the graph vertically within the y-range spanned by node
// positions and edge waypoints, mapping y to yMax - (y - yMin).
func (g *Graph) FlipY() {
	yMin, yMax := math.Inf(1), math.Inf(-1)
	for _, n := range g.nodes {
		y := n.Center().Y
		yMin, yMax = math.Min(yMin, y), math.Max(yMax, y)
	}
	for _, e := range g.edges {
		for _, p := range e.Waypoints {
			yMin, yMax = math.Min(yMin, p.Y), math.Max(yMax, p.Y)
		}
	}
	if math.IsInf(yMin, 1) {
		return
	}

	flip := func(y float64) float64 { return yMax - (y - yMin) }
	for _, n := range g.nodes {
		c := n.Center()
		c.Y = flip(c.Y)
		n.Position = &c
	}
	for _, e := range g.edges {
		for i := range e.Waypoints {
			e.Waypoints[i].Y = flip(e.Waypoints[i].Y)
		}
	}
}
