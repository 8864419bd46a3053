package graph

import (
	"time"

	"github.com/matzehuels/procgraph/pkg/assembly"
	"github.com/matzehuels/procgraph/pkg/element"
	"github.com/matzehuels/procgraph/pkg/geom"
	"github.com/matzehuels/procgraph/pkg/links"
	"github.com/matzehuels/procgraph/pkg/logdata"
	"github.com/matzehuels/procgraph/pkg/procgraph"
)

// FormatVersion is the version of the serialization format.
const FormatVersion = 1

// View types.
const (
	ViewSingle   = "single"
	ViewContrast = "contrast"
)

// =============================================================================
// Model - Assembled Topology
// =============================================================================

// Model is the canonical serialization of an assembled topology.
type Model struct {
	ID          string                `json:"id,omitempty" bson:"_id,omitempty"`
	Version     int                   `json:"version" bson:"version"`
	View        string                `json:"view" bson:"view"`
	CreatedAt   time.Time             `json:"created_at,omitzero" bson:"created_at,omitempty"`
	Bounds      *geom.Rect            `json:"bounds,omitempty" bson:"bounds,omitempty"`
	Graphs      []Graph               `json:"graphs" bson:"graphs"`
	Links       []links.Link          `json:"links" bson:"links"`
	Groups      []Group               `json:"groups,omitempty" bson:"groups,omitempty"`
	Diagnostics []assembly.Diagnostic `json:"diagnostics,omitempty" bson:"diagnostics,omitempty"`
}

// Graph returns the graph with the given id.
func (m *Model) Graph(id string) (*Graph, bool) {
	for i := range m.Graphs {
		if m.Graphs[i].ID == id {
			return &m.Graphs[i], true
		}
	}
	return nil, false
}

// NodeCount returns the number of nodes over all graphs.
func (m *Model) NodeCount() int {
	n := 0
	for _, g := range m.Graphs {
		n += len(g.Nodes)
	}
	return n
}

// EdgeCount returns the number of edges over all graphs.
func (m *Model) EdgeCount() int {
	n := 0
	for _, g := range m.Graphs {
		n += len(g.Edges)
	}
	return n
}

// =============================================================================
// Graph - One Process Graph
// =============================================================================

// Graph is one serialized process graph.
type Graph struct {
	ID           string             `json:"id" bson:"id"`
	Service      string             `json:"service" bson:"service"`
	Subprocess   string             `json:"subprocess" bson:"subprocess"`
	BlackBox     bool               `json:"black_box,omitempty" bson:"black_box,omitempty"`
	Services     []string           `json:"services,omitempty" bson:"services,omitempty"`
	Subprocesses []string           `json:"subprocesses,omitempty" bson:"subprocesses,omitempty"`
	Bounds       *geom.Rect         `json:"bounds,omitempty" bson:"bounds,omitempty"`
	Aggregates   element.Aggregates `json:"aggregates" bson:"aggregates"`
	Nodes        []Node             `json:"nodes" bson:"nodes"`
	Edges        []Edge             `json:"edges" bson:"edges"`
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (*Node, bool) {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i], true
		}
	}
	return nil, false
}

// =============================================================================
// Node and Edge
// =============================================================================

// Annotation is the execution data shared by nodes and edges. Exactly one
// of Count (single) or Membership and Counts (contrast) is set.
type Annotation struct {
	Count      *int                `json:"count,omitempty" bson:"count,omitempty"`
	Membership *element.Membership `json:"in_graph,omitempty" bson:"in_graph,omitempty"`
	Counts     *element.Counts     `json:"counts,omitempty" bson:"counts,omitempty"`
	Difference *int                `json:"count_difference,omitempty" bson:"count_difference,omitempty"`
	Display    *Display            `json:"display,omitempty" bson:"display,omitempty"`
}

// Display is the precomputed presentation of an element for one selection.
type Display struct {
	Selection string `json:"selection" bson:"selection"`
	Count     int    `json:"count" bson:"count"`
	Min       int    `json:"min" bson:"min"`
	Max       int    `json:"max" bson:"max"`
	ColorKey  string `json:"color_key" bson:"color_key"`
}

// Node is a serialized process graph node.
type Node struct {
	ID       string             `json:"id" bson:"id"`
	Kind     string             `json:"kind" bson:"kind"`
	Name     string             `json:"name" bson:"name"`
	Label    string             `json:"label" bson:"label"`
	Position geom.Point         `json:"position" bson:"position"`
	Bounds   geom.Rect          `json:"bounds" bson:"bounds"`
	Outline  geom.Polygon       `json:"outline,omitempty" bson:"outline,omitempty"`
	Level    string             `json:"level,omitempty" bson:"level,omitempty"`
	Stmt     *logdata.Statement `json:"statement,omitempty" bson:"statement,omitempty"`
	LogCount int                `json:"log_count,omitempty" bson:"log_count,omitempty"`
	Incoming []string           `json:"incoming,omitempty" bson:"incoming,omitempty"`
	Outgoing []string           `json:"outgoing,omitempty" bson:"outgoing,omitempty"`
	Annotation
}

// Edge is a serialized process graph edge.
type Edge struct {
	ID        string       `json:"id" bson:"id"`
	Source    string       `json:"source" bson:"source"`
	Target    string       `json:"target" bson:"target"`
	Waypoints []geom.Point `json:"waypoints" bson:"waypoints"`
	Path      string       `json:"path,omitempty" bson:"path,omitempty"`
	Annotation
}

// =============================================================================
// Result → Model Conversion
// =============================================================================

// Options controls FromResult.
type Options struct {
	// Selection, when set, adds display annotations for that selection.
	Selection *element.Selection

	// Structure colours elements by membership instead of by count.
	Structure bool

	// Groups, when set, adds subprocess hulls and service boxes.
	Groups *GroupOptions

	// Now stamps CreatedAt. Zero leaves it empty.
	Now time.Time
}

// FromResult converts an assembly result to its serialization format.
func FromResult(res *assembly.Result, opts Options) Model {
	m := Model{
		Version:     FormatVersion,
		View:        viewName(res.View),
		CreatedAt:   opts.Now,
		Graphs:      make([]Graph, 0, len(res.Graphs)),
		Links:       res.Links,
		Diagnostics: res.Diagnostics,
	}
	if m.Links == nil {
		m.Links = []links.Link{}
	}

	var total geom.Rect
	var haveTotal bool
	for _, g := range res.Graphs {
		sg := FromProcessGraph(g, opts)
		if sg.Bounds != nil {
			if haveTotal {
				total = total.Union(*sg.Bounds)
			} else {
				total, haveTotal = *sg.Bounds, true
			}
		}
		m.Graphs = append(m.Graphs, sg)
	}
	if haveTotal {
		m.Bounds = &total
	}
	if opts.Groups != nil {
		m.Groups = BuildGroups(res.Graphs, *opts.Groups)
	}
	return m
}

// FromProcessGraph converts one process graph.
func FromProcessGraph(g *procgraph.Graph, opts Options) Graph {
	agg := g.Aggregates()
	out := Graph{
		ID:           g.ID,
		Service:      g.Service,
		Subprocess:   g.Subprocess,
		BlackBox:     g.BlackBox,
		Services:     g.Services,
		Subprocesses: g.Subprocesses,
		Aggregates:   agg,
		Nodes:        make([]Node, 0, g.NodeCount()),
		Edges:        make([]Edge, 0, g.EdgeCount()),
	}
	if b, ok := g.Bounds(); ok {
		out.Bounds = &b
	}

	for _, n := range g.Nodes() {
		sn := Node{
			ID:       n.ID,
			Kind:     n.Kind.String(),
			Name:     n.Name,
			Label:    n.DisplayLabel(),
			Position: n.Center(),
			Bounds:   n.ScaledBounds(),
			Outline:  n.Vertices(),
			Level:    n.LogLevel,
			Stmt:     n.Statement,
			LogCount: len(n.Logs.Single) + len(n.Logs.A) + len(n.Logs.B),
		}
		for _, e := range n.Incoming() {
			sn.Incoming = append(sn.Incoming, e.ID)
		}
		for _, e := range n.Outgoing() {
			sn.Outgoing = append(sn.Outgoing, e.ID)
		}
		if n.Kind != element.KindBlackBox {
			sn.Annotation = annotate(&n.Element, agg, opts)
		}
		out.Nodes = append(out.Nodes, sn)
	}

	for _, e := range g.Edges() {
		out.Edges = append(out.Edges, Edge{
			ID:         e.ID,
			Source:     e.SourceID,
			Target:     e.TargetID,
			Waypoints:  e.Waypoints,
			Path:       edgePath(e.Waypoints),
			Annotation: annotate(&e.Element, agg, opts),
		})
	}
	return out
}

func annotate(el *element.Element, agg element.Aggregates, opts Options) Annotation {
	var a Annotation
	if el.View == element.Contrast {
		m, c, d := el.Membership, el.Counts, el.CountDifference()
		a.Membership, a.Counts, a.Difference = &m, &c, &d
	} else {
		c := el.Count
		a.Count = &c
	}
	if opts.Selection != nil {
		sel := *opts.Selection
		dc := element.ResolveDisplayCount(el, agg, sel)
		a.Display = &Display{
			Selection: sel.String(),
			Count:     dc.Count,
			Min:       dc.Min,
			Max:       dc.Max,
			ColorKey:  element.ResolveDisplayColorKey(el, agg, sel, opts.Structure),
		}
	}
	return a
}

// edgePath renders waypoints as SVG path data: a move to the first point
// followed by cubic segments when the waypoints form a Bézier spline, line
// segments otherwise.
func edgePath(pts []geom.Point) string {
	if len(pts) < 2 {
		return ""
	}
	segs := []geom.PathSegment{{Op: geom.MoveTo, Points: pts[:1]}}
	if (len(pts)-1)%3 == 0 {
		for i := 1; i+2 < len(pts); i += 3 {
			segs = append(segs, geom.PathSegment{Op: geom.CubicTo, Points: pts[i : i+3]})
		}
	} else {
		for _, p := range pts[1:] {
			segs = append(segs, geom.PathSegment{Op: geom.LineTo, Points: []geom.Point{p}})
		}
	}
	return geom.PathData(segs)
}

func viewName(v element.ViewType) string {
	if v == element.Contrast {
		return ViewContrast
	}
	return ViewSingle
}
