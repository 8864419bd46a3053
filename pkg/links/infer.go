package links

import (
	"github.com/matzehuels/procgraph/pkg/element"
	"github.com/matzehuels/procgraph/pkg/geom"
	"github.com/matzehuels/procgraph/pkg/logdata"
	"github.com/matzehuels/procgraph/pkg/procgraph"
)

// Link is an inferred communication edge between nodes of two graphs.
type Link struct {
	ID            string       `json:"id" bson:"id"`
	SourceNodeID  string       `json:"source_node_id" bson:"source_node_id"`
	TargetNodeID  string       `json:"target_node_id" bson:"target_node_id"`
	SourceGraphID string       `json:"source_graph_id" bson:"source_graph_id"`
	TargetGraphID string       `json:"target_graph_id" bson:"target_graph_id"`
	Kind          Kind         `json:"kind" bson:"kind"`
	Action        string       `json:"action" bson:"action"`
	Channel       string       `json:"channel,omitempty" bson:"channel,omitempty"`
	Waypoints     []geom.Point `json:"waypoints" bson:"waypoints"`
}

// LinkID returns the id of the link between two nodes.
func LinkID(sourceNodeID, targetNodeID string) string {
	return "link_" + sourceNodeID + "_" + targetNodeID
}

// Problem is a malformed marker found in a node's logs.
type Problem struct {
	Service    string
	Subprocess string
	NodeID     string
	Err        error
}

func (p *Problem) Error() string {
	return p.Service + "/" + p.Subprocess + ": " + p.Err.Error()
}

func (p *Problem) Unwrap() error { return p.Err }

type record struct {
	node *element.Node
	Marker
}

// Infer scans the task logs of every graph for link markers and resolves
// them to links. Malformed markers are returned as problems; unresolvable
// endpoints are dropped silently. graphs must be final (tiled), since link
// waypoints are taken from node positions.
func Infer(view element.ViewType, graphs []*procgraph.Graph) (links []Link, problems []*Problem) {
	groups, order, problems := collect(view, graphs)

	processed := make(map[string]bool)
	seen := make(map[string]bool)
	emit := func(src, dst *element.Node, r record) {
		l := newLink(src, dst, r)
		if seen[l.ID] && r.Kind == KindMessageQueue {
			return
		}
		seen[l.ID] = true
		links = append(links, l)
	}

	for _, key := range order {
		group := groups[key]
		for _, r := range group {
			switch r.Kind {
			case KindAPI:
				if processed[r.Action] {
					continue
				}
				src, dst := resolveAPI(r, group, graphs)
				if src == nil || dst == nil {
					continue
				}
				emit(src, dst, r)
				processed[r.Action] = true

			case KindMessageQueue:
				if r.Action != ActionPublish {
					continue
				}
				sub := findSubscriber(r.Channel, group, groups, order)
				if sub == nil {
					continue
				}
				emit(r.node, sub, r)
			}
		}
	}
	return links, problems
}

// collect groups the marker records of all task nodes by key, keeping the
// order in which keys were first seen.
func collect(view element.ViewType, graphs []*procgraph.Graph) (map[string][]record, []string, []*Problem) {
	groups := make(map[string][]record)
	var order []string
	var problems []*Problem
	for _, g := range graphs {
		if g.BlackBox {
			continue
		}
		for _, n := range g.Nodes() {
			if n.Kind != element.KindTask {
				continue
			}
			for _, entry := range scannedLogs(view, n) {
				if !IsMarker(entry.Message) {
					continue
				}
				m, err := ParseMarker(entry.Message)
				if err != nil {
					problems = append(problems, &Problem{
						Service:    g.Service,
						Subprocess: g.Subprocess,
						NodeID:     n.ID,
						Err:        err,
					})
					continue
				}
				key := m.Key()
				if _, ok := groups[key]; !ok {
					order = append(order, key)
				}
				groups[key] = append(groups[key], record{node: n, Marker: m})
			}
		}
	}
	return groups, order, problems
}

// scannedLogs returns the entries searched for markers: the node's logs in
// a Single graph; in a Contrast graph A's logs when the node is in A, B's
// when it is only in B.
func scannedLogs(view element.ViewType, n *element.Node) []logdata.Entry {
	if view != element.Contrast {
		return n.Logs.Single
	}
	switch {
	case n.Membership.A:
		return n.Logs.A
	case n.Membership.B:
		return n.Logs.B
	}
	return nil
}

// resolveAPI finds the endpoints of an API record. The record's own node is
// taken for whichever side its service matches; the other side is searched
// in the group, requiring a matching action for the source, and finally
// falls back to the service's black-box node.
func resolveAPI(r record, group []record, graphs []*procgraph.Graph) (src, dst *element.Node) {
	switch r.node.Service {
	case r.SourceService:
		src = r.node
	case r.DestinationService:
		dst = r.node
	}
	if src == nil {
		for _, o := range group {
			if o.node.Service == r.SourceService && o.Action == r.Action {
				src = o.node
				break
			}
		}
		if src == nil {
			src = blackBoxNode(r.SourceService, graphs)
		}
	}
	if dst == nil {
		for _, o := range group {
			if o.node.Service == r.DestinationService {
				dst = o.node
				break
			}
		}
		if dst == nil {
			dst = blackBoxNode(r.DestinationService, graphs)
		}
	}
	return src, dst
}

// findSubscriber looks for a Subscribe on channel in the record's own group
// first, then across all groups.
func findSubscriber(channel string, group []record, groups map[string][]record, order []string) *element.Node {
	match := func(rs []record) *element.Node {
		for _, o := range rs {
			if o.Kind == KindMessageQueue && o.Action == ActionSubscribe && o.Channel == channel {
				return o.node
			}
		}
		return nil
	}
	if n := match(group); n != nil {
		return n
	}
	for _, key := range order {
		if n := match(groups[key]); n != nil {
			return n
		}
	}
	return nil
}

func blackBoxNode(service string, graphs []*procgraph.Graph) *element.Node {
	for _, g := range graphs {
		if g.BlackBox && g.Service == service {
			if nodes := g.Nodes(); len(nodes) > 0 {
				return nodes[0]
			}
		}
	}
	return nil
}

func newLink(src, dst *element.Node, r record) Link {
	return Link{
		ID:            LinkID(src.ID, dst.ID),
		SourceNodeID:  src.ID,
		TargetNodeID:  dst.ID,
		SourceGraphID: src.GraphID,
		TargetGraphID: dst.GraphID,
		Kind:          r.Kind,
		Action:        r.Action,
		Channel:       r.Channel,
		Waypoints:     []geom.Point{src.ScaledBounds().Center(), dst.ScaledBounds().Center()},
	}
}

// CountByKind tallies links per kind.
func CountByKind(links []Link) map[Kind]int {
	out := make(map[Kind]int)
	for _, l := range links {
		out[l.Kind]++
	}
	return out
}
