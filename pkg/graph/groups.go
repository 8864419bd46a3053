package graph

import (
	"github.com/matzehuels/procgraph/pkg/element"
	"github.com/matzehuels/procgraph/pkg/geom"
	"github.com/matzehuels/procgraph/pkg/procgraph"
)

// Group kinds.
const (
	GroupSubprocess = "subprocess"
	GroupService    = "service"
)

// Defaults for group presentation.
const (
	DefaultHullRadius     = 100
	DefaultServicePadding = 500
)

// GroupOptions controls the presentation groups added to a model.
type GroupOptions struct {
	Hull           geom.HullOptions
	Radius         float64 // hull corner radius
	ServicePadding float64
}

// DefaultGroupOptions returns the default hull parameters, corner radius
// and service padding.
func DefaultGroupOptions() GroupOptions {
	return GroupOptions{Hull: geom.DefaultHullOptions(), Radius: DefaultHullRadius, ServicePadding: DefaultServicePadding}
}

// Group is a hull around the tasks of one subprocess or a box around all
// nodes of one service.
type Group struct {
	Kind       string       `json:"kind" bson:"kind"`
	Service    string       `json:"service" bson:"service"`
	Subprocess string       `json:"subprocess,omitempty" bson:"subprocess,omitempty"`
	Polygon    geom.Polygon `json:"polygon" bson:"polygon"`
	Path       string       `json:"path" bson:"path"`
}

// BuildGroups computes one hull per subprocess named by the statements of
// each graph and one box per service. Services appear in the order of
// their first graph.
func BuildGroups(graphs []*procgraph.Graph, opts GroupOptions) []Group {
	var groups []Group
	var services []string
	members := make(map[string][]*element.Node)

	for _, g := range graphs {
		if _, ok := members[g.Service]; !ok {
			services = append(services, g.Service)
			members[g.Service] = nil
		}
		for _, n := range g.Nodes() {
			if n.Kind == element.KindTask || n.Kind == element.KindBlackBox {
				members[g.Service] = append(members[g.Service], n)
			}
		}
		if g.BlackBox {
			continue
		}
		for _, sub := range g.UniqueEntities("subprocess") {
			poly, err := g.SubprocessHull(sub, opts.Hull)
			if err != nil {
				continue
			}
			groups = append(groups, Group{
				Kind:       GroupSubprocess,
				Service:    g.Service,
				Subprocess: sub,
				Polygon:    poly,
				Path:       geom.PathData(geom.RoundPolygonCorners(poly, opts.Radius)),
			})
		}
	}

	for _, svc := range services {
		nodes := members[svc]
		if len(nodes) == 0 {
			continue
		}
		box := procgraph.ServiceBox(nodes, opts.ServicePadding).Corners()
		groups = append(groups, Group{
			Kind:    GroupService,
			Service: svc,
			Polygon: box,
			Path:    geom.PathData(geom.RoundPolygonCorners(box, 0)),
		})
	}
	return groups
}
