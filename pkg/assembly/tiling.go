package assembly

import (
	"cmp"
	"slices"

	"github.com/matzehuels/procgraph/pkg/element"
	"github.com/matzehuels/procgraph/pkg/geom"
	"github.com/matzehuels/procgraph/pkg/procgraph"
)

// Tiling defaults.
const (
	DefaultXSpacing = 1600
	DefaultYSpacing = 900
	DefaultPadding  = 400
)

var (
	singleOrder   = []string{"web-app", "pcm-service", "experiment-service"}
	contrastOrder = []string{"web-app", "experiment-service", "pcm-service"}
)

// DefaultOrder returns the preferred service order for a view type.
func DefaultOrder(view element.ViewType) []string {
	if view == element.Contrast {
		return slices.Clone(contrastOrder)
	}
	return slices.Clone(singleOrder)
}

// TilingOptions controls how graphs are arranged. Services are laid out
// left to right, the subprocesses of a service top to bottom.
type TilingOptions struct {
	XSpacing float64  `json:"x_spacing" toml:"x_spacing"`
	YSpacing float64  `json:"y_spacing" toml:"y_spacing"`
	Padding  float64  `json:"padding" toml:"padding"`
	Order    []string `json:"order,omitempty" toml:"order"`
}

// DefaultTilingOptions returns the default spacing and the preferred order
// for view.
func DefaultTilingOptions(view element.ViewType) TilingOptions {
	return TilingOptions{
		XSpacing: DefaultXSpacing,
		YSpacing: DefaultYSpacing,
		Padding:  DefaultPadding,
		Order:    DefaultOrder(view),
	}
}

// Placement is the offset applied to one graph.
type Placement struct {
	Graph  *procgraph.Graph
	Offset geom.Point
}

// SortGraphs orders graphs by preferred service rank, then service name,
// then subprocess name. Services missing from order rank after the listed
// ones.
func SortGraphs(graphs []*procgraph.Graph, order []string) []*procgraph.Graph {
	rank := func(svc string) int {
		if i := slices.Index(order, svc); i >= 0 {
			return i
		}
		return len(order)
	}
	out := slices.Clone(graphs)
	slices.SortStableFunc(out, func(a, b *procgraph.Graph) int {
		return cmp.Or(
			cmp.Compare(rank(a.Service), rank(b.Service)),
			cmp.Compare(a.Service, b.Service),
			cmp.Compare(a.Subprocess, b.Subprocess),
		)
	})
	return out
}

// PlanTiling computes the offset of every graph without moving anything.
// The result is in tiling order and depends only on the graphs' current
// bounds and opts.
//
// Each graph is offset by a running (x, y). After a graph, y advances past
// its shifted bottom edge when the next graph belongs to the same service;
// otherwise x advances by the widest graph of the service plus XSpacing and
// y returns to Padding. Empty graphs take an offset but advance nothing.
func PlanTiling(graphs []*procgraph.Graph, opts TilingOptions) []Placement {
	sorted := SortGraphs(graphs, opts.Order)
	out := make([]Placement, 0, len(sorted))

	x, y := opts.Padding, opts.Padding
	maxWidth := 0.0
	for i, g := range sorted {
		out = append(out, Placement{Graph: g, Offset: geom.Pt(x, y)})

		bounds, ok := g.Bounds()
		sameService := i+1 < len(sorted) && sorted[i+1].Service == g.Service
		if ok {
			maxWidth = max(maxWidth, bounds.Width)
			if sameService {
				y = bounds.MaxY() + y + opts.YSpacing
			}
		}
		if !sameService {
			x += maxWidth + opts.XSpacing
			maxWidth = 0
			y = opts.Padding
		}
	}
	return out
}

// FinalizeLayout shifts every graph by its planned offset and returns the
// graphs in tiling order. It must run after every graph is complete.
func FinalizeLayout(graphs []*procgraph.Graph, opts TilingOptions) []*procgraph.Graph {
	plan := PlanTiling(graphs, opts)
	out := make([]*procgraph.Graph, len(plan))
	for i, p := range plan {
		p.Graph.Shift(p.Offset.X, p.Offset.Y)
		out[i] = p.Graph
	}
	return out
}
