package assembly

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/procgraph/pkg/element"
	"github.com/matzehuels/procgraph/pkg/links"
	"github.com/matzehuels/procgraph/pkg/observability"
	"github.com/matzehuels/procgraph/pkg/procgraph"
	"github.com/matzehuels/procgraph/pkg/topology"
)

// Result is an assembled topology.
type Result struct {
	View        element.ViewType
	Graphs      []*procgraph.Graph // tiling order
	Links       []links.Link
	Diagnostics []Diagnostic
}

// Graph returns the graph of a service and subprocess.
func (r *Result) Graph(service, subprocess string) (*procgraph.Graph, bool) {
	for _, g := range r.Graphs {
		if g.Service == service && g.Subprocess == subprocess {
			return g, true
		}
	}
	return nil, false
}

// AssembleTopology builds every pair of in concurrently, adds black-box
// graphs for declared services without data, tiles the graphs and infers
// links. A zero tiling.Order uses DefaultOrder for the view.
//
// Only cancellation of ctx fails assembly; every other failure is reported
// in Result.Diagnostics.
func (b *Builder) AssembleTopology(ctx context.Context, in *topology.Input, tiling TilingOptions) (res *Result, err error) {
	view := in.View()
	pairs := in.Pairs()
	missing := in.MissingServices()
	if tiling.Order == nil {
		tiling.Order = DefaultOrder(view)
	}

	hooks := observability.Pipeline()
	hooks.OnAssembleStart(ctx, view.String(), len(pairs))
	start := time.Now()
	defer func() {
		n := 0
		if res != nil {
			n = len(res.Graphs)
		}
		hooks.OnAssembleComplete(ctx, view.String(), n, time.Since(start), err)
	}()

	graphs := make([]*procgraph.Graph, len(pairs))
	diags := make([][]Diagnostic, len(pairs))

	eg, egCtx := errgroup.WithContext(ctx)
	if b.Concurrency > 0 {
		eg.SetLimit(b.Concurrency)
	}
	for i, p := range pairs {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			graphs[i], diags[i] = b.BuildProcessGraph(egCtx, view, p.Flow, p.Data, p.Service, p.Subprocess)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res = &Result{View: view}
	for _, d := range diags {
		res.Diagnostics = append(res.Diagnostics, d...)
	}
	for _, svc := range missing {
		graphs = append(graphs, procgraph.NewBlackBox(view, svc))
		b.Logger.Debug("added black box", "service", svc)
	}

	res.Graphs = FinalizeLayout(graphs, tiling)

	found, problems := links.Infer(view, res.Graphs)
	res.Links = found
	rep := &reporter{ctx: ctx, logger: b.Logger}
	for _, p := range problems {
		rep.service, rep.subprocess = p.Service, p.Subprocess
		rep.report(p.NodeID, p)
	}
	res.Diagnostics = append(res.Diagnostics, rep.items...)
	for kind, n := range links.CountByKind(found) {
		hooks.OnLinksInferred(ctx, string(kind), n)
	}

	b.Logger.Info("assembled topology", "view", view, "graphs", len(res.Graphs),
		"links", len(res.Links), "diagnostics", len(res.Diagnostics))
	return res, nil
}
