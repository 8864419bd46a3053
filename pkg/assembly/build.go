package assembly

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/procgraph/pkg/element"
	perrors "github.com/matzehuels/procgraph/pkg/errors"
	"github.com/matzehuels/procgraph/pkg/geom"
	"github.com/matzehuels/procgraph/pkg/layout"
	"github.com/matzehuels/procgraph/pkg/logdata"
	"github.com/matzehuels/procgraph/pkg/observability"
	"github.com/matzehuels/procgraph/pkg/procgraph"
)

// ErrEmptyFlow is returned for a pair without a flow description.
var ErrEmptyFlow = errors.New("empty flow description")

// defaultLabel is Graphviz's "use the node name" label.
const defaultLabel = `\N`

// Builder builds process graphs with a layout engine.
type Builder struct {
	Engine layout.Engine
	Logger *log.Logger

	// Concurrency caps the number of graphs built at once by
	// AssembleTopology. Zero means no limit.
	Concurrency int
}

// NewBuilder returns a Builder. A nil logger discards output.
func NewBuilder(engine layout.Engine, logger *log.Logger) *Builder {
	if logger == nil {
		logger = log.New(nil)
		logger.SetLevel(log.FatalLevel + 1)
	}
	return &Builder{Engine: engine, Logger: logger}
}

// BuildProcessGraph builds the graph of one (service, subprocess) pair.
//
// A layout failure yields an empty graph. Malformed annotations default to
// zero and are reported. An edge that references a node the layout never
// produced aborts the graph: the result is empty and carries a
// STRUCTURAL_MISUSE diagnostic.
func (b *Builder) BuildProcessGraph(ctx context.Context, view element.ViewType, flow string, data *logdata.Data, service, subprocess string) (*procgraph.Graph, []Diagnostic) {
	rep := &reporter{ctx: ctx, logger: b.Logger, service: service, subprocess: subprocess}
	g := procgraph.New(view, data, service, subprocess)

	res, err := b.layout(ctx, flow, service, subprocess)
	if err != nil {
		rep.report("", perrors.Wrap(perrors.ErrCodeLayoutFailed, err, "layout %s/%s", service, subprocess))
		g.CalculateCounts()
		return g, rep.items
	}

	if err := populate(g, res, rep); err != nil {
		rep.report("", err)
		g = procgraph.New(view, data, service, subprocess)
		g.CalculateCounts()
		return g, rep.items
	}

	g.FlipY()
	g.CalculateCounts()
	b.Logger.Debug("built graph", "service", service, "subprocess", subprocess,
		"nodes", g.NodeCount(), "edges", g.EdgeCount())
	return g, rep.items
}

func (b *Builder) layout(ctx context.Context, flow, service, subprocess string) (*layout.Result, error) {
	if strings.TrimSpace(flow) == "" {
		return nil, ErrEmptyFlow
	}
	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, service, subprocess)
	start := time.Now()
	res, err := b.Engine.Layout(ctx, flow)
	hooks.OnLayoutComplete(ctx, service, subprocess, time.Since(start), err)
	return res, err
}

// populate adds the layout's nodes, then its edges, to g. Objects of an
// unknown type or without a position are reported and skipped, and edges
// touching them are dropped.
func populate(g *procgraph.Graph, res *layout.Result, rep *reporter) error {
	skipped := make(map[int]bool)
	for _, obj := range res.Objects {
		if obj.Subgraph {
			continue
		}
		n, err := newNode(g, obj, rep)
		if err != nil {
			rep.report(obj.Name, err)
			skipped[obj.GVID] = true
			continue
		}
		if err := g.AddNode(n); err != nil {
			return perrors.Wrap(perrors.ErrCodeStructuralMisuse, err, "node %s", n.ID)
		}
	}

	for _, le := range res.Edges {
		if skipped[le.Tail] || skipped[le.Head] {
			continue
		}
		srcID := element.NodeID(g.ID, le.Tail)
		dstID := element.NodeID(g.ID, le.Head)
		src, ok := g.Node(srcID)
		if !ok {
			return perrors.Wrap(perrors.ErrCodeStructuralMisuse, procgraph.ErrUnknownNode, "edge %d tail %d", le.GVID, le.Tail)
		}
		dst, ok := g.Node(dstID)
		if !ok {
			return perrors.Wrap(perrors.ErrCodeStructuralMisuse, procgraph.ErrUnknownNode, "edge %d head %d", le.GVID, le.Head)
		}

		el := baseElement(g, element.EdgeID(g.ID, le.GVID), nil)
		annotate(&el, g.View, le.InGraph, le.Count, rep)

		points := slices.Clone(le.Points)
		if len(points) < 2 {
			points = []geom.Point{src.Center(), dst.Center()}
		}
		e := element.NewEdge(el, srcID, dstID, points)
		if err := e.ConnectNodes(src, dst); err != nil {
			return perrors.Wrap(perrors.ErrCodeStructuralMisuse, err, "edge %s", e.ID)
		}
		if err := g.AddEdge(e); err != nil {
			return perrors.Wrap(perrors.ErrCodeStructuralMisuse, err, "edge %s", e.ID)
		}
	}
	return nil
}

func newNode(g *procgraph.Graph, obj layout.Object, rep *reporter) (*element.Node, error) {
	kind, ok := element.ParseKind(obj.Type)
	if !ok || kind == element.KindBlackBox {
		return nil, perrors.New(perrors.ErrCodeMalformedEncoding, "unknown node type %q", obj.Type)
	}
	if obj.Pos == nil {
		return nil, perrors.New(perrors.ErrCodeMalformedEncoding, "node %q has no position", obj.Name)
	}

	pos := *obj.Pos
	el := baseElement(g, element.NodeID(g.ID, obj.GVID), &pos)
	label := obj.Label
	if label == defaultLabel {
		label = ""
	}

	if kind != element.KindTask {
		annotate(&el, g.View, obj.InGraph, obj.Count, rep)
		return element.NewNode(el, kind, obj.Name, label, obj.Width, obj.Height), nil
	}

	id := logdata.StatementID(obj.Name)
	corr := g.FindLogs(id)
	annotateTask(&el, g, id, corr.Logs, obj.Count, rep)
	n := element.NewNode(el, kind, obj.Name, label, obj.Width, obj.Height)
	n.Correlate(corr.Statement, corr.Logs)
	return n, nil
}

func baseElement(g *procgraph.Graph, id string, pos *geom.Point) element.Element {
	return element.Element{
		ID:         id,
		GraphID:    g.ID,
		Service:    g.Service,
		Subprocess: g.Subprocess,
		Position:   pos,
		View:       g.View,
	}
}

// annotate decodes the membership and count attributes of a non-task
// element. Absent attributes leave the zero values.
func annotate(el *element.Element, view element.ViewType, inGraph, count json.RawMessage, rep *reporter) {
	if view == element.Single {
		if present(count) {
			c, err := element.DecodeCount(count)
			if err != nil {
				rep.report(el.ID, err)
			}
			el.Count = c
		}
		return
	}
	if present(inGraph) {
		m, err := element.DecodeMembership(inGraph)
		if err != nil {
			rep.report(el.ID, err)
		}
		el.Membership = m
	}
	if present(count) {
		c, err := element.DecodeCounts(count)
		if err != nil {
			rep.report(el.ID, err)
		}
		el.Counts = c
	}
}

// annotateTask sets a task's membership from the statement-id sets and its
// counts from the count attribute, falling back to the number of correlated
// log entries.
func annotateTask(el *element.Element, g *procgraph.Graph, id logdata.StatementID, logs element.Logs, count json.RawMessage, rep *reporter) {
	if g.View == element.Single {
		el.Count = len(logs.Single)
		if present(count) {
			c, err := element.DecodeCount(count)
			if err != nil {
				rep.report(el.ID, err)
				c = 0
			}
			el.Count = c
		}
		return
	}

	el.Membership = element.Membership{
		A: g.HasStatement(id, element.A),
		B: g.HasStatement(id, element.B),
	}
	el.Counts = element.Counts{A: len(logs.A), B: len(logs.B)}
	if present(count) {
		c, err := element.DecodeCounts(count)
		if err != nil {
			rep.report(el.ID, err)
		}
		el.Counts = c
	}
}

func present(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s != "" && s != "null"
}
