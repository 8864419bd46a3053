package layout

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
)

// formatJSON is Graphviz's JSON output with positioned objects and
// drawing operations.
const formatJSON graphviz.Format = "json"

// Graphviz lays out flow descriptions with Graphviz.
type Graphviz struct {
	Algorithm graphviz.Layout
}

// NewGraphviz returns a Graphviz engine using the hierarchical "dot"
// algorithm.
func NewGraphviz() *Graphviz {
	return &Graphviz{Algorithm: graphviz.DOT}
}

// Name returns the algorithm name, used in cache keys.
func (g *Graphviz) Name() string {
	return string(g.algorithm())
}

func (g *Graphviz) algorithm() graphviz.Layout {
	if g.Algorithm == "" {
		return graphviz.DOT
	}
	return g.Algorithm
}

// Layout implements Engine. Each call owns its Graphviz runtime, so a
// Graphviz engine may be used from many goroutines.
func (g *Graphviz) Layout(ctx context.Context, flow string) (*Result, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(g.algorithm())

	graph, err := graphviz.ParseBytes([]byte(flow))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer graph.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, formatJSON, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return ParseGraphviz(buf.Bytes())
}

var _ Engine = (*Graphviz)(nil)
