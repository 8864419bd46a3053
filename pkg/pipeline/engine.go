package pipeline

import (
	"github.com/charmbracelet/log"
	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/procgraph/pkg/cache"
	"github.com/matzehuels/procgraph/pkg/layout"
)

// NewEngine returns a Graphviz engine for algorithm wrapped in a layout
// cache. A nil cache disables caching.
func NewEngine(algorithm string, c cache.Cache, keyer cache.Keyer, logger *log.Logger) layout.Engine {
	if algorithm == "" {
		algorithm = DefaultAlgorithm
	}
	gv := &layout.Graphviz{Algorithm: graphviz.Layout(algorithm)}
	if c == nil {
		return gv
	}
	return layout.NewCached(gv, c, keyer, cache.LayoutKeyOpts{Engine: "graphviz", Algorithm: gv.Name()}, logger)
}
