package pipeline

import (
	"bytes"
	"time"

	"github.com/matzehuels/procgraph/pkg/assembly"
	"github.com/matzehuels/procgraph/pkg/graph"
)

// Export converts an assembly result to a model and its JSON encoding.
func Export(res *assembly.Result, opts Options, now time.Time) (graph.Model, []byte, error) {
	m := graph.FromResult(res, opts.ExportOptions(now))
	data, err := encode(m)
	if err != nil {
		return graph.Model{}, nil, err
	}
	return m, data, nil
}

func encode(m graph.Model) ([]byte, error) {
	var buf bytes.Buffer
	if err := graph.WriteModel(m, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
