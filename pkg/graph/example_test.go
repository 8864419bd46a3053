package graph_test

import (
	"bytes"
	"fmt"

	"github.com/matzehuels/procgraph/pkg/assembly"
	"github.com/matzehuels/procgraph/pkg/element"
	"github.com/matzehuels/procgraph/pkg/graph"
	"github.com/matzehuels/procgraph/pkg/procgraph"
)

func ExampleFromResult() {
	// A topology with a single black-box service
	res := &assembly.Result{
		View:   element.Single,
		Graphs: []*procgraph.Graph{procgraph.NewBlackBox(element.Single, "billing")},
	}

	m := graph.FromResult(res, graph.Options{})
	g := m.Graphs[0]
	fmt.Println("View:", m.View)
	fmt.Println("Graph:", g.Service, g.Subprocess, g.BlackBox)
	fmt.Println("Node:", g.Nodes[0].Kind, g.Nodes[0].Bounds.Width, g.Nodes[0].Bounds.Height)
	// Output:
	// View: single
	// Graph: billing BlackBox true
	// Node: BlackBox 1200 800
}

func ExampleReadModel() {
	data := `{
		"version": 1,
		"view": "contrast",
		"graphs": [{"id": "g1", "service": "web-app", "subprocess": "login", "aggregates": {}, "nodes": [], "edges": []}],
		"links": []
	}`

	m, err := graph.ReadModel(bytes.NewReader([]byte(data)))
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println("View:", m.View)
	fmt.Println("Graphs:", len(m.Graphs))
	// Output:
	// View: contrast
	// Graphs: 1
}
