// Package graph provides the serialization model of assembled topologies.
//
// This package defines the canonical wire format handed to rendering
// collaborators, stored as snapshots, cached and returned by the HTTP API.
//
// # Architecture
//
// The package sits at the serialization boundary between the in-memory
// representation and external formats:
//
//   - [Model], [Graph], [Node], [Edge]: serialization types (this package)
//   - pkg/procgraph.Graph: in-memory process graph
//   - pkg/assembly.Result: assembled topology (graphs, links, diagnostics)
//
// Use [FromResult] to convert an assembly result and the Write/Read
// functions to move models through files and streams.
//
// # Format
//
// A model lists graphs in tiling order, each with its nodes and edges in
// layout order, followed by the inferred links and the diagnostics:
//
//	{
//	  "version": 1,
//	  "view": "contrast",
//	  "graphs": [{"id": "…", "service": "web-app", "subprocess": "login",
//	              "nodes": [...], "edges": [...]}],
//	  "links": [...],
//	  "diagnostics": [...]
//	}
//
// Node bounds are the scaled, drawn rectangles; positions are centers.
// Contrast models carry membership and per-execution counts, single models
// a count.
//
// # Display annotations
//
// When [Options.Selection] is set, every node and edge also carries the
// count and colour key to display for that selection, so renderers need
// not reimplement the gradient rules.
//
// # Concurrency
//
// All functions are safe for concurrent reads but not concurrent writes.
package graph
