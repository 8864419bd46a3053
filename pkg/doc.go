// Package pkg provides the core libraries for procgraph process-graph
// assembly.
//
// # Overview
//
// procgraph turns a laid-out flow description per service and subprocess,
// plus the logs of one or two executions, into positioned process graphs
// annotated with occurrence counts and joined by inferred cross-service
// links.
//
// # Architecture
//
// The typical data flow:
//
//	topology request (JSON)
//	         ↓
//	    [topology] decode and validate
//	         ↓
//	    [layout] Graphviz layout per flow (cached)
//	         ↓
//	    [element] + [procgraph] decode objects, attach statements
//	         ↓
//	    [assembly] build every pair, tile, infer [links]
//	         ↓
//	    [graph] model JSON, optional [store]
//
// # Main Packages
//
// [geom] - Points, rectangles, group hulls and rounded SVG paths.
//
// [element] - Nodes and edges decoded from layout objects, with execution
// counts and display annotations.
//
// [procgraph] - One process graph: elements, statements, subprocess hulls
// and service boxes.
//
// [assembly] - Builds all process graphs of a topology concurrently,
// tiles them and collects diagnostics.
//
// [links] - [LINK] marker parsing and API/MQ link inference.
//
// [pipeline] - Orchestration with layout and model caching.
//
// ## Infrastructure
//
// [cache] - File, Redis and null caches for layouts and models.
//
// [store] - File and MongoDB model stores.
//
// [config] - TOML configuration.
//
// [observability] - Hooks for metrics, with a Prometheus implementation in
// observability/prom.
package pkg
