// Package procgraph holds the process graph of one (service, subprocess)
// pair: its nodes and edges, the statement-id sets of the execution(s) it
// was built from, and the count aggregates used to normalize colours.
//
// A [Graph] is populated once by graph assembly, after which
// [Graph.CalculateCounts] computes its aggregates. From then on it is only
// moved, by [Graph.Shift] during tiling, and queried.
//
// Services without log data are represented by black-box graphs
// ([NewBlackBox]) holding a single [element.KindBlackBox] node, so that
// cross-service links always have somewhere to land.
package procgraph
