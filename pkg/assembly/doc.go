// Package assembly turns flow descriptions and log data into positioned
// process graphs and lays a whole topology out in one coordinate space.
//
// [Builder.BuildProcessGraph] builds one graph: it runs the layout engine,
// creates typed nodes correlated with their logging statements, connects
// edges (re-anchoring their endpoints on the node outlines), flips the y
// axis to top-down reading order and computes the graph aggregates.
//
// [Builder.AssembleTopology] builds every (service, subprocess) pair
// concurrently, adds a black-box graph for each declared service without
// data, tiles the graphs with [FinalizeLayout] and infers cross-service
// links.
//
// Failures confined to one graph or one record never abort assembly. They
// are returned as [Diagnostic] values alongside the partial result.
package assembly
