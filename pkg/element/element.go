// Package element models the nodes and edges of a process graph.
//
// Every [Node] and [Edge] embeds an [Element], which records the owning
// graph, service and subprocess, an optional position, and the
// execution-dependent annotations: a single occurrence count for a Single
// view, or membership and counts per execution for a Contrast view.
//
// Node kinds form a closed set ([Kind]); shape-dependent behaviour such as
// scaled bounds, edge anchoring and labels dispatches on the kind.
//
// Membership and count annotations arrive from the flow description either
// as native JSON values or as strings in a legacy convention
// ("{'A': True, 'B': False}"). [DecodeMembership], [DecodeCounts] and
// [DecodeCount] accept both and return an error instead of guessing.
package element

import (
	"fmt"
	"strings"

	"github.com/matzehuels/procgraph/pkg/geom"
)

// ViewType selects between annotating one execution and contrasting two.
type ViewType int

const (
	// Single annotates one execution with one count per element.
	Single ViewType = iota
	// Contrast annotates two executions, A and B.
	Contrast
)

// String returns "single" or "contrast".
func (v ViewType) String() string {
	if v == Contrast {
		return "contrast"
	}
	return "single"
}

// ParseViewType parses "single" or "contrast" (case-insensitive).
func ParseViewType(s string) (ViewType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single":
		return Single, nil
	case "contrast":
		return Contrast, nil
	}
	return Single, fmt.Errorf("unknown view type %q", s)
}

// Execution names one side of a contrast.
type Execution string

// The two executions of a contrast.
const (
	A Execution = "A"
	B Execution = "B"
)

// Membership records in which executions an element appears.
type Membership struct {
	A bool `json:"A" bson:"a"`
	B bool `json:"B" bson:"b"`
}

// In reports membership in one execution.
func (m Membership) In(e Execution) bool {
	if e == B {
		return m.B
	}
	return m.A
}

// Counts holds occurrence tallies per execution.
type Counts struct {
	A int `json:"A" bson:"a"`
	B int `json:"B" bson:"b"`
}

// Of returns the tally for one execution.
func (c Counts) Of(e Execution) int {
	if e == B {
		return c.B
	}
	return c.A
}

// Element holds the fields shared by nodes and edges.
type Element struct {
	ID         string
	GraphID    string
	Service    string
	Subprocess string
	Position   *geom.Point
	View       ViewType

	// Contrast annotations.
	Membership Membership
	Counts     Counts

	// Single annotation.
	Count int
}

// CountDifference returns Counts.B - Counts.A.
func (e *Element) CountDifference() int {
	return e.Counts.B - e.Counts.A
}

// Shift moves the element's position, if any.
func (e *Element) Shift(dx, dy float64) {
	if e.Position != nil {
		p := e.Position.Add(geom.Pt(dx, dy))
		e.Position = &p
	}
}

// NodeID returns the id of the node with the given layout id in a graph.
func NodeID(graphID string, gvid int) string {
	return fmt.Sprintf("graph-%s-node-%d", graphID, gvid)
}

// EdgeID returns the id of the edge with the given layout id in a graph.
func EdgeID(graphID string, gvid int) string {
	return fmt.Sprintf("graph-%s-edge-%d", graphID, gvid)
}
