package procgraph

import (
	"errors"
	"testing"

	"github.com/matzehuels/procgraph/pkg/element"
	"github.com/matzehuels/procgraph/pkg/geom"
	"github.com/matzehuels/procgraph/pkg/logdata"
)

func contrastData() *logdata.Data {
	return &logdata.Data{
		A: &logdata.Dataset{
			Statements: []logdata.Statement{
				{ID: "1", Service: "web-app", Subprocess: "checkout", Level: "INFO"},
				{ID: "2", Service: "web-app", Subprocess: "checkout", Level: "ERROR"},
			},
			Logs: []logdata.Entry{
				{StatementID: "1", Message: "a1"},
				{StatementID: "1", Message: "a2"},
				{StatementID: "2", Message: "a3"},
			},
		},
		B: &logdata.Dataset{
			Statements: []logdata.Statement{
				{ID: "2", Service: "web-app", Subprocess: "checkout"},
				{ID: "3", Service: "web-app", Subprocess: "refund"},
			},
			Logs: []logdata.Entry{
				{StatementID: "3", Message: "b1"},
			},
		},
	}
}

func node(id string, x, y float64) *element.Node {
	p := geom.Pt(x, y)
	return element.NewNode(element.Element{ID: id, Position: &p}, element.KindTask, id, "", 1, 1)
}

func TestHasStatementAndFindLogs(t *testing.T) {
	g := New(element.Contrast, contrastData(), "web-app", "checkout")

	tests := []struct {
		id         logdata.StatementID
		inA, inB   bool
		logA, logB int
	}{
		{"1", true, false, 2, 0},
		{"2", true, true, 1, 0},
		{"3", false, true, 0, 1},
		{"4", false, false, 0, 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.id), func(t *testing.T) {
			if got := g.HasStatement(tt.id, element.A); got != tt.inA {
				t.Errorf("in A = %v, want %v", got, tt.inA)
			}
			if got := g.HasStatement(tt.id, element.B); got != tt.inB {
				t.Errorf("in B = %v, want %v", got, tt.inB)
			}
			c := g.FindLogs(tt.id)
			if len(c.Logs.A) != tt.logA || len(c.Logs.B) != tt.logB {
				t.Errorf("logs = %d/%d, want %d/%d", len(c.Logs.A), len(c.Logs.B), tt.logA, tt.logB)
			}
			if (c.Statement != nil) != (tt.inA || tt.inB) {
				t.Errorf("statement = %v", c.Statement)
			}
		})
	}

	// Statement 2 exists in both; A's copy wins.
	if c := g.FindLogs("2"); c.Statement.Level != "ERROR" {
		t.Errorf("statement 2 level = %q, want A's ERROR", c.Statement.Level)
	}
}

func TestUniqueEntities(t *testing.T) {
	g := New(element.Contrast, contrastData(), "web-app", "checkout")
	if got := g.Subprocesses; len(got) != 2 || got[0] != "checkout" || got[1] != "refund" {
		t.Errorf("Subprocesses = %v", got)
	}
	if got := g.Services; len(got) != 1 || got[0] != "web-app" {
		t.Errorf("Services = %v", got)
	}
}

func TestAddNodeAndEdge(t *testing.T) {
	g := New(element.Single, nil, "svc", "sub")
	a, b := node("a", 0, 0), node("b", 10, 0)
	if err := g.AddNode(a); err != nil {
		t.Fatal(err)
	}
	if err := g.AddNode(b); err != nil {
		t.Fatal(err)
	}
	if err := g.AddNode(node("a", 1, 1)); !errors.Is(err, ErrDuplicateNodeID) {
		t.Errorf("duplicate node err = %v", err)
	}

	e := element.NewEdge(element.Element{ID: "e"}, "a", "missing", nil)
	if err := g.AddEdge(e); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("unknown node err = %v", err)
	}
	e.TargetID = "b"
	if err := g.AddEdge(e); err != nil {
		t.Fatal(err)
	}
	if g.NodeCount() != 2 || g.EdgeCount() != 1 {
		t.Errorf("counts = %d/%d", g.NodeCount(), g.EdgeCount())
	}
	if nodes := g.Nodes(); nodes[0] != a || nodes[1] != b {
		t.Error("Nodes() not in insertion order")
	}
}

func TestCalculateCounts(t *testing.T) {
	t.Run("contrast", func(t *testing.T) {
		g := New(element.Contrast, nil, "svc", "sub")
		n1 := node("n1", 0, 0)
		n1.Membership = element.Membership{A: true}
		n1.Counts = element.Counts{A: 5, B: 9} // B tally ignored: not in B
		n2 := node("n2", 0, 0)
		n2.Membership = element.Membership{A: true, B: true}
		n2.Counts = element.Counts{A: 1, B: 4}
		_ = g.AddNode(n1)
		_ = g.AddNode(n2)
		g.CalculateCounts()

		want := element.Aggregates{HighestCountA: 5, HighestCountB: 4, MaxCountDifference: 4, MinCountDifference: 3}
		if got := g.Aggregates(); got != want {
			t.Errorf("Aggregates() = %+v, want %+v", got, want)
		}
	})

	t.Run("single", func(t *testing.T) {
		g := New(element.Single, nil, "svc", "sub")
		n := node("n", 0, 0)
		n.Count = 7
		_ = g.AddNode(n)
		if got := g.Aggregates().HighestCount; got != 7 {
			t.Errorf("HighestCount = %d, want 7", got)
		}
	})

	t.Run("empty", func(t *testing.T) {
		g := New(element.Contrast, nil, "svc", "sub")
		if got := g.Aggregates(); got != (element.Aggregates{}) {
			t.Errorf("empty graph aggregates = %+v", got)
		}
	})
}

func TestFindNodesByField(t *testing.T) {
	g := New(element.Contrast, contrastData(), "web-app", "checkout")
	n1, n2 := node("n1", 0, 0), node("n2", 0, 0)
	c1, c2 := g.FindLogs("1"), g.FindLogs("3")
	n1.Correlate(c1.Statement, c1.Logs)
	n2.Correlate(c2.Statement, c2.Logs)
	_ = g.AddNode(n1)
	_ = g.AddNode(n2)
	_ = g.AddNode(node("n3", 0, 0))

	if got := g.FindNodesByField("subprocess", "refund"); len(got) != 1 || got[0] != n2 {
		t.Errorf("subprocess=refund -> %v", got)
	}
	if got := g.FindNodesByField("service", "web-app"); len(got) != 2 {
		t.Errorf("service=web-app -> %d nodes, want 2", len(got))
	}
}

func TestBlackBox(t *testing.T) {
	g := NewBlackBox(element.Contrast, "billing")
	if !g.BlackBox || g.NodeCount() != 1 || g.EdgeCount() != 0 {
		t.Fatalf("unexpected black box graph: %+v", g)
	}
	n := g.Nodes()[0]
	if n.Kind != element.KindBlackBox || n.Width != element.BlackBoxWidth || n.Height != element.BlackBoxHeight {
		t.Errorf("black box node = %+v", n)
	}
	if got := g.FindNodesByField("service", "billing"); len(got) != 1 {
		t.Errorf("service lookup = %v", got)
	}
	if got := g.FindNodesByField("subprocess", BlackBoxSubprocess); len(got) != 1 {
		t.Errorf("subprocess lookup = %v", got)
	}
	if got := g.FindNodesByField("service", "web-app"); len(got) != 0 {
		t.Errorf("other service lookup = %v", got)
	}
}

func TestFlipYAndShift(t *testing.T) {
	g := New(element.Single, nil, "svc", "sub")
	a, b := node("a", 0, 0), node("b", 0, 100)
	_ = g.AddNode(a)
	_ = g.AddNode(b)
	e := element.NewEdge(element.Element{ID: "e"}, "a", "b", []geom.Point{{X: 0, Y: 10}, {X: 0, Y: 120}})
	_ = g.AddEdge(e)

	// y-range spans nodes and waypoints: [0, 120].
	g.FlipY()
	if got := a.Center().Y; got != 120 {
		t.Errorf("a.y = %v, want 120", got)
	}
	if got := b.Center().Y; got != 20 {
		t.Errorf("b.y = %v, want 20", got)
	}
	if e.Waypoints[0].Y != 110 || e.Waypoints[1].Y != 0 {
		t.Errorf("waypoints = %v", e.Waypoints)
	}

	before, _ := g.Bounds()
	g.Shift(100, -50)
	after, _ := g.Bounds()
	if after != before.Translate(100, -50) {
		t.Errorf("bounds after shift = %+v, want %+v", after, before.Translate(100, -50))
	}
	if e.Waypoints[1] != geom.Pt(100, -50) {
		t.Errorf("waypoint after shift = %v", e.Waypoints[1])
	}
}

func TestBoundsEmpty(t *testing.T) {
	g := New(element.Single, nil, "svc", "sub")
	if _, ok := g.Bounds(); ok {
		t.Error("empty graph should report no bounds")
	}
}

func TestServiceBoxAndHull(t *testing.T) {
	nodes := []*element.Node{node("a", 0, 0), node("b", 100, 0)}
	box := ServiceBox(nodes, 10)
	// Task nodes are 70x70 when scaled from 1x1.
	want := geom.Rect{X: -45, Y: -45, Width: 190, Height: 90}
	if box != want {
		t.Errorf("ServiceBox = %+v, want %+v", box, want)
	}

	hull, err := GroupHull(nodes, geom.DefaultHullOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(hull) != 4 {
		t.Errorf("two nodes should give a rotated rectangle, got %d vertices", len(hull))
	}
	if _, err := GroupHull(nil, geom.DefaultHullOptions()); !errors.Is(err, geom.ErrNoPoints) {
		t.Errorf("empty hull err = %v", err)
	}
}
