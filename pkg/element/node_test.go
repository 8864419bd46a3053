package element

import (
	"errors"
	"testing"

	"github.com/matzehuels/procgraph/pkg/geom"
	"github.com/matzehuels/procgraph/pkg/logdata"
)

func at(x, y float64) Element {
	p := geom.Pt(x, y)
	return Element{Position: &p}
}

func TestNewNodeSizes(t *testing.T) {
	tests := []struct {
		kind          Kind
		width, height float64
		scaled        geom.Rect
	}{
		{KindTask, 1.5, 0.5, geom.Rect{X: -52.5, Y: -17.5, Width: 105, Height: 35}},
		{KindStartEvent, 9, 9, geom.Rect{X: -75, Y: -75, Width: 150, Height: 150}},
		{KindExclusiveGateway, 9, 9, geom.Rect{X: -63, Y: -63, Width: 126, Height: 126}},
		{KindBlackBox, 0, 0, geom.Rect{X: -600, Y: -400, Width: 1200, Height: 800}},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			n := NewNode(at(0, 0), tt.kind, "n", "", tt.width, tt.height)
			if got := n.ScaledBounds(); got != tt.scaled {
				t.Errorf("ScaledBounds() = %+v, want %+v", got, tt.scaled)
			}
		})
	}
}

func TestDisplayLabel(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindTask, "42"},
		{KindStartEvent, "Start"},
		{KindEndEvent, "End"},
		{KindExclusiveGateway, "X"},
		{KindParallelGateway, "+"},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			n := NewNode(Element{}, tt.kind, "42", "", 1, 1)
			if got := n.DisplayLabel(); got != tt.want {
				t.Errorf("DisplayLabel() = %q, want %q", got, tt.want)
			}
		})
	}

	bb := NewNode(Element{Service: "billing"}, KindBlackBox, "", "", 0, 0)
	if got := bb.DisplayLabel(); got != "billing" {
		t.Errorf("black box label = %q, want service name", got)
	}
}

func TestParseKind(t *testing.T) {
	for _, s := range []string{"Task", "StartEvent", "NormalEndEvent", "ExclusiveGateway", "ParallelGateway"} {
		if _, ok := ParseKind(s); !ok {
			t.Errorf("ParseKind(%q) not recognised", s)
		}
	}
	if k, _ := ParseKind("NormalEndEvent"); k != KindEndEvent {
		t.Errorf("NormalEndEvent = %v, want EndEvent", k)
	}
	if _, ok := ParseKind("SubProcess"); ok {
		t.Error("ParseKind(SubProcess) should not be recognised")
	}
}

func TestConnectNodesAnchorsWaypoints(t *testing.T) {
	start := NewNode(at(0, 0), KindStartEvent, "s", "", 0, 0)
	gw := NewNode(at(200, 0), KindExclusiveGateway, "g", "", 0, 0)
	start.ID, gw.ID = "n0", "n1"

	e := NewEdge(Element{ID: "e0"}, "", "", []geom.Point{{X: 10, Y: 0}, {X: 100, Y: 0}, {X: 190, Y: 0}})
	if err := e.ConnectNodes(start, gw); err != nil {
		t.Fatal(err)
	}

	if e.SourceID != "n0" || e.TargetID != "n1" {
		t.Errorf("ids = %s -> %s", e.SourceID, e.TargetID)
	}
	// Event radius is 25, gateway half-diagonal is 21.
	if got := e.Waypoints[0]; got.Dist(geom.Pt(25, 0)) > 1e-9 {
		t.Errorf("first waypoint = %v, want (25,0)", got)
	}
	if got := e.Waypoints[2]; got.Dist(geom.Pt(179, 0)) > 1e-9 {
		t.Errorf("last waypoint = %v, want (179,0)", got)
	}
	if out := start.Outgoing(); len(out) != 1 || out[0] != e {
		t.Errorf("start outgoing = %v", out)
	}
	if in := gw.Incoming(); len(in) != 1 || in[0] != e {
		t.Errorf("gateway incoming = %v", in)
	}
}

func TestConnectNodesRejectsMissingNodes(t *testing.T) {
	n := NewNode(Element{ID: "n"}, KindTask, "1", "", 1, 1)
	e := NewEdge(Element{ID: "e"}, "n", "missing", nil)
	if err := e.ConnectNodes(n, nil); !errors.Is(err, ErrNilNode) {
		t.Errorf("err = %v, want ErrNilNode", err)
	}
	if err := n.AddIncoming(nil); !errors.Is(err, ErrNilEdge) {
		t.Errorf("err = %v, want ErrNilEdge", err)
	}
}

func TestShift(t *testing.T) {
	n := NewNode(at(1, 2), KindTask, "1", "", 1, 1)
	n.Shift(10, 20)
	if got := n.Center(); got != geom.Pt(11, 22) {
		t.Errorf("center = %v", got)
	}

	e := NewEdge(Element{}, "a", "b", []geom.Point{{X: 0, Y: 0}, {X: 5, Y: 5}})
	e.Shift(1, -1)
	if e.Waypoints[1] != geom.Pt(6, 4) {
		t.Errorf("waypoint = %v", e.Waypoints[1])
	}
}

func TestCorrelate(t *testing.T) {
	n := NewNode(Element{}, KindTask, "7", "", 1, 1)
	stmt := &logdata.Statement{ID: "7", Level: "warning", Class: "Survey"}
	n.Correlate(stmt, Logs{Single: []logdata.Entry{{StatementID: "7"}}})

	if n.LogLevel != "WARN" {
		t.Errorf("LogLevel = %q, want WARN", n.LogLevel)
	}
	if v, ok := n.StatementField("class"); !ok || v != "Survey" {
		t.Errorf("StatementField(class) = %q, %v", v, ok)
	}
}
