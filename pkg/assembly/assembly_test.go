package assembly

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/matzehuels/procgraph/pkg/element"
	perrors "github.com/matzehuels/procgraph/pkg/errors"
	"github.com/matzehuels/procgraph/pkg/geom"
	"github.com/matzehuels/procgraph/pkg/layout"
	"github.com/matzehuels/procgraph/pkg/links"
	"github.com/matzehuels/procgraph/pkg/logdata"
	"github.com/matzehuels/procgraph/pkg/procgraph"
	"github.com/matzehuels/procgraph/pkg/topology"
)

// fakeEngine returns canned layouts keyed by flow description.
type fakeEngine map[string]*layout.Result

func (f fakeEngine) Layout(_ context.Context, flow string) (*layout.Result, error) {
	res, ok := f[flow]
	if !ok {
		return nil, fmt.Errorf("syntax error in %q", flow)
	}
	return res, nil
}

func ptr(x, y float64) *geom.Point {
	p := geom.Pt(x, y)
	return &p
}

func raw(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}

func stmt(id string) logdata.Statement {
	return logdata.Statement{ID: logdata.StatementID(id), Level: "INFO", Service: "web-app", Subprocess: "login"}
}

func entries(id string, n int, msg string) []logdata.Entry {
	out := make([]logdata.Entry, n)
	for i := range out {
		out[i] = logdata.Entry{StatementID: logdata.StatementID(id), Message: msg}
	}
	return out
}

func contrastLayout() *layout.Result {
	return &layout.Result{
		Objects: []layout.Object{
			{GVID: 0, Name: "cluster", Subgraph: true},
			{GVID: 1, Name: "start", Type: "StartEvent", Pos: ptr(100, 400), Width: 0.5, Height: 0.5,
				InGraph: raw("{'A': True, 'B': True}"), Count: raw("{'A': 3, 'B': 4}")},
			{GVID: 2, Name: "1", Type: "Task", Label: `\N`, Pos: ptr(100, 300), Width: 1, Height: 0.5},
			{GVID: 3, Name: "2", Type: "Task", Pos: ptr(100, 200), Width: 1, Height: 0.5},
			{GVID: 4, Name: "3", Type: "Task", Pos: ptr(100, 100), Width: 1, Height: 0.5},
			{GVID: 5, Name: "4", Type: "Task", Pos: ptr(300, 100), Width: 1, Height: 0.5},
			{GVID: 6, Name: "end", Type: "NormalEndEvent", Pos: ptr(100, 0), Width: 0.5, Height: 0.5,
				InGraph: raw("{'A': True, 'B': False}"), Count: raw("{'A': 1, 'B': 0}")},
		},
		Edges: []layout.Edge{
			{GVID: 0, Tail: 1, Head: 2,
				Points:  []geom.Point{geom.Pt(100, 390), geom.Pt(100, 360), geom.Pt(100, 340), geom.Pt(100, 310)},
				InGraph: raw("{'A': True, 'B': False}"), Count: json.RawMessage(`{"A": 2, "B": 0}`)},
			{GVID: 1, Tail: 4, Head: 6},
		},
	}
}

func contrastData() *logdata.Data {
	return &logdata.Data{
		A: &logdata.Dataset{
			Statements: []logdata.Statement{stmt("1"), stmt("3")},
			Logs:       append(entries("1", 2, "a"), entries("3", 1, "a")...),
		},
		B: &logdata.Dataset{
			Statements: []logdata.Statement{stmt("2"), stmt("3")},
			Logs:       append(entries("2", 1, "b"), entries("3", 3, "b")...),
		},
	}
}

func findNode(t *testing.T, g *procgraph.Graph, name string) *element.Node {
	t.Helper()
	for _, n := range g.Nodes() {
		if n.Name == name {
			return n
		}
	}
	t.Fatalf("node %q not found", name)
	return nil
}

func TestBuildProcessGraphContrast(t *testing.T) {
	b := NewBuilder(fakeEngine{"flow": contrastLayout()}, nil)
	g, diags := b.BuildProcessGraph(context.Background(), element.Contrast, "flow", contrastData(), "web-app", "login")
	if len(diags) != 0 {
		t.Fatalf("diagnostics = %v", diags)
	}
	if g.NodeCount() != 6 || g.EdgeCount() != 2 {
		t.Fatalf("nodes = %d, edges = %d; want 6, 2", g.NodeCount(), g.EdgeCount())
	}

	tests := []struct {
		name   string
		inA    bool
		inB    bool
		countA int
		countB int
	}{
		{"1", true, false, 2, 0},
		{"2", false, true, 0, 1},
		{"3", true, true, 1, 3},
		{"4", false, false, 0, 0},
		{"start", true, true, 3, 4},
		{"end", true, false, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := findNode(t, g, tt.name)
			if n.Membership.A != tt.inA || n.Membership.B != tt.inB {
				t.Errorf("membership = %+v, want A=%v B=%v", n.Membership, tt.inA, tt.inB)
			}
			if n.Counts.A != tt.countA || n.Counts.B != tt.countB {
				t.Errorf("counts = %+v, want A=%d B=%d", n.Counts, tt.countA, tt.countB)
			}
			if n.CountDifference() != tt.countB-tt.countA {
				t.Errorf("CountDifference() = %d", n.CountDifference())
			}
		})
	}

	task := findNode(t, g, "1")
	if task.Statement == nil || task.Statement.ID != "1" || len(task.Logs.A) != 2 {
		t.Errorf("task correlation = %+v / %+v", task.Statement, task.Logs)
	}
	if task.Label != "" || task.DisplayLabel() != "1" {
		t.Errorf("default label not cleared: %q", task.Label)
	}
	if task.ID != element.NodeID(g.ID, 2) {
		t.Errorf("node id = %s", task.ID)
	}

	agg := g.Aggregates()
	if agg.HighestCountA != 3 || agg.HighestCountB != 4 {
		t.Errorf("aggregates = %+v", agg)
	}
	if agg.MaxCountDifference != 2 || agg.MinCountDifference != -2 {
		t.Errorf("difference range = [%d, %d], want [-2, 2]", agg.MinCountDifference, agg.MaxCountDifference)
	}
}

func TestBuildProcessGraphFlipsAndAnchors(t *testing.T) {
	b := NewBuilder(fakeEngine{"flow": contrastLayout()}, nil)
	g, _ := b.BuildProcessGraph(context.Background(), element.Contrast, "flow", contrastData(), "web-app", "login")

	start := findNode(t, g, "start")
	end := findNode(t, g, "end")
	if start.Center() != geom.Pt(100, 0) || end.Center() != geom.Pt(100, 400) {
		t.Errorf("flip: start %v end %v, want (100,0) and (100,400)", start.Center(), end.Center())
	}

	e, ok := g.Edge(element.EdgeID(g.ID, 0))
	if !ok {
		t.Fatal("edge 0 missing")
	}
	first := e.Waypoints[0]
	if d := first.Dist(start.Center()); math.Abs(d-element.EventSize/2) > 1e-9 {
		t.Errorf("first waypoint %v is %v from start center, want %v", first, d, element.EventSize/2)
	}
	if last := e.Waypoints[len(e.Waypoints)-1]; last != geom.Pt(100, 90) {
		t.Errorf("last waypoint = %v, want task endpoint (100,90)", last)
	}
	if len(start.Outgoing()) != 1 || len(findNode(t, g, "1").Incoming()) != 1 {
		t.Error("adjacency not registered")
	}

	// edge without points falls back to a center line
	e1, _ := g.Edge(element.EdgeID(g.ID, 1))
	if len(e1.Waypoints) != 2 {
		t.Errorf("fallback waypoints = %v", e1.Waypoints)
	}
}

func TestBuildProcessGraphSingleCounts(t *testing.T) {
	res := &layout.Result{Objects: []layout.Object{
		{GVID: 0, Name: "7", Type: "Task", Pos: ptr(0, 0), Width: 1, Height: 1},
		{GVID: 1, Name: "8", Type: "Task", Pos: ptr(0, 100), Width: 1, Height: 1, Count: raw("5")},
		{GVID: 2, Name: "s", Type: "StartEvent", Pos: ptr(0, 200), Width: 1, Height: 1, Count: json.RawMessage("2")},
	}}
	data := &logdata.Data{Single: &logdata.Dataset{
		Statements: []logdata.Statement{stmt("7"), stmt("8")},
		Logs:       append(entries("7", 4, "x"), entries("8", 1, "x")...),
	}}
	b := NewBuilder(fakeEngine{"flow": res}, nil)
	g, diags := b.BuildProcessGraph(context.Background(), element.Single, "flow", data, "web-app", "login")
	if len(diags) != 0 {
		t.Fatalf("diagnostics = %v", diags)
	}
	for name, want := range map[string]int{"7": 4, "8": 5, "s": 2} {
		if got := findNode(t, g, name).Count; got != want {
			t.Errorf("count(%s) = %d, want %d", name, got, want)
		}
	}
	if got := g.Aggregates().HighestCount; got != 5 {
		t.Errorf("HighestCount = %d, want 5", got)
	}
	if len(g.Services) != 1 || g.Services[0] != "web-app" {
		t.Errorf("Services = %v", g.Services)
	}
}

func TestBuildProcessGraphLayoutFailure(t *testing.T) {
	b := NewBuilder(fakeEngine{}, nil)
	for _, flow := range []string{"digraph {", "  "} {
		g, diags := b.BuildProcessGraph(context.Background(), element.Single, flow, nil, "svc", "sub")
		if !g.Empty() {
			t.Errorf("%q: graph not empty", flow)
		}
		if len(diags) != 1 || diags[0].Code != perrors.ErrCodeLayoutFailed {
			t.Errorf("%q: diagnostics = %v, want one LAYOUT_FAILED", flow, diags)
		}
		if diags[0].Service != "svc" || diags[0].Subprocess != "sub" {
			t.Errorf("diagnostic origin = %s/%s", diags[0].Service, diags[0].Subprocess)
		}
	}
}

func TestBuildProcessGraphStructuralMisuse(t *testing.T) {
	res := &layout.Result{
		Objects: []layout.Object{{GVID: 0, Name: "1", Type: "Task", Pos: ptr(0, 0), Width: 1, Height: 1}},
		Edges:   []layout.Edge{{GVID: 0, Tail: 0, Head: 42}},
	}
	b := NewBuilder(fakeEngine{"flow": res}, nil)
	g, diags := b.BuildProcessGraph(context.Background(), element.Single, "flow", nil, "svc", "sub")
	if !g.Empty() || g.EdgeCount() != 0 {
		t.Errorf("graph = %d nodes, %d edges; want empty", g.NodeCount(), g.EdgeCount())
	}
	if len(diags) != 1 || diags[0].Code != perrors.ErrCodeStructuralMisuse {
		t.Fatalf("diagnostics = %v, want one STRUCTURAL_MISUSE", diags)
	}
}

func TestBuildProcessGraphMalformedRecovers(t *testing.T) {
	res := &layout.Result{
		Objects: []layout.Object{
			{GVID: 0, Name: "g", Type: "ExclusiveGateway", Pos: ptr(0, 0), Width: 1, Height: 1,
				InGraph: raw("{A: maybe}"), Count: raw("{'A': -1, 'B': 2}")},
			{GVID: 1, Name: "odd", Type: "DataObject", Pos: ptr(0, 100)},
			{GVID: 2, Name: "nowhere", Type: "Task"},
		},
		Edges: []layout.Edge{{GVID: 0, Tail: 0, Head: 1}},
	}
	b := NewBuilder(fakeEngine{"flow": res}, nil)
	g, diags := b.BuildProcessGraph(context.Background(), element.Contrast, "flow", nil, "svc", "sub")

	if g.NodeCount() != 1 || g.EdgeCount() != 0 {
		t.Errorf("graph = %d nodes, %d edges; want 1, 0", g.NodeCount(), g.EdgeCount())
	}
	n := findNode(t, g, "g")
	if n.Membership != (element.Membership{}) || n.Counts != (element.Counts{}) {
		t.Errorf("malformed annotations not zeroed: %+v %+v", n.Membership, n.Counts)
	}
	if got := CountByCode(diags)[perrors.ErrCodeMalformedEncoding]; got != 4 {
		t.Errorf("MALFORMED_ENCODING diagnostics = %d, want 4: %v", got, diags)
	}
}

func tiledGraph(t *testing.T, service, subprocess string, centers ...geom.Point) *procgraph.Graph {
	t.Helper()
	g := procgraph.New(element.Single, nil, service, subprocess)
	for i, c := range centers {
		pos := c
		el := element.Element{ID: element.NodeID(g.ID, i), GraphID: g.ID, Service: service, Position: &pos}
		if err := g.AddNode(element.NewNode(el, element.KindTask, "n", "", 1, 1)); err != nil {
			t.Fatal(err)
		}
	}
	return g
}

func TestPlanTiling(t *testing.T) {
	graphs := []*procgraph.Graph{
		tiledGraph(t, "alpha", "y", geom.Pt(0, 0)),
		tiledGraph(t, "web-app", "b", geom.Pt(0, 0)),
		tiledGraph(t, "zeta", "empty"),
		tiledGraph(t, "pcm-service", "x", geom.Pt(0, 0)),
		tiledGraph(t, "web-app", "a", geom.Pt(0, 0)),
	}
	opts := DefaultTilingOptions(element.Single)
	plan := PlanTiling(graphs, opts)

	want := []struct {
		key    string
		offset geom.Point
	}{
		{"web-app/a", geom.Pt(400, 400)},
		{"web-app/b", geom.Pt(400, 35+400+900)},
		{"pcm-service/x", geom.Pt(400+70+1600, 400)},
		{"alpha/y", geom.Pt(2070+70+1600, 400)},
		{"zeta/empty", geom.Pt(3740+70+1600, 400)},
	}
	if len(plan) != len(want) {
		t.Fatalf("plan has %d entries, want %d", len(plan), len(want))
	}
	for i, w := range want {
		if plan[i].Graph.Key() != w.key || plan[i].Offset != w.offset {
			t.Errorf("plan[%d] = %s at %v, want %s at %v", i, plan[i].Graph.Key(), plan[i].Offset, w.key, w.offset)
		}
	}

	again := PlanTiling(graphs, opts)
	for i := range plan {
		if plan[i] != again[i] {
			t.Errorf("PlanTiling not deterministic at %d: %+v vs %+v", i, plan[i], again[i])
		}
	}
}

func TestSortGraphsContrastOrder(t *testing.T) {
	graphs := []*procgraph.Graph{
		tiledGraph(t, "pcm-service", "a"),
		tiledGraph(t, "experiment-service", "a"),
		tiledGraph(t, "web-app", "a"),
	}
	got := SortGraphs(graphs, DefaultOrder(element.Contrast))
	var keys []string
	for _, g := range got {
		keys = append(keys, g.Service)
	}
	if strings.Join(keys, ",") != "web-app,experiment-service,pcm-service" {
		t.Errorf("order = %v", keys)
	}
}

func TestFinalizeLayoutShifts(t *testing.T) {
	g := tiledGraph(t, "web-app", "a", geom.Pt(10, 20))
	out := FinalizeLayout([]*procgraph.Graph{g}, DefaultTilingOptions(element.Single))
	if len(out) != 1 || out[0].Nodes()[0].Center() != geom.Pt(410, 420) {
		t.Errorf("shifted center = %v, want (410,420)", out[0].Nodes()[0].Center())
	}
}

func taskLayout(name string) *layout.Result {
	return &layout.Result{Objects: []layout.Object{
		{GVID: 0, Name: name, Type: "Task", Pos: ptr(0, 0), Width: 1, Height: 1},
	}}
}

const topologyRequest = `{
  "viewType": "single",
  "graphType": "BPMN",
  "services": ["web-app", "pcm-service", "Z"],
  "data": {
    "web-app": {
      "login":    {"flowDescription": "login", "logData": {"log_statements": [{"logging_statement_id": 1, "level": "INFO", "file": "a"}], "logs": [
        {"logging_statement_id": 1, "message": "[LINK] API - sync - Source: {web-app} - Destination: {pcm-service}"},
        {"logging_statement_id": 1, "message": "[LINK] API - audit - Source: {web-app} - Destination: {Z}"},
        {"logging_statement_id": 1, "message": "[LINK] API - broken"}
      ]}},
      "checkout": {"flowDescription": "checkout", "logData": {"log_statements": [], "logs": []}},
      "broken":   {"flowDescription": "does not parse", "logData": {"log_statements": [], "logs": []}}
    },
    "pcm-service": {
      "sync": {"flowDescription": "sync", "logData": {"log_statements": [{"logging_statement_id": 5, "level": "INFO", "file": "b"}], "logs": [
        {"logging_statement_id": 5, "message": "[LINK] API - sync - Source: {web-app} - Destination: {pcm-service}"}
      ]}}
    }
  }
}`

func TestAssembleTopology(t *testing.T) {
	in, err := topology.Parse([]byte(topologyRequest))
	if err != nil {
		t.Fatal(err)
	}
	engine := fakeEngine{
		"login":    taskLayout("1"),
		"checkout": taskLayout("2"),
		"sync":     taskLayout("5"),
	}
	b := NewBuilder(engine, nil)
	b.Concurrency = 2
	res, err := b.AssembleTopology(context.Background(), in, TilingOptions{XSpacing: 1600, YSpacing: 900, Padding: 400})
	if err != nil {
		t.Fatal(err)
	}

	var keys []string
	for _, g := range res.Graphs {
		keys = append(keys, g.Key())
	}
	if got := strings.Join(keys, ","); got != "web-app/broken,web-app/checkout,web-app/login,pcm-service/sync,Z/BlackBox" {
		t.Errorf("graph order = %s", got)
	}

	bb, ok := res.Graph("Z", procgraph.BlackBoxSubprocess)
	if !ok || !bb.BlackBox || bb.NodeCount() != 1 || bb.EdgeCount() != 0 {
		t.Fatalf("black box for Z = %+v", bb)
	}

	if len(res.Links) != 2 {
		t.Fatalf("links = %+v, want 2", res.Links)
	}
	login, _ := res.Graph("web-app", "login")
	sync, _ := res.Graph("pcm-service", "sync")
	byAction := map[string]links.Link{}
	for _, l := range res.Links {
		byAction[l.Action] = l
	}
	if l := byAction["sync"]; l.SourceGraphID != login.ID || l.TargetGraphID != sync.ID {
		t.Errorf("sync link = %+v", l)
	}
	if l := byAction["audit"]; l.TargetNodeID != bb.Nodes()[0].ID {
		t.Errorf("audit link = %+v, want black box target", l)
	}

	codes := CountByCode(res.Diagnostics)
	if codes[perrors.ErrCodeLayoutFailed] != 1 || codes[perrors.ErrCodeMalformedLink] != 1 {
		t.Errorf("diagnostics = %v", res.Diagnostics)
	}
}

func TestAssembleTopologyCanceled(t *testing.T) {
	in, err := topology.Parse([]byte(topologyRequest))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewBuilder(fakeEngine{}, nil).AssembleTopology(ctx, in, DefaultTilingOptions(element.Single))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
