// Package layout runs flow descriptions through an external layout engine
// and decodes the positioned result.
//
// The engine is a black box behind [Engine]: it takes a flow description in
// DOT syntax and returns positioned objects (nodes) and edges with spline
// control points. [Graphviz] drives Graphviz through its WebAssembly build
// and decodes the "json" output format with [ParseGraphviz]. [Cached] puts
// any engine behind a [cache.Cache].
//
// Custom node and edge attributes of the flow description ("type",
// "in_graph", "count") pass through the engine untouched and are kept as
// raw JSON for the element decoders.
package layout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/procgraph/pkg/geom"
)

// ErrNoOutput is returned when the engine produced no usable document.
var ErrNoOutput = errors.New("layout: empty engine output")

// Engine computes a layout for a flow description.
type Engine interface {
	Layout(ctx context.Context, flow string) (*Result, error)
}

// EngineFunc adapts a function to the Engine interface.
type EngineFunc func(ctx context.Context, flow string) (*Result, error)

// Layout implements Engine.
func (f EngineFunc) Layout(ctx context.Context, flow string) (*Result, error) {
	return f(ctx, flow)
}

// Result is a positioned flow description.
type Result struct {
	Objects []Object `json:"objects"`
	Edges   []Edge   `json:"edges"`
}

// Object is a positioned node. Width and Height are in the engine's units
// (inches for Graphviz).
type Object struct {
	GVID     int             `json:"gvid"`
	Name     string          `json:"name"`
	Type     string          `json:"type,omitempty"`
	Label    string          `json:"label,omitempty"`
	Pos      *geom.Point     `json:"pos,omitempty"`
	Width    float64         `json:"width,omitempty"`
	Height   float64         `json:"height,omitempty"`
	InGraph  json.RawMessage `json:"in_graph,omitempty"`
	Count    json.RawMessage `json:"count,omitempty"`
	Subgraph bool            `json:"subgraph,omitempty"`
}

// Edge is a routed edge between two objects, referenced by GVID.
type Edge struct {
	GVID    int             `json:"gvid"`
	Tail    int             `json:"tail"`
	Head    int             `json:"head"`
	Points  []geom.Point    `json:"points,omitempty"`
	InGraph json.RawMessage `json:"in_graph,omitempty"`
	Count   json.RawMessage `json:"count,omitempty"`
}

// ParseGraphviz decodes Graphviz "json" output. Subgraph objects are kept
// but flagged. Edge points come from the first Bézier drawing operation,
// falling back to the "pos" spline.
func ParseGraphviz(data []byte) (*Result, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, ErrNoOutput
	}
	var doc struct {
		Objects []map[string]json.RawMessage `json:"objects"`
		Edges   []map[string]json.RawMessage `json:"edges"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode graphviz json: %w", err)
	}

	res := &Result{}
	for i, raw := range doc.Objects {
		obj, err := parseObject(raw)
		if err != nil {
			return nil, fmt.Errorf("object %d: %w", i, err)
		}
		res.Objects = append(res.Objects, obj)
	}
	for i, raw := range doc.Edges {
		e, err := parseEdge(raw)
		if err != nil {
			return nil, fmt.Errorf("edge %d: %w", i, err)
		}
		res.Edges = append(res.Edges, e)
	}
	return res, nil
}

func parseObject(raw map[string]json.RawMessage) (Object, error) {
	var obj Object
	var err error
	if obj.GVID, err = intAttr(raw, "_gvid"); err != nil {
		return obj, err
	}
	obj.Name = stringAttr(raw, "name")
	obj.Type = stringAttr(raw, "type")
	obj.Label = stringAttr(raw, "label")
	_, obj.Subgraph = raw["nodes"]

	if s := stringAttr(raw, "pos"); s != "" {
		p, err := ParsePoint(s)
		if err != nil {
			return obj, fmt.Errorf("pos: %w", err)
		}
		obj.Pos = &p
	}
	if obj.Width, err = floatAttr(raw, "width"); err != nil {
		return obj, err
	}
	if obj.Height, err = floatAttr(raw, "height"); err != nil {
		return obj, err
	}
	obj.InGraph = raw["in_graph"]
	obj.Count = raw["count"]
	return obj, nil
}

func parseEdge(raw map[string]json.RawMessage) (Edge, error) {
	var e Edge
	var err error
	if e.GVID, err = intAttr(raw, "_gvid"); err != nil {
		return e, err
	}
	if e.Tail, err = intAttr(raw, "tail"); err != nil {
		return e, err
	}
	if e.Head, err = intAttr(raw, "head"); err != nil {
		return e, err
	}
	e.InGraph = raw["in_graph"]
	e.Count = raw["count"]

	if d, ok := raw["_draw_"]; ok {
		var ops []struct {
			Op     string       `json:"op"`
			Points [][2]float64 `json:"points"`
		}
		if err := json.Unmarshal(d, &ops); err != nil {
			return e, fmt.Errorf("_draw_: %w", err)
		}
		for _, op := range ops {
			if op.Op != "b" && op.Op != "B" {
				continue
			}
			for _, p := range op.Points {
				e.Points = append(e.Points, geom.Pt(p[0], p[1]))
			}
			break
		}
	}
	if len(e.Points) == 0 {
		if s := stringAttr(raw, "pos"); s != "" {
			if e.Points, err = ParseSpline(s); err != nil {
				return e, fmt.Errorf("pos: %w", err)
			}
		}
	}
	return e, nil
}

// ParsePoint parses "x,y".
func ParsePoint(s string) (geom.Point, error) {
	xs, ys, ok := strings.Cut(strings.TrimSpace(s), ",")
	if !ok {
		return geom.Point{}, fmt.Errorf("invalid point %q", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return geom.Point{}, fmt.Errorf("invalid point %q: %w", s, err)
	}
	// Graphviz may append a third coordinate or a "!" pin marker.
	ys, _, _ = strings.Cut(ys, ",")
	y, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(ys), "!"), 64)
	if err != nil {
		return geom.Point{}, fmt.Errorf("invalid point %q: %w", s, err)
	}
	return geom.Pt(x, y), nil
}

// ParseSpline parses a Graphviz edge "pos" attribute: space separated
// points, optionally led by "s,x,y" and "e,x,y" arrow endpoints. The
// endpoints are placed at the start and end of the returned control points.
func ParseSpline(s string) ([]geom.Point, error) {
	var start, end *geom.Point
	var pts []geom.Point
	for _, f := range strings.Fields(strings.ReplaceAll(s, ";", " ")) {
		switch {
		case strings.HasPrefix(f, "s,"):
			p, err := ParsePoint(f[2:])
			if err != nil {
				return nil, err
			}
			start = &p
		case strings.HasPrefix(f, "e,"):
			p, err := ParsePoint(f[2:])
			if err != nil {
				return nil, err
			}
			end = &p
		default:
			p, err := ParsePoint(f)
			if err != nil {
				return nil, err
			}
			pts = append(pts, p)
		}
	}
	if start != nil {
		pts = append([]geom.Point{*start}, pts...)
	}
	if end != nil {
		pts = append(pts, *end)
	}
	return pts, nil
}

func stringAttr(raw map[string]json.RawMessage, key string) string {
	v, ok := raw[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(v))
}

func intAttr(raw map[string]json.RawMessage, key string) (int, error) {
	v, ok := raw[key]
	if !ok {
		return 0, fmt.Errorf("missing %s", key)
	}
	var n int
	if err := json.Unmarshal(v, &n); err == nil {
		return n, nil
	}
	n, err := strconv.Atoi(stringAttr(raw, key))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func floatAttr(raw map[string]json.RawMessage, key string) (float64, error) {
	if _, ok := raw[key]; !ok {
		return 0, nil
	}
	s := stringAttr(raw, key)
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}
