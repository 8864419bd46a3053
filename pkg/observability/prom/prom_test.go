package prom

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/matzehuels/procgraph/pkg/observability"
)

func TestHooksRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := New(reg)
	ctx := context.Background()

	h.OnAssembleComplete(ctx, "Single", 3, time.Second, nil)
	h.OnAssembleComplete(ctx, "Single", 0, time.Second, errors.New("x"))
	h.OnLayoutComplete(ctx, "web-app", "login", time.Millisecond, nil)
	h.OnLinksInferred(ctx, "API", 2)
	h.OnLinksInferred(ctx, "API", 1)
	h.OnDiagnostic(ctx, "LAYOUT_FAILED")
	h.OnCacheHit(ctx, "layout")
	h.OnCacheSet(ctx, "layout", 100)
	h.OnResponse(ctx, "POST", "/v1/assemble", 422, time.Millisecond)

	tests := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"assemblies ok", h.assemblies.WithLabelValues("Single", "ok"), 1},
		{"assemblies error", h.assemblies.WithLabelValues("Single", "error"), 1},
		{"graphs", h.graphs, 3},
		{"layouts", h.layouts.WithLabelValues("ok"), 1},
		{"links", h.links.WithLabelValues("API"), 3},
		{"diagnostics", h.diagnostics.WithLabelValues("LAYOUT_FAILED"), 1},
		{"cache hit", h.cacheOps.WithLabelValues("layout", "hit"), 1},
		{"cache bytes", h.cacheBytes.WithLabelValues("layout"), 100},
		{"requests", h.requests.WithLabelValues("POST", "/v1/assemble", "4xx"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := testutil.ToFloat64(tt.c); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInstall(t *testing.T) {
	defer observability.Reset()
	h := New(prometheus.NewRegistry())
	h.Install()
	if observability.Pipeline() != observability.PipelineHooks(h) {
		t.Error("pipeline hooks not installed")
	}
	if observability.Cache() != observability.CacheHooks(h) {
		t.Error("cache hooks not installed")
	}
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := New(reg)
	h.OnDiagnostic(context.Background(), "MALFORMED_LINK")

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `procgraph_diagnostics_total{code="MALFORMED_LINK"} 1`) {
		t.Errorf("metrics output missing diagnostic counter:\n%s", body)
	}
}

func TestStatusClass(t *testing.T) {
	for code, want := range map[int]string{200: "2xx", 204: "2xx", 304: "3xx", 404: "4xx", 503: "5xx"} {
		if got := statusClass(code); got != want {
			t.Errorf("statusClass(%d) = %q, want %q", code, got, want)
		}
	}
}
