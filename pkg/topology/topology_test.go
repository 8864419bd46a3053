package topology

import (
	"strings"
	"testing"

	"github.com/matzehuels/procgraph/pkg/element"
	perrors "github.com/matzehuels/procgraph/pkg/errors"
)

const contrastRequest = `{
  "viewType": "contrast",
  "graphType": "BPMN",
  "services": ["web-app", "pcm-service", "Z"],
  "data": {
    "web-app": {
      "login": {
        "flowDescription": "digraph { a -> b }",
        "logData": {
          "A": {"log_statements": [{"logging_statement_id": 1, "level": "INFO", "file": "a.py"}], "logs": []},
          "B": {"log_statements": [], "logs": []}
        }
      },
      "checkout": {"graphData": "digraph { c }", "logData": {"A": {}, "B": {}}}
    },
    "pcm-service": {
      "sync": {"flowDescription": "digraph { d }", "logData": {"A": {}, "B": {}}}
    }
  }
}`

func TestDecode(t *testing.T) {
	in, err := Decode(strings.NewReader(contrastRequest))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if in.View() != element.Contrast {
		t.Errorf("View() = %v, want contrast", in.View())
	}

	pairs := in.Pairs()
	want := []string{"pcm-service/sync", "web-app/checkout", "web-app/login"}
	if len(pairs) != len(want) {
		t.Fatalf("pairs = %d, want %d", len(pairs), len(want))
	}
	for i, p := range pairs {
		if got := p.Service + "/" + p.Subprocess; got != want[i] {
			t.Errorf("pairs[%d] = %s, want %s", i, got, want[i])
		}
	}
	if pairs[1].Flow != "digraph { c }" {
		t.Errorf("graphData alias not honored: %q", pairs[1].Flow)
	}
	if !pairs[2].Data.Contrast() || len(pairs[2].Data.A.Statements) != 1 {
		t.Errorf("login data = %+v", pairs[2].Data)
	}

	if got := in.MissingServices(); len(got) != 1 || got[0] != "Z" {
		t.Errorf("MissingServices() = %v, want [Z]", got)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code perrors.Code
	}{
		{"bad json", `{`, perrors.ErrCodeInvalidInput},
		{"bad view", `{"viewType": "triple"}`, perrors.ErrCodeInvalidViewType},
		{"bad graph type", `{"viewType": "single", "graphType": "Petri"}`, perrors.ErrCodeUnsupported},
		{"bad service", `{"viewType": "single", "services": ["../etc"]}`, perrors.ErrCodeInvalidService},
		{"null pair", `{"viewType": "single", "data": {"a": {"b": null}}}`, perrors.ErrCodeInvalidInput},
		{
			"contrast data in single view",
			`{"viewType": "single", "data": {"a": {"b": {"flowDescription": "x", "logData": {"A": {"logs": [{"logging_statement_id": 1}]}}}}}}`,
			perrors.ErrCodeInvalidInput,
		},
		{
			"single data in contrast view",
			`{"viewType": "contrast", "data": {"a": {"b": {"flowDescription": "x", "logData": {"logs": [{"logging_statement_id": 1}]}}}}}`,
			perrors.ErrCodeInvalidInput,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.body))
			if !perrors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestMissingLogDataDefaults(t *testing.T) {
	in, err := Parse([]byte(`{"viewType": "Single", "data": {"a": {"b": {"flowDescription": "x"}}}}`))
	if err != nil {
		t.Fatal(err)
	}
	p := in.Pairs()[0]
	if p.Data == nil || !p.Data.Empty() {
		t.Errorf("Data = %+v, want empty default", p.Data)
	}
}

func TestAllServices(t *testing.T) {
	in := &Input{
		Services: []string{"b", "a"},
		Data:     map[string]map[string]*SubprocessInput{"c": {}, "a": {}, "d": {}},
	}
	got := in.AllServices()
	want := []string{"b", "a", "c", "d"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("AllServices() = %v, want %v", got, want)
	}
}

func TestMissingServicesDeduplicates(t *testing.T) {
	in := &Input{Services: []string{"x", "x", "y"}, Data: map[string]map[string]*SubprocessInput{"y": {"s": {}}}}
	if got := in.MissingServices(); len(got) != 1 || got[0] != "x" {
		t.Errorf("MissingServices() = %v, want [x]", got)
	}
}
