// Package topology decodes and validates topology requests: the set of
// services of a system and, per (service, subprocess) pair, a flow
// description with the log data of one or two executions.
//
// A request has the shape
//
//	{
//	  "viewType": "single" | "contrast",
//	  "graphType": "BPMN",
//	  "services": ["web-app", ...],
//	  "data": {
//	    "<service>": {
//	      "<subprocess>": {"flowDescription": "digraph {...}", "logData": {...}}
//	    }
//	  }
//	}
//
// "graphData" is accepted as an alias of "flowDescription".
package topology

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"

	"github.com/matzehuels/procgraph/pkg/element"
	perrors "github.com/matzehuels/procgraph/pkg/errors"
	"github.com/matzehuels/procgraph/pkg/logdata"
)

// GraphTypeBPMN is the only supported graph type.
const GraphTypeBPMN = "BPMN"

// Input is a decoded topology request.
type Input struct {
	ViewType  string                                 `json:"viewType"`
	GraphType string                                 `json:"graphType"`
	Services  []string                               `json:"services"`
	Data      map[string]map[string]*SubprocessInput `json:"data"`

	view element.ViewType
}

// SubprocessInput is the input of one (service, subprocess) pair.
type SubprocessInput struct {
	FlowDescription string        `json:"flowDescription"`
	GraphData       string        `json:"graphData,omitempty"`
	LogData         *logdata.Data `json:"logData"`
}

// Flow returns the flow description, preferring flowDescription over the
// graphData alias.
func (s *SubprocessInput) Flow() string {
	if s.FlowDescription != "" {
		return s.FlowDescription
	}
	return s.GraphData
}

// Pair is one (service, subprocess) unit of assembly.
type Pair struct {
	Service    string
	Subprocess string
	Flow       string
	Data       *logdata.Data
}

// Decode reads and validates a topology request.
func Decode(r io.Reader) (*Input, error) {
	var in Input
	dec := json.NewDecoder(r)
	if err := dec.Decode(&in); err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInvalidInput, err, "decode topology")
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return &in, nil
}

// Parse decodes a topology request from bytes.
func Parse(data []byte) (*Input, error) {
	return Decode(bytes.NewReader(data))
}

// Validate checks the request and resolves its view type. A Contrast
// request must carry A/B log data for every pair and a Single request must
// not.
func (in *Input) Validate() error {
	view, err := element.ParseViewType(in.ViewType)
	if err != nil {
		return perrors.Wrap(perrors.ErrCodeInvalidViewType, err, "viewType")
	}
	in.view = view

	if in.GraphType != "" && !strings.EqualFold(in.GraphType, GraphTypeBPMN) {
		return perrors.New(perrors.ErrCodeUnsupported, "unsupported graph type %q", in.GraphType)
	}

	for _, svc := range in.Services {
		if err := perrors.ValidateServiceName(svc); err != nil {
			return err
		}
	}
	for svc, subs := range in.Data {
		if err := perrors.ValidateServiceName(svc); err != nil {
			return err
		}
		for sub, pair := range subs {
			if err := perrors.ValidateServiceName(sub); err != nil {
				return err
			}
			if pair == nil {
				return perrors.New(perrors.ErrCodeInvalidInput, "%s/%s: missing pair data", svc, sub)
			}
			if pair.LogData == nil {
				pair.LogData = &logdata.Data{}
			}
			if pair.LogData.Contrast() != (view == element.Contrast) && !pair.LogData.Empty() {
				return perrors.New(perrors.ErrCodeInvalidInput,
					"%s/%s: log data shape does not match view type %s", svc, sub, view)
			}
		}
	}
	return nil
}

// View returns the validated view type.
func (in *Input) View() element.ViewType {
	return in.view
}

// Pairs returns the (service, subprocess) pairs with data, ordered by
// service then subprocess.
func (in *Input) Pairs() []Pair {
	var out []Pair
	for svc, subs := range in.Data {
		for sub, pair := range subs {
			out = append(out, Pair{Service: svc, Subprocess: sub, Flow: pair.Flow(), Data: pair.LogData})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Service != out[j].Service {
			return out[i].Service < out[j].Service
		}
		return out[i].Subprocess < out[j].Subprocess
	})
	return out
}

// MissingServices returns the declared services without any data, in
// declaration order and without duplicates.
func (in *Input) MissingServices() []string {
	var out []string
	for _, svc := range in.Services {
		if len(in.Data[svc]) > 0 || slices.Contains(out, svc) {
			continue
		}
		out = append(out, svc)
	}
	return out
}

// AllServices returns the declared services followed by any service that
// only appears in data, sorted after the declared ones.
func (in *Input) AllServices() []string {
	out := slices.Clone(in.Services)
	var extra []string
	for svc := range in.Data {
		if !slices.Contains(out, svc) {
			extra = append(extra, svc)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

// String summarizes the request for logs.
func (in *Input) String() string {
	return fmt.Sprintf("%s topology: %d services, %d pairs", in.view, len(in.Services), len(in.Pairs()))
}
