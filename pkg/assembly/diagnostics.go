package assembly

import (
	"context"

	"github.com/charmbracelet/log"

	perrors "github.com/matzehuels/procgraph/pkg/errors"
	"github.com/matzehuels/procgraph/pkg/observability"
)

// Diagnostic is a recoverable failure reported during assembly.
type Diagnostic struct {
	Code       perrors.Code `json:"code" bson:"code"`
	Service    string       `json:"service,omitempty" bson:"service,omitempty"`
	Subprocess string       `json:"subprocess,omitempty" bson:"subprocess,omitempty"`
	Element    string       `json:"element,omitempty" bson:"element,omitempty"`
	Message    string       `json:"message" bson:"message"`
}

func (d Diagnostic) String() string {
	s := string(d.Code)
	if d.Service != "" {
		s += " " + d.Service + "/" + d.Subprocess
	}
	return s + ": " + d.Message
}

// reporter collects the diagnostics of one build. It is not shared between
// goroutines.
type reporter struct {
	ctx        context.Context
	logger     *log.Logger
	service    string
	subprocess string
	items      []Diagnostic
}

func (r *reporter) report(element string, err error) {
	code := perrors.GetCode(err)
	if code == "" {
		code = perrors.ErrCodeInternal
	}
	d := Diagnostic{
		Code:       code,
		Service:    r.service,
		Subprocess: r.subprocess,
		Element:    element,
		Message:    err.Error(),
	}
	r.items = append(r.items, d)
	r.logger.Warn("recovered", "code", code, "service", r.service, "subprocess", r.subprocess, "error", err)
	observability.Pipeline().OnDiagnostic(r.ctx, string(code))
}

// CountByCode tallies diagnostics per code.
func CountByCode(diags []Diagnostic) map[perrors.Code]int {
	out := make(map[perrors.Code]int)
	for _, d := range diags {
		out[d.Code]++
	}
	return out
}
