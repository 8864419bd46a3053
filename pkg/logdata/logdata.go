// Package logdata defines the log inputs a process graph is annotated with.
//
// A [Statement] is a source call-site that can emit log entries; an [Entry]
// is one runtime occurrence of a statement. A [Dataset] bundles both for one
// execution. [Data] is either a single dataset or a pair of datasets for the
// two executions being contrasted.
//
// Raw application logs can be turned into a Dataset with [ParseRaw] and
// [AssignEmitters].
package logdata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
)

// StatementID identifies a logging statement within one dataset. Inputs
// carry it either as a JSON number or a JSON string; both decode to the
// same textual form so ids compare as strings.
type StatementID string

// UnmarshalJSON accepts a JSON string or number.
func (id *StatementID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = StatementID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("statement id: %w", err)
	}
	*id = StatementID(n.String())
	return nil
}

// MarshalJSON writes numeric ids as numbers and everything else as strings.
func (id StatementID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// Statement is a logging call-site.
type Statement struct {
	ID         StatementID `json:"logging_statement_id" bson:"logging_statement_id"`
	Level      string      `json:"level,omitempty" bson:"level,omitempty"`
	File       string      `json:"file,omitempty" bson:"file,omitempty"`
	Line       int         `json:"line_number,omitempty" bson:"line_number,omitempty"`
	Class      string      `json:"class,omitempty" bson:"class,omitempty"`
	Method     string      `json:"method,omitempty" bson:"method,omitempty"`
	Service    string      `json:"service,omitempty" bson:"service,omitempty"`
	Subprocess string      `json:"subprocess,omitempty" bson:"subprocess,omitempty"`
	User       string      `json:"user,omitempty" bson:"user,omitempty"`
}

// Field returns the value of a named statement attribute. Names follow the
// JSON field names; "id" is accepted for the statement id.
func (s *Statement) Field(name string) (string, bool) {
	switch name {
	case "id", "logging_statement_id":
		return string(s.ID), true
	case "level":
		return s.Level, true
	case "file":
		return s.File, true
	case "line", "line_number":
		if s.Line == 0 {
			return "", true
		}
		return strconv.Itoa(s.Line), true
	case "class":
		return s.Class, true
	case "method":
		return s.Method, true
	case "service":
		return s.Service, true
	case "subprocess":
		return s.Subprocess, true
	case "user":
		return s.User, true
	}
	return "", false
}

// Entry is one runtime occurrence of a logging statement.
type Entry struct {
	StatementID StatementID `json:"logging_statement_id" bson:"logging_statement_id"`
	Timestamp   string      `json:"timestamp,omitempty" bson:"timestamp,omitempty"`
	PID         string      `json:"pid,omitempty" bson:"pid,omitempty"`
	Thread      string      `json:"thread,omitempty" bson:"thread,omitempty"`
	Message     string      `json:"message" bson:"message"`
	EmitterID   string      `json:"emitter_id,omitempty" bson:"emitter_id,omitempty"`
}

// Dataset holds the statements and entries of one execution.
type Dataset struct {
	Statements []Statement `json:"log_statements" bson:"log_statements"`
	Logs       []Entry     `json:"logs" bson:"logs"`

	once    sync.Once
	byID    map[StatementID]*Statement
	entries map[StatementID][]Entry
}

func (d *Dataset) index() {
	d.once.Do(func() {
		d.byID = make(map[StatementID]*Statement, len(d.Statements))
		for i := range d.Statements {
			s := &d.Statements[i]
			if _, dup := d.byID[s.ID]; !dup {
				d.byID[s.ID] = s
			}
		}
		d.entries = make(map[StatementID][]Entry)
		for _, e := range d.Logs {
			d.entries[e.StatementID] = append(d.entries[e.StatementID], e)
		}
	})
}

// Statement returns the statement with the given id. The first statement
// wins when ids repeat.
func (d *Dataset) Statement(id StatementID) (*Statement, bool) {
	if d == nil {
		return nil, false
	}
	d.index()
	s, ok := d.byID[id]
	return s, ok
}

// Entries returns every log entry referencing the statement id, in input
// order. The returned slice must not be modified.
func (d *Dataset) Entries(id StatementID) []Entry {
	if d == nil {
		return nil
	}
	d.index()
	return d.entries[id]
}

// StatementIDs returns the set of statement ids declared by the dataset.
func (d *Dataset) StatementIDs() map[StatementID]struct{} {
	if d == nil {
		return map[StatementID]struct{}{}
	}
	set := make(map[StatementID]struct{}, len(d.Statements))
	for _, s := range d.Statements {
		set[s.ID] = struct{}{}
	}
	return set
}

// Data is the log input of one process graph: one dataset for a single
// execution, or an A and a B dataset for a contrast.
type Data struct {
	Single *Dataset
	A, B   *Dataset
}

// Contrast reports whether d carries two executions.
func (d *Data) Contrast() bool {
	return d != nil && (d.A != nil || d.B != nil)
}

// Empty reports whether d carries no statements and no log entries.
func (d *Data) Empty() bool {
	if d == nil {
		return true
	}
	for _, ds := range []*Dataset{d.Single, d.A, d.B} {
		if ds != nil && (len(ds.Statements) > 0 || len(ds.Logs) > 0) {
			return false
		}
	}
	return true
}

type contrastJSON struct {
	A *Dataset `json:"A"`
	B *Dataset `json:"B"`
}

// UnmarshalJSON decodes either {log_statements, logs} or {A: {...}, B: {...}}.
func (d *Data) UnmarshalJSON(data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	_, hasA := probe["A"]
	_, hasB := probe["B"]
	if hasA || hasB {
		var c contrastJSON
		if err := json.Unmarshal(data, &c); err != nil {
			return err
		}
		d.A, d.B = orEmpty(c.A), orEmpty(c.B)
		return nil
	}
	var s Dataset
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	d.Single = &s
	return nil
}

// MarshalJSON mirrors UnmarshalJSON.
func (d Data) MarshalJSON() ([]byte, error) {
	if d.Contrast() {
		return json.Marshal(contrastJSON{A: orEmpty(d.A), B: orEmpty(d.B)})
	}
	return json.Marshal(orEmpty(d.Single))
}

func orEmpty(d *Dataset) *Dataset {
	if d == nil {
		return &Dataset{}
	}
	return d
}
