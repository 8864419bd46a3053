package element

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	perrors "github.com/matzehuels/procgraph/pkg/errors"
)

// legacyReplacer rewrites the legacy annotation convention into JSON.
var legacyReplacer = strings.NewReplacer(
	"'", `"`,
	"True", "true",
	"False", "false",
	"None", "null",
)

// normalize returns raw as JSON. A JSON string is unquoted and, if it is not
// valid JSON already, rewritten from the legacy convention.
func normalize(raw json.RawMessage) (json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, perrors.New(perrors.ErrCodeMalformedEncoding, "missing value")
	}
	if raw[0] != '"' {
		return raw, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeMalformedEncoding, err, "decode string")
	}
	s = strings.TrimSpace(s)
	if json.Valid([]byte(s)) {
		return json.RawMessage(s), nil
	}
	return json.RawMessage(legacyReplacer.Replace(s)), nil
}

// DecodeMembership decodes an {A, B} membership annotation.
func DecodeMembership(raw json.RawMessage) (Membership, error) {
	norm, err := normalize(raw)
	if err != nil {
		return Membership{}, err
	}
	var m Membership
	if err := json.Unmarshal(norm, &m); err != nil {
		return Membership{}, perrors.Wrap(perrors.ErrCodeMalformedEncoding, err, "decode membership %s", raw)
	}
	return m, nil
}

// DecodeCounts decodes an {A, B} count annotation. Tallies may be numbers
// or numeric strings and must not be negative.
func DecodeCounts(raw json.RawMessage) (Counts, error) {
	norm, err := normalize(raw)
	if err != nil {
		return Counts{}, err
	}
	var fields struct {
		A json.RawMessage `json:"A"`
		B json.RawMessage `json:"B"`
	}
	if err := json.Unmarshal(norm, &fields); err != nil {
		return Counts{}, perrors.Wrap(perrors.ErrCodeMalformedEncoding, err, "decode counts %s", raw)
	}
	a, err := decodeTally(fields.A)
	if err != nil {
		return Counts{}, err
	}
	b, err := decodeTally(fields.B)
	if err != nil {
		return Counts{}, err
	}
	return Counts{A: a, B: b}, nil
}

// DecodeCount decodes a single count annotation.
func DecodeCount(raw json.RawMessage) (int, error) {
	norm, err := normalize(raw)
	if err != nil {
		return 0, err
	}
	return decodeTally(norm)
}

func decodeTally(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, nil
	}
	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, perrors.Wrap(perrors.ErrCodeMalformedEncoding, err, "decode count")
		}
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, perrors.Wrap(perrors.ErrCodeMalformedEncoding, err, "decode count %q", text)
	}
	if f < 0 || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, perrors.New(perrors.ErrCodeMalformedEncoding, "count must be a non-negative integer, got %q", text)
	}
	return int(f), nil
}
