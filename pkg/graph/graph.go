package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/procgraph/pkg/assembly"
)

// =============================================================================
// Model Serialization API
// =============================================================================

// Marshal converts an assembly result to indented JSON bytes.
func Marshal(res *assembly.Result, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteModel(FromResult(res, opts), &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteModelFile writes a model to a JSON file.
// The file is created with 0644 permissions.
func WriteModelFile(m Model, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteModel(m, f)
}

// WriteModel writes a model as indented JSON to an io.Writer.
func WriteModel(m Model, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadModelFile reads a model from a JSON file.
func ReadModelFile(path string) (Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return Model{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadModel(f)
}

// ReadModel decodes a JSON model from an io.Reader.
// Models written by a newer format version are rejected.
func ReadModel(r io.Reader) (Model, error) {
	var m Model
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return Model{}, fmt.Errorf("decode: %w", err)
	}
	if m.Version > FormatVersion {
		return Model{}, fmt.Errorf("unsupported model version %d (max %d)", m.Version, FormatVersion)
	}
	return m, nil
}
