package pipeline

import (
	"fmt"
	"os"

	perrors "github.com/matzehuels/procgraph/pkg/errors"
	"github.com/matzehuels/procgraph/pkg/topology"
)

// Decode parses and validates a topology request.
func Decode(data []byte) (*topology.Input, error) {
	in, err := topology.Parse(data)
	if err != nil {
		return nil, err
	}
	return in, nil
}

// ReadInputFile reads the raw bytes of a topology request file.
func ReadInputFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, perrors.Wrap(perrors.ErrCodeFileNotFound, err, "input %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
