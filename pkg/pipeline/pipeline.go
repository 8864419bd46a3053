// Package pipeline provides the assembly pipeline shared by the CLI and the
// HTTP server.
//
// The pipeline turns a topology request into a serialized model in three
// stages:
//
//  1. Decode: parse and validate the topology request
//  2. Assemble: lay out and annotate every process graph, tile them and
//     infer cross-service links
//  3. Export: convert the result to the [graph.Model] format
//
// Whole models are cached by request content, and the layout engine built
// by [NewEngine] caches each flow description's layout, so a request that
// changes one subprocess only re-runs the layout engine for that one.
//
// # Usage
//
//	engine := pipeline.NewEngine("dot", c, nil, logger)
//	runner := pipeline.NewRunner(assembly.NewBuilder(engine, logger), c, nil, logger)
//	result, err := runner.Execute(ctx, input, pipeline.Options{Selection: "both"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.Stdout.Write(result.Data)
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/procgraph/pkg/assembly"
	"github.com/matzehuels/procgraph/pkg/cache"
	"github.com/matzehuels/procgraph/pkg/element"
	perrors "github.com/matzehuels/procgraph/pkg/errors"
	"github.com/matzehuels/procgraph/pkg/graph"
	"github.com/matzehuels/procgraph/pkg/topology"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

// DefaultAlgorithm is the Graphviz layout algorithm.
const DefaultAlgorithm = "dot"

// ValidAlgorithms is the set of supported Graphviz layout algorithms.
var ValidAlgorithms = map[string]bool{
	"dot":   true,
	"neato": true,
	"fdp":   true,
	"sfdp":  true,
	"circo": true,
	"twopi": true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains the assembly and export settings of one run.
type Options struct {
	// Tiling spacing. Zero values take the assembly defaults; a nil Order
	// takes the view's preferred order.
	Tiling assembly.TilingOptions `json:"tiling"`

	// Selection adds display annotations: "single", "A", "B" or "both".
	// Empty leaves them out.
	Selection string `json:"selection,omitempty"`

	// Structure colours elements by membership instead of count.
	Structure bool `json:"structure,omitempty"`

	// Groups adds subprocess hulls and service boxes.
	Groups *graph.GroupOptions `json:"groups,omitempty"`

	// Algorithm names the layout algorithm. It only feeds the cache key;
	// the engine itself is fixed when the runner is built.
	Algorithm string `json:"algorithm,omitempty"`

	// Refresh bypasses the model cache on read.
	Refresh bool `json:"refresh,omitempty"`

	// Persist saves the model to the runner's store.
	Persist bool `json:"persist,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	selection *element.Selection
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Input is the decoded request.
	Input *topology.Input

	// InputHash is the content hash of the raw request.
	InputHash string

	// Assembly is the in-memory result. It is nil when the model came
	// from the cache.
	Assembly *assembly.Result

	// Model is the exported model and Data its JSON encoding.
	Model graph.Model
	Data  []byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	GraphCount      int
	NodeCount       int
	EdgeCount       int
	LinkCount       int
	DiagnosticCount int
	DecodeTime      time.Duration
	AssembleTime    time.Duration
	ExportTime      time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	ModelHit bool // Whether the model came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateAlgorithm checks that a layout algorithm is supported.
func ValidateAlgorithm(name string) error {
	if !ValidAlgorithms[name] {
		return perrors.New(perrors.ErrCodeInvalidInput, "invalid layout algorithm: %q (must be one of: dot, neato, fdp, sfdp, circo, twopi)", name)
	}
	return nil
}

// ValidateSelection checks a display selection. Empty is valid.
func ValidateSelection(s string) error {
	if s == "" {
		return nil
	}
	if _, err := element.ParseSelection(s); err != nil {
		return perrors.Wrap(perrors.ErrCodeInvalidInput, err, "invalid selection")
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the options and fills in defaults.
// It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Algorithm == "" {
		o.Algorithm = DefaultAlgorithm
	}
	if err := ValidateAlgorithm(o.Algorithm); err != nil {
		return err
	}
	if err := ValidateSelection(o.Selection); err != nil {
		return err
	}
	if o.Selection != "" {
		sel, _ := element.ParseSelection(o.Selection)
		o.selection = &sel
	}
	if o.Tiling.XSpacing == 0 {
		o.Tiling.XSpacing = assembly.DefaultXSpacing
	}
	if o.Tiling.YSpacing == 0 {
		o.Tiling.YSpacing = assembly.DefaultYSpacing
	}
	if o.Tiling.Padding == 0 {
		o.Tiling.Padding = assembly.DefaultPadding
	}
	if o.Tiling.XSpacing < 0 || o.Tiling.YSpacing < 0 || o.Tiling.Padding < 0 {
		return perrors.New(perrors.ErrCodeInvalidInput, "tiling spacing and padding must not be negative")
	}
	if o.Logger == nil {
		o.Logger = discardLogger()
	}
	o.validated = true
	return nil
}

// ModelKeyOpts returns cache key options for a model.
func (o *Options) ModelKeyOpts() cache.ModelKeyOpts {
	return cache.ModelKeyOpts{
		XSpacing:  o.Tiling.XSpacing,
		YSpacing:  o.Tiling.YSpacing,
		Padding:   o.Tiling.Padding,
		Order:     o.Tiling.Order,
		Algorithm: o.Algorithm,
		Selection: o.Selection,
		Structure: o.Structure,
		Groups:    o.groupsKey(),
	}
}

func (o *Options) groupsKey() string {
	if o.Groups == nil {
		return ""
	}
	return fmt.Sprintf("%+v", *o.Groups)
}

// ExportOptions returns the model conversion options.
func (o *Options) ExportOptions(now time.Time) graph.Options {
	return graph.Options{Selection: o.selection, Structure: o.Structure, Groups: o.Groups, Now: now}
}

func discardLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}
