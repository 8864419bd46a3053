package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/procgraph/pkg/assembly"
	"github.com/matzehuels/procgraph/pkg/cache"
	"github.com/matzehuels/procgraph/pkg/graph"
	"github.com/matzehuels/procgraph/pkg/observability"
	"github.com/matzehuels/procgraph/pkg/store"
	"github.com/matzehuels/procgraph/pkg/topology"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it so caching and persistence behave the same.
//
// The Runner holds no per-request state. Multiple goroutines can safely
// use the same Runner with different options.
type Runner struct {
	Builder *assembly.Builder
	Cache   cache.Cache
	Keyer   cache.Keyer
	Logger  *log.Logger

	// Store receives models of runs with Options.Persist. Nil disables
	// persistence.
	Store store.Store

	// Now stamps exported models. Defaults to time.Now.
	Now func() time.Time
}

// NewRunner creates a runner around builder.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(builder *assembly.Builder, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Builder: builder,
		Cache:   c,
		Keyer:   keyer,
		Logger:  logger,
		Now:     func() time.Time { return time.Now().UTC() },
	}
}

// Execute runs decode → assemble → export with caching.
func (r *Runner) Execute(ctx context.Context, input []byte, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{InputHash: cache.Hash(input)}

	// Stage 1: Decode
	decodeStart := time.Now()
	in, err := Decode(input)
	if err != nil {
		return nil, err
	}
	result.Input = in
	result.Stats.DecodeTime = time.Since(decodeStart)

	opts.Logger.Debug("decoded topology",
		"view", in.View(),
		"pairs", len(in.Pairs()),
		"black_boxes", len(in.MissingServices()))

	key := r.Keyer.ModelKey(result.InputHash, opts.ModelKeyOpts())
	if !opts.Refresh {
		if m, data, ok := r.cachedModel(ctx, key); ok {
			result.Model, result.Data = m, data
			result.CacheInfo.ModelHit = true
			result.Stats.fill(m)
			opts.Logger.Info("model from cache", "graphs", result.Stats.GraphCount)
			return result, r.persist(ctx, result, opts)
		}
	}

	// Stage 2: Assemble
	assembleStart := time.Now()
	res, err := r.Assemble(ctx, in, opts)
	if err != nil {
		return nil, fmt.Errorf("assemble: %w", err)
	}
	result.Assembly = res
	result.Stats.AssembleTime = time.Since(assembleStart)

	opts.Logger.Info("assembled topology",
		"graphs", len(res.Graphs),
		"links", len(res.Links),
		"diagnostics", len(res.Diagnostics),
		"duration", result.Stats.AssembleTime)

	// Stage 3: Export
	exportStart := time.Now()
	m := graph.FromResult(res, opts.ExportOptions(r.Now()))
	result.Model = m
	if err := r.persist(ctx, result, opts); err != nil {
		return nil, err
	}
	data, err := encode(result.Model)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	result.Data = data
	result.Stats.ExportTime = time.Since(exportStart)
	result.Stats.fill(result.Model)

	if err := r.Cache.Set(ctx, key, data, cache.TTLModel); err != nil {
		opts.Logger.Warn("model cache write failed", "error", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "model", len(data))
	}

	return result, nil
}

// Assemble runs only the assembly stage.
func (r *Runner) Assemble(ctx context.Context, in *topology.Input, opts Options) (*assembly.Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	return r.Builder.AssembleTopology(ctx, in, opts.Tiling)
}

func (r *Runner) cachedModel(ctx context.Context, key string) (graph.Model, []byte, bool) {
	hooks := observability.Cache()
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("model cache read failed", "error", err)
	}
	if err != nil || !hit {
		hooks.OnCacheMiss(ctx, "model")
		return graph.Model{}, nil, false
	}
	m, err := graph.ReadModel(bytes.NewReader(data))
	if err != nil {
		// stale format, recompute
		hooks.OnCacheMiss(ctx, "model")
		return graph.Model{}, nil, false
	}
	hooks.OnCacheHit(ctx, "model")
	return m, data, true
}

// persist saves the result's model when requested. A cached model that
// already carries an id is not saved again.
func (r *Runner) persist(ctx context.Context, result *Result, opts Options) error {
	if !opts.Persist || r.Store == nil || (result.CacheInfo.ModelHit && result.Model.ID != "") {
		return nil
	}
	id, err := r.Store.Save(ctx, &result.Model)
	if err != nil {
		return fmt.Errorf("persist model: %w", err)
	}
	opts.Logger.Info("stored model", "id", id)
	if result.CacheInfo.ModelHit {
		result.Data, err = encode(result.Model)
	}
	return err
}

// Close releases resources held by the runner.
func (r *Runner) Close() error {
	var err error
	if r.Cache != nil {
		err = r.Cache.Close()
	}
	if r.Store != nil {
		if serr := r.Store.Close(); err == nil {
			err = serr
		}
	}
	return err
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func (s *Stats) fill(m graph.Model) {
	s.GraphCount = len(m.Graphs)
	s.NodeCount = m.NodeCount()
	s.EdgeCount = m.EdgeCount()
	s.LinkCount = len(m.Links)
	s.DiagnosticCount = len(m.Diagnostics)
}
