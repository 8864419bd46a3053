package layout

import (
	"context"
	"encoding/json"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/procgraph/pkg/cache"
	"github.com/matzehuels/procgraph/pkg/observability"
)

// Cached wraps an Engine with a cache keyed by the flow description's
// content hash. Cache failures are logged and fall through to the engine.
type Cached struct {
	Engine Engine
	Cache  cache.Cache
	Keyer  cache.Keyer
	Opts   cache.LayoutKeyOpts
	Logger *log.Logger
}

// NewCached returns a caching engine. Nil dependencies get defaults.
func NewCached(engine Engine, c cache.Cache, keyer cache.Keyer, opts cache.LayoutKeyOpts, logger *log.Logger) *Cached {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.New(nil)
		logger.SetLevel(log.FatalLevel + 1)
	}
	return &Cached{Engine: engine, Cache: c, Keyer: keyer, Opts: opts, Logger: logger}
}

// Layout implements Engine.
func (c *Cached) Layout(ctx context.Context, flow string) (*Result, error) {
	key := c.Keyer.LayoutKey(cache.Hash([]byte(flow)), c.Opts)
	hooks := observability.Cache()

	data, hit, err := c.Cache.Get(ctx, key)
	if err != nil {
		c.Logger.Warn("layout cache read failed", "error", err)
	}
	if hit {
		var res Result
		if err := json.Unmarshal(data, &res); err == nil {
			hooks.OnCacheHit(ctx, "layout")
			return &res, nil
		}
		c.Logger.Warn("discarding corrupt layout cache entry", "key", key)
	}
	hooks.OnCacheMiss(ctx, "layout")

	res, err := c.Engine.Layout(ctx, flow)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(res); err == nil {
		if err := c.Cache.Set(ctx, key, data, cache.TTLLayout); err != nil {
			c.Logger.Warn("layout cache write failed", "error", err)
		} else {
			hooks.OnCacheSet(ctx, "layout", len(data))
		}
	}
	return res, nil
}

var _ Engine = (*Cached)(nil)
