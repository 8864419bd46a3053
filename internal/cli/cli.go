// Package cli implements the procgraph command-line interface.
//
// # Commands
//
//   - assemble: build the process-graph model of a topology request
//   - ingest: turn raw log files into a log dataset
//   - hull: compute a rounded group hull around points
//   - inspect: browse a model interactively
//   - models: list and delete stored models
//   - serve: run the HTTP API
//   - cache: manage the layout and model cache
//
// All commands read the TOML configuration named by --config, falling back
// to $XDG_CONFIG_HOME/procgraph/config.toml. Flags override it.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/procgraph/pkg/assembly"
	"github.com/matzehuels/procgraph/pkg/buildinfo"
	"github.com/matzehuels/procgraph/pkg/cache"
	"github.com/matzehuels/procgraph/pkg/config"
	perrors "github.com/matzehuels/procgraph/pkg/errors"
	"github.com/matzehuels/procgraph/pkg/pipeline"
	"github.com/matzehuels/procgraph/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = config.AppName

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        config.Config
}

// New creates a new CLI instance with a default logger and configuration.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		cfg:    config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// Config returns the loaded configuration.
func (c *CLI) Config() config.Config { return c.cfg }

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "procgraph assembles process graphs from flow descriptions and logs",
		Long:         `procgraph builds one process graph per service and subprocess from a laid-out flow description and the logs of one or two executions, annotates every element with occurrence counts, infers cross-service links from [LINK] log markers and tiles everything into one coordinate space.`,
		Version:      buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig(cmd)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/procgraph/config.toml)")

	root.AddCommand(c.assembleCommand())
	root.AddCommand(c.ingestCommand())
	root.AddCommand(c.hullCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.modelsCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the configuration and attaches the logger to the
// command context.
func (c *CLI) loadConfig(cmd *cobra.Command) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	if lvl, err := log.ParseLevel(cfg.Log.Level); err == nil && c.Logger.GetLevel() != log.DebugLevel {
		c.Logger.SetLevel(lvl)
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(withLogger(ctx, c.Logger))
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner from the configuration. The model
// store is only opened when withStore is set.
func (c *CLI) newRunner(ctx context.Context, noCache, withStore bool) (*pipeline.Runner, error) {
	ch, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	keyer := c.cfg.Cache.Keyer()
	engine := pipeline.NewEngine(c.cfg.Layout.Algorithm, ch, keyer, c.Logger)
	builder := assembly.NewBuilder(engine, c.Logger)
	builder.Concurrency = c.cfg.Assembly.Concurrency

	r := pipeline.NewRunner(builder, ch, keyer, c.Logger)
	if withStore {
		st, err := c.newStore(ctx)
		if err != nil {
			_ = ch.Close()
			return nil, err
		}
		r.Store = st
	}
	return r, nil
}

// newCache opens the configured cache backend. A file cache that cannot be
// created degrades to no caching.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch c.cfg.Cache.Backend {
	case config.BackendNone:
		return cache.NewNullCache(), nil
	case config.BackendRedis:
		rc := c.cfg.Cache.Redis
		return cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     rc.Addr,
			Password: rc.Password,
			DB:       rc.DB,
			Attempts: rc.Attempts,
			Backoff:  rc.Backoff,
		})
	}
	dir, err := c.cfg.CacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		c.Logger.Warn("cache disabled", "dir", dir, "error", err)
		return cache.NewNullCache(), nil
	}
	return fc, nil
}

// newStore opens the configured model store.
func (c *CLI) newStore(ctx context.Context) (store.Store, error) {
	switch c.cfg.Store.Backend {
	case config.BackendNone:
		return nil, perrors.New(perrors.ErrCodeUnsupported, "model store is disabled in the configuration")
	case config.BackendMongo:
		mc := c.cfg.Store.Mongo
		return store.NewMongoStore(ctx, store.MongoOptions{
			URI:        mc.URI,
			Database:   mc.Database,
			Collection: mc.Collection,
			Timeout:    mc.Timeout,
		})
	}
	dir, err := c.cfg.StoreDir()
	if err != nil {
		return nil, err
	}
	return store.NewFileStore(dir)
}
