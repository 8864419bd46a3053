package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/procgraph/pkg/pipeline"
)

type assembleFlags struct {
	output      string
	noCache     bool
	groups      bool
	concurrency int
	opts        pipeline.Options
}

// assembleCommand creates the assemble command.
func (c *CLI) assembleCommand() *cobra.Command {
	return c.assembleCommandWith(&assembleFlags{})
}

func (c *CLI) assembleCommandWith(f *assembleFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assemble [request.json]",
		Short: "Assemble process graphs from a topology request",
		Long: `Assemble process graphs from a topology request.

The request carries the laid-out flow definitions of every service and
subprocess, the log data of one execution (or of two executions A and B for
a contrast view) and the pairs to build. The result is a model JSON file with
one positioned graph per pair, the inferred cross-service links and any
diagnostics collected along the way.

Use "-" to read the request from stdin. Results are cached unless
--no-cache is given.`,
		Args: cobra.ExactArgs(1),
		PreRun: func(cmd *cobra.Command, args []string) {
			c.applyAssembleDefaults(cmd, f)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAssemble(cmd.Context(), args[0], f)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.output, "output", "o", "", "output file (default: <input>.model.json, stdout for -)")
	fl.BoolVar(&f.noCache, "no-cache", false, "disable caching")
	fl.BoolVar(&f.opts.Refresh, "refresh", false, "recompute even when a cached model exists")
	fl.BoolVar(&f.opts.Persist, "persist", false, "save the model to the configured store")
	fl.StringVarP(&f.opts.Selection, "selection", "s", "", "add display annotations for a selection: single, A, B, both")
	fl.BoolVar(&f.opts.Structure, "structure", false, "colour elements by membership instead of count")
	fl.BoolVar(&f.groups, "groups", false, "add subprocess hulls and service boxes")
	fl.StringVar(&f.opts.Algorithm, "algorithm", "", "graphviz layout algorithm (default from config)")
	fl.IntVar(&f.concurrency, "concurrency", 0, "graphs built in parallel (default from config)")
	fl.Float64Var(&f.opts.Tiling.XSpacing, "x-spacing", 0, "horizontal distance between graph columns")
	fl.Float64Var(&f.opts.Tiling.YSpacing, "y-spacing", 0, "vertical distance between graph rows")
	fl.Float64Var(&f.opts.Tiling.Padding, "padding", 0, "padding between tiles")
	fl.StringSliceVar(&f.opts.Tiling.Order, "order", nil, "service column order")

	return cmd
}

// applyAssembleDefaults fills unset flags from the loaded configuration.
func (c *CLI) applyAssembleDefaults(cmd *cobra.Command, f *assembleFlags) {
	fl := cmd.Flags()
	t := c.cfg.Tiling
	if !fl.Changed("algorithm") {
		f.opts.Algorithm = c.cfg.Layout.Algorithm
	}
	if !fl.Changed("x-spacing") {
		f.opts.Tiling.XSpacing = t.XSpacing
	}
	if !fl.Changed("y-spacing") {
		f.opts.Tiling.YSpacing = t.YSpacing
	}
	if !fl.Changed("padding") {
		f.opts.Tiling.Padding = t.Padding
	}
	if !fl.Changed("order") {
		f.opts.Tiling.Order = t.Order
	}
	if fl.Changed("concurrency") {
		c.cfg.Assembly.Concurrency = f.concurrency
	}
	c.cfg.Layout.Algorithm = f.opts.Algorithm
	if f.groups {
		g := c.cfg.Hull.GroupOptions()
		f.opts.Groups = &g
	}
}

// runAssemble reads the request, runs the pipeline and writes the model.
func (c *CLI) runAssemble(ctx context.Context, input string, f *assembleFlags) error {
	logger := loggerFromContext(ctx)

	data, err := readInput(input)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, f.noCache, f.opts.Persist)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := f.opts
	opts.Logger = logger

	spinner := newSpinnerWithContext(ctx, "Assembling process graphs...")
	spinner.Start()
	prog := newProgress(logger)

	res, err := runner.Execute(ctx, data, opts)
	if err != nil {
		spinner.StopWithError("Assembly failed")
		return err
	}
	spinner.Stop()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	logger.Debug("assembly timings",
		"decode", res.Stats.DecodeTime, "assemble", res.Stats.AssembleTime, "export", res.Stats.ExportTime)

	outputPath := f.output
	if outputPath == "" && input != "-" {
		outputPath = strings.TrimSuffix(input, filepath.Ext(input)) + ".model.json"
	}
	if outputPath == "" || outputPath == "-" {
		_, err := os.Stdout.Write(res.Data)
		return err
	}
	if err := os.WriteFile(outputPath, res.Data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	prog.done(fmt.Sprintf("Assembled %d graphs", res.Stats.GraphCount))
	printSuccess("Assembly complete")
	printFile(outputPath)
	printStats(res.Stats, res.CacheInfo.ModelHit)
	printDiagnostics(res.Model.Diagnostics)
	if res.Model.ID != "" {
		printKeyValue("Model ID", res.Model.ID)
	}
	printNewline()
	printNextStep("Inspect", appName+" inspect "+outputPath)

	return nil
}

// readInput reads a file, or stdin when path is "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	return pipeline.ReadInputFile(path)
}
