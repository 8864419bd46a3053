package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	perrors "github.com/matzehuels/procgraph/pkg/errors"
	"github.com/matzehuels/procgraph/pkg/geom"
)

type hullOutput struct {
	Polygon geom.Polygon `json:"polygon"`
	Path    string       `json:"path"`
}

// hullCommand creates the hull command.
func (c *CLI) hullCommand() *cobra.Command {
	var (
		output string
		radius float64
		opts   geom.HullOptions
	)

	cmd := &cobra.Command{
		Use:   "hull [points.json]",
		Short: "Compute a rounded group hull around points",
		Long: `Compute a rounded group hull around points.

The input is a JSON array of {"x":..,"y":..} points, or an object with a
"points" field. Without an argument the points are read from stdin. The
output holds the hull polygon and an SVG path with rounded corners.`,
		Args: cobra.MaximumNArgs(1),
		PreRun: func(cmd *cobra.Command, args []string) {
			h := c.cfg.Hull
			fl := cmd.Flags()
			if !fl.Changed("radius") {
				radius = h.Radius
			}
			if !fl.Changed("padding-fraction") {
				opts.PaddingFraction = h.PaddingFraction
			}
			if !fl.Changed("min-edge-padding") {
				opts.MinEdgePadding = h.MinEdgePadding
			}
			if !fl.Changed("collinear-threshold") {
				opts.CollinearThreshold = h.CollinearThreshold
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			in := "-"
			if len(args) == 1 {
				in = args[0]
			}
			data, err := readInput(in)
			if err != nil {
				return err
			}
			out, err := computeHull(data, opts, radius)
			if err != nil {
				return err
			}
			return writeJSONOutput(cmd.OutOrStdout(), output, out)
		},
	}

	def := geom.DefaultHullOptions()
	fl := cmd.Flags()
	fl.StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	fl.Float64Var(&radius, "radius", 0, "corner rounding radius (default from config)")
	fl.Float64Var(&opts.PaddingFraction, "padding-fraction", def.PaddingFraction, "outward scale of the convex hull")
	fl.Float64Var(&opts.MinEdgePadding, "min-edge-padding", def.MinEdgePadding, "padding around single and collinear points")
	fl.Float64Var(&opts.CollinearThreshold, "collinear-threshold", def.CollinearThreshold, "largest distance from the fitted line for collinear points")

	return cmd
}

// computeHull decodes points and returns the hull with its rounded path.
func computeHull(data []byte, opts geom.HullOptions, radius float64) (hullOutput, error) {
	if radius < 0 || opts.MinEdgePadding < 0 || opts.CollinearThreshold < 0 {
		return hullOutput{}, perrors.New(perrors.ErrCodeInvalidInput, "hull parameters must not be negative")
	}

	var points []geom.Point
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var wrapped struct {
			Points []geom.Point `json:"points"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return hullOutput{}, perrors.Wrap(perrors.ErrCodeInvalidInput, err, "decode points")
		}
		points = wrapped.Points
	} else if err := json.Unmarshal(data, &points); err != nil {
		return hullOutput{}, perrors.Wrap(perrors.ErrCodeInvalidInput, err, "decode points")
	}

	poly, err := geom.ComputeGroupHull(points, opts)
	if errors.Is(err, geom.ErrNoPoints) {
		return hullOutput{}, perrors.Wrap(perrors.ErrCodeInvalidInput, err, "hull needs at least one point")
	}
	if err != nil {
		return hullOutput{}, err
	}
	return hullOutput{
		Polygon: poly,
		Path:    geom.PathData(geom.RoundPolygonCorners(poly, radius)),
	}, nil
}

// writeJSONOutput writes v as indented JSON to path, or to w when path is
// empty or "-".
func writeJSONOutput(w io.Writer, path string, v any) error {
	if path != "" && path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
