package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	perrors "github.com/matzehuels/procgraph/pkg/errors"
	"github.com/matzehuels/procgraph/pkg/logdata"
)

// ingestCommand creates the ingest command.
func (c *CLI) ingestCommand() *cobra.Command {
	var (
		output  string
		pattern string
		filter  string
	)

	cmd := &cobra.Command{
		Use:   "ingest [service=]file...",
		Short: "Build a log dataset from raw log files",
		Long: `Build a log dataset from raw log files.

Every file is parsed with the ingestion pattern, a regular expression with
named groups; "message" is required. Lines that do not match are appended to
the previous record's message. Records are grouped into emitters by logger
name, service, file and line number, and every emitter becomes one logging
statement of the dataset.

The service of a file is taken from a "service=" prefix, or from the file
name without its extension.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd.Context(), cmd.OutOrStdout(), args, pattern, filter, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&pattern, "pattern", logdata.DefaultPattern, "ingestion regular expression")
	cmd.Flags().StringVar(&filter, "filter", "", "keep only records matching field=value")

	return cmd
}

func runIngest(ctx context.Context, out io.Writer, args []string, pattern, filter, output string) error {
	logger := loggerFromContext(ctx)

	re, err := regexp.Compile(pattern)
	if err != nil {
		return perrors.Wrap(perrors.ErrCodeInvalidInput, err, "compile pattern")
	}
	field, value, err := parseFilter(filter)
	if err != nil {
		return err
	}

	sources := make([]logdata.Source, 0, len(args))
	for _, arg := range args {
		service, path := splitSourceArg(arg)
		f, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				return perrors.New(perrors.ErrCodeFileNotFound, "log file not found: %s", path)
			}
			return err
		}
		defer f.Close()
		sources = append(sources, logdata.Source{Service: service, Reader: f})
	}

	prog := newProgress(logger)
	records, err := logdata.ParseAll(ctx, sources, re)
	if err != nil {
		return err
	}
	records = logdata.FilterRecords(records, field, value)
	ds, emitters := logdata.AssignEmitters(records)
	prog.done(fmt.Sprintf("Ingested %d records from %d emitters", len(records), len(emitters)))

	if err := writeJSONOutput(out, output, ds); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}

	if output != "" && output != "-" {
		printSuccess("Ingested %d records", len(records))
		printFile(output)
		printKeyValue("Emitters", fmt.Sprintf("%d", len(emitters)))
	}
	return nil
}

// splitSourceArg splits "service=path". Without a prefix the service is the
// file name without extension.
func splitSourceArg(arg string) (service, path string) {
	if svc, p, ok := strings.Cut(arg, "="); ok && svc != "" {
		return svc, p
	}
	base := filepath.Base(arg)
	return strings.TrimSuffix(base, filepath.Ext(base)), arg
}

// parseFilter splits "field=value". An empty filter keeps everything.
func parseFilter(s string) (field, value string, err error) {
	if s == "" {
		return "", "", nil
	}
	field, value, ok := strings.Cut(s, "=")
	if !ok || field == "" {
		return "", "", perrors.New(perrors.ErrCodeInvalidInput, "filter must be field=value, got %q", s)
	}
	return field, value, nil
}
