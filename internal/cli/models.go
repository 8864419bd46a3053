package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	perrors "github.com/matzehuels/procgraph/pkg/errors"
	"github.com/matzehuels/procgraph/pkg/graph"
	"github.com/matzehuels/procgraph/pkg/store"
)

// modelsCommand creates the stored model management command.
func (c *CLI) modelsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Manage stored models",
	}

	cmd.AddCommand(c.modelsListCommand())
	cmd.AddCommand(c.modelsShowCommand())
	cmd.AddCommand(c.modelsDeleteCommand())

	return cmd
}

func (c *CLI) modelsListCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored models, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.newStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			sums, err := st.List(ctx, limit)
			if err != nil {
				return err
			}
			if len(sums) == 0 {
				printInfo("No stored models")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(summaryHeaders, summaryRows(sums, time.Now()), -1, 0, len(sums)))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of models (0 for all)")
	return cmd
}

func (c *CLI) modelsShowCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a stored model as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := perrors.ValidateModelID(args[0]); err != nil {
				return err
			}
			m, err := c.loadModel(cmd.Context(), args[0], true)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				return graph.WriteModel(*m, cmd.OutOrStdout())
			}
			if err := graph.WriteModelFile(*m, output); err != nil {
				return err
			}
			printSuccess("Model written")
			printFile(output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	return cmd
}

func (c *CLI) modelsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete stored models",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			for _, id := range args {
				if err := perrors.ValidateModelID(id); err != nil {
					return err
				}
			}
			st, err := c.newStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			for _, id := range args {
				if err := st.Delete(ctx, id); err != nil {
					return fmt.Errorf("delete %s: %w", id, err)
				}
			}
			printSuccess("Deleted %d models", len(args))
			return nil
		},
	}
}

var summaryHeaders = []string{"", "ID", "View", "Graphs", "Created"}

func summaryRows(sums []store.Summary, now time.Time) [][]string {
	rows := make([][]string, 0, len(sums))
	for _, s := range sums {
		rows = append(rows, []string{"", s.ID, s.View, strconv.Itoa(s.GraphCount), formatRelativeTime(s.CreatedAt, now)})
	}
	return rows
}

func formatRelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return "—"
	}
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
