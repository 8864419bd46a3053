package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/procgraph/pkg/graph"
)

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		fromStore bool
		plain     bool
	)

	cmd := &cobra.Command{
		Use:   "inspect [model.json | id]",
		Short: "Browse an assembled model",
		Long: `Browse an assembled model.

Opens an interactive browser over the graphs, nodes, links and diagnostics
of a model file. With --store the argument is the id of a stored model.
--plain prints the tables instead, which is also the default when stdout is
not a terminal.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := c.loadModel(cmd.Context(), args[0], fromStore)
			if err != nil {
				return err
			}
			if plain || !isTerminal(os.Stdout) {
				printModel(cmd.OutOrStdout(), m)
				return nil
			}
			_, err = tea.NewProgram(NewModelBrowser(m), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}

	cmd.Flags().BoolVar(&fromStore, "store", false, "load the model from the configured store by id")
	cmd.Flags().BoolVar(&plain, "plain", false, "print tables instead of the interactive browser")

	return cmd
}

// loadModel reads a model file, or a stored model when fromStore is set.
func (c *CLI) loadModel(ctx context.Context, ref string, fromStore bool) (*graph.Model, error) {
	if !fromStore {
		m, err := graph.ReadModelFile(ref)
		if err != nil {
			return nil, fmt.Errorf("load model %s: %w", ref, err)
		}
		return &m, nil
	}
	st, err := c.newStore(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return st.Load(ctx, ref)
}

// printModel writes every table of the browser without interaction.
func printModel(w io.Writer, m *graph.Model) {
	fmt.Fprintln(w, StyleTitle.Render("Graphs"))
	fmt.Fprintln(w, renderTable(graphHeaders, graphRows(m), -1, 0, len(m.Graphs)))
	for i := range m.Graphs {
		g := &m.Graphs[i]
		if len(g.Nodes) == 0 {
			continue
		}
		fmt.Fprintln(w, StyleTitle.Render("Nodes of "+g.ID))
		fmt.Fprintln(w, renderTable(nodeHeaders, nodeRows(g), -1, 0, len(g.Nodes)))
	}
	if len(m.Links) > 0 {
		fmt.Fprintln(w, StyleTitle.Render("Links"))
		fmt.Fprintln(w, renderTable(linkHeaders, linkRows(m), -1, 0, len(m.Links)))
	}
	if len(m.Diagnostics) > 0 {
		fmt.Fprintln(w, StyleTitle.Render("Diagnostics"))
		fmt.Fprintln(w, renderTable(diagnosticHeaders, diagnosticRows(m), -1, 0, len(m.Diagnostics)))
	}
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}
