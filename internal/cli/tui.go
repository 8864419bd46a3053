package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/procgraph/pkg/graph"
)

var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// =============================================================================
// Table Rows
// =============================================================================

// browserView identifies one page of the model browser.
type browserView int

const (
	viewGraphs browserView = iota
	viewLinks
	viewDiagnostics
	viewNodes
)

var viewTitles = map[browserView]string{
	viewGraphs:      "Graphs",
	viewLinks:       "Links",
	viewDiagnostics: "Diagnostics",
	viewNodes:       "Nodes",
}

var (
	graphHeaders      = []string{"", "Graph", "Service", "Subprocess", "Nodes", "Edges"}
	nodeHeaders       = []string{"", "Node", "Kind", "Label", "Count"}
	linkHeaders       = []string{"", "Kind", "Action", "Source", "Target"}
	diagnosticHeaders = []string{"", "Code", "Graph", "Message"}
)

func graphRows(m *graph.Model) [][]string {
	rows := make([][]string, 0, len(m.Graphs))
	for _, g := range m.Graphs {
		id := g.ID
		if g.BlackBox {
			id += " (black box)"
		}
		rows = append(rows, []string{"", id, g.Service, g.Subprocess,
			strconv.Itoa(len(g.Nodes)), strconv.Itoa(len(g.Edges))})
	}
	return rows
}

func nodeRows(g *graph.Graph) [][]string {
	rows := make([][]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		rows = append(rows, []string{"", n.ID, n.Kind, truncate(n.Label, 40), formatCount(n.Annotation)})
	}
	return rows
}

func linkRows(m *graph.Model) [][]string {
	rows := make([][]string, 0, len(m.Links))
	for _, l := range m.Links {
		rows = append(rows, []string{"", string(l.Kind), l.Action,
			l.SourceGraphID + ":" + l.SourceNodeID, l.TargetGraphID + ":" + l.TargetNodeID})
	}
	return rows
}

func diagnosticRows(m *graph.Model) [][]string {
	rows := make([][]string, 0, len(m.Diagnostics))
	for _, d := range m.Diagnostics {
		where := ""
		if d.Service != "" {
			where = d.Service + "/" + d.Subprocess
		}
		rows = append(rows, []string{"", string(d.Code), where, truncate(d.Message, 60)})
	}
	return rows
}

// formatCount renders a single count or an "A/B" contrast pair.
func formatCount(a graph.Annotation) string {
	switch {
	case a.Count != nil:
		return strconv.Itoa(*a.Count)
	case a.Counts != nil:
		return fmt.Sprintf("%d/%d", a.Counts.A, a.Counts.B)
	}
	return "—"
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}

// renderTable renders rows with the cursor row highlighted.
func renderTable(headers []string, rows [][]string, cursor, offset, height int) string {
	end := min(offset+height, len(rows))
	visible := make([][]string, 0, end-offset)
	for i := offset; i < end; i++ {
		row := append([]string(nil), rows[i]...)
		if i == cursor {
			row[0] = "▸"
		}
		visible = append(visible, row)
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(visible...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if offset+row == cursor {
				return lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
			}
			if col == 0 {
				return lipgloss.NewStyle()
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})
	return t.Render()
}

// =============================================================================
// Key Bindings
// =============================================================================

type browserKeys struct {
	Up, Down, Open, Switch, Back, Quit key.Binding
}

func (k browserKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Open, k.Switch, k.Back, k.Quit}
}

func (k browserKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var defaultBrowserKeys = browserKeys{
	Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Open:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("⏎", "nodes")),
	Switch: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch")),
	Back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// =============================================================================
// ModelBrowser - Interactive model inspection
// =============================================================================

// ModelBrowser is the bubbletea model for browsing an assembled model.
// Tab cycles between graphs, links and diagnostics; enter opens the nodes
// of the selected graph and esc returns.
type ModelBrowser struct {
	Model  *graph.Model
	Page   browserView
	Cursor int
	Offset int
	Height int

	keys       browserKeys
	help       help.Model
	graph      int
	lastCursor int
}

// NewModelBrowser creates a browser positioned on the graph list.
func NewModelBrowser(m *graph.Model) ModelBrowser {
	return ModelBrowser{Model: m, Height: 15, keys: defaultBrowserKeys, help: help.New()}
}

func (b ModelBrowser) Init() tea.Cmd {
	return nil
}

func (b ModelBrowser) rows() ([]string, [][]string) {
	switch b.Page {
	case viewLinks:
		return linkHeaders, linkRows(b.Model)
	case viewDiagnostics:
		return diagnosticHeaders, diagnosticRows(b.Model)
	case viewNodes:
		return nodeHeaders, nodeRows(&b.Model.Graphs[b.graph])
	}
	return graphHeaders, graphRows(b.Model)
}

func (b ModelBrowser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	_, rows := b.rows()
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, b.keys.Quit):
			return b, tea.Quit
		case key.Matches(msg, b.keys.Back):
			if b.Page != viewNodes {
				return b, tea.Quit
			}
			b.Page = viewGraphs
			b.Cursor, b.Offset = b.lastCursor, 0
			b.scroll()
		case key.Matches(msg, b.keys.Switch):
			if b.Page == viewNodes {
				return b, nil
			}
			b.Page = (b.Page + 1) % viewNodes
			b.Cursor, b.Offset = 0, 0
		case key.Matches(msg, b.keys.Up):
			if b.Cursor > 0 {
				b.Cursor--
				b.scroll()
			}
		case key.Matches(msg, b.keys.Down):
			if b.Cursor < len(rows)-1 {
				b.Cursor++
				b.scroll()
			}
		case key.Matches(msg, b.keys.Open):
			if b.Page == viewGraphs && len(rows) > 0 {
				b.graph, b.lastCursor = b.Cursor, b.Cursor
				b.Page = viewNodes
				b.Cursor, b.Offset = 0, 0
			}
		}
	case tea.WindowSizeMsg:
		b.Height = max(msg.Height-8, 5)
		b.help.Width = msg.Width
		b.scroll()
	}
	return b, nil
}

func (b *ModelBrowser) scroll() {
	if b.Cursor < b.Offset {
		b.Offset = b.Cursor
	}
	if b.Cursor >= b.Offset+b.Height {
		b.Offset = b.Cursor - b.Height + 1
	}
}

func (b ModelBrowser) View() string {
	var s strings.Builder

	title := viewTitles[b.Page]
	if b.Page == viewNodes {
		title += " of " + b.Model.Graphs[b.graph].ID
	}
	s.WriteString(StyleTitle.Render(title))
	s.WriteString("  ")
	s.WriteString(listDimStyle.Render(fmt.Sprintf("%s view · %d graphs · %d links · %d diagnostics",
		b.Model.View, len(b.Model.Graphs), len(b.Model.Links), len(b.Model.Diagnostics))))
	s.WriteString("\n")
	s.WriteString(b.help.View(b.keys))
	s.WriteString("\n\n")

	headers, rows := b.rows()
	if len(rows) == 0 {
		s.WriteString(listDimStyle.Render("  (none)"))
		s.WriteString("\n")
		return s.String()
	}
	s.WriteString(renderTable(headers, rows, b.Cursor, b.Offset, b.Height))
	s.WriteString("\n")
	s.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", b.Cursor+1, len(rows))))
	return s.String()
}
