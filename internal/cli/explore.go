package cli

import (
	"cmp"
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pathwaygraph/pkg/layout"
	"github.com/matzehuels/pathwaygraph/pkg/pipeline"
	"github.com/matzehuels/pathwaygraph/pkg/render/svg"
)

// cellPixels converts terminal columns to viewport pixels.
const cellPixels = 10.0

var (
	exploreCursorStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	exploreCurrentStyle = lipgloss.NewStyle().Foreground(colorGreen)
	explorePendingStyle = lipgloss.NewStyle().Foreground(colorYellow)
	exploreHeaderStyle  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// exploreCommand creates the explore command, an interactive terminal view
// of a pathway.
func (c *CLI) exploreCommand() *cobra.Command {
	var (
		output string
		flags  pathwayFlags
	)

	cmd := &cobra.Command{
		Use:   "explore [pathway.yaml]",
		Short: "Explore a pathway interactively in the terminal",
		Long: `Explore a pathway interactively in the terminal.

Move the cursor with the arrow keys and press enter to click a node. A click
opens the detail panel of a collapsed node; clicking the same node again
toggles it. Resizing the terminal changes the viewport width. Press w to
write the current diagram as SVG.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExplore(cmd.Context(), args[0], output, flags)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "SVG file written by w (default: <input>.svg)")
	cmd.Flags().StringSliceVar(&flags.expand, "expand", nil, "node keys to start expanded (comma-separated)")
	cmd.Flags().Float64Var(&flags.width, "width", 0, "initial viewport width in pixels (default: terminal width)")
	cmd.Flags().StringVar(&flags.engine, "engine", "", "layout engine: dot, layered (default from config)")

	return cmd
}

func (c *CLI) runExplore(ctx context.Context, input, output string, flags pathwayFlags) error {
	g, _, err := loadPathway(input)
	if err != nil {
		return err
	}
	view, err := c.newView(flags)
	if err != nil {
		return err
	}
	view.SetGraph(g)
	view.SetExpansion(layout.RestoreExpansion(expandedSet(flags.expand), ""))

	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + ".svg"
	}
	title := g.Name
	if title == "" {
		title = filepath.Base(input)
	}

	m := newExploreModel(ctx, view, title, output)
	m.fixedWidth = flags.width > 0
	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("explore: %w", err)
	}
	return nil
}

// newView builds a layout view for the explorer. The view does not log:
// the explorer owns the terminal.
func (c *CLI) newView(flags pathwayFlags) (*layout.View, error) {
	name := flags.engine
	if name == "" {
		name = c.Config.Layout.Engine
	}
	engine, err := pipeline.NewEngineWithOptions(name, c.Config.Layout.EngineOptions())
	if err != nil {
		return nil, err
	}
	view := layout.NewView(engine, c.measurer(), layout.Options{YOffset: c.Config.Layout.YOffset})
	if flags.width > 0 {
		view.Resize(flags.width)
	} else if c.Config.Layout.ViewportWidth > 0 {
		view.Resize(c.Config.Layout.ViewportWidth)
	}
	return view, nil
}

// =============================================================================
// exploreModel - bubbletea model over a layout.View
// =============================================================================

type exploreModel struct {
	ctx    context.Context
	view   *layout.View
	title  string
	output string

	// fixedWidth ignores terminal resizes when --width was given.
	fixedWidth bool

	layout layout.Layout
	err    error
	order  []string // node keys top to bottom, then left to right

	cursor int
	offset int
	height int
	status string
}

func newExploreModel(ctx context.Context, view *layout.View, title, output string) *exploreModel {
	m := &exploreModel{
		ctx:    ctx,
		view:   view,
		title:  title,
		output: output,
		height: 15,
	}
	m.relayout()
	return m
}

// relayout runs a layout pass if the view is dirty and keeps the cursor on
// the same node.
func (m *exploreModel) relayout() {
	selected := m.selected()
	m.layout, m.err = m.view.Layout(m.ctx)
	m.order = readingOrder(m.layout)
	if i := slices.Index(m.order, selected); i >= 0 {
		m.cursor = i
	} else if m.cursor >= len(m.order) {
		m.cursor = max(len(m.order)-1, 0)
	}
	m.scroll()
}

func (m *exploreModel) selected() string {
	if m.cursor < 0 || m.cursor >= len(m.order) {
		return ""
	}
	return m.order[m.cursor]
}

func (m *exploreModel) scroll() {
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

// readingOrder sorts node keys by row, then column.
func readingOrder(l layout.Layout) []string {
	keys := l.NodeKeys()
	slices.SortStableFunc(keys, func(a, b string) int {
		na, nb := l.Nodes[a], l.Nodes[b]
		if c := cmp.Compare(na.Y, nb.Y); c != 0 {
			return c
		}
		return cmp.Compare(na.X, nb.X)
	})
	return keys
}

func (m *exploreModel) Init() tea.Cmd {
	return nil
}

func (m *exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				m.scroll()
			}
		case "down", "j":
			if m.cursor < len(m.order)-1 {
				m.cursor++
				m.scroll()
			}
		case "enter", " ":
			if key := m.selected(); key != "" {
				m.view.Click(key)
				m.relayout()
				m.status = "clicked " + key
			}
		case "w":
			m.status = m.writeSVG()
		}
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-8, 3)
		if !m.fixedWidth && msg.Width > 0 {
			width := float64(msg.Width) * cellPixels
			if m.view.Resize(width) {
				m.relayout()
				m.status = fmt.Sprintf("viewport %.0fpx", width)
			}
		}
		m.scroll()
	}
	return m, nil
}

// diagram renders the current layout, or the fallback diagram when the
// pathway cannot be laid out.
func (m *exploreModel) diagram() []byte {
	if m.err != nil {
		return svg.RenderFallback(svg.NoPathway)
	}
	return svg.Render(m.layout, m.view.Graph(),
		svg.WithCurrent(m.view.Current()),
		svg.WithMinWidth(m.view.Width()))
}

func (m *exploreModel) writeSVG() string {
	if err := writeFile(m.output, m.diagram()); err != nil {
		return err.Error()
	}
	return "wrote " + m.output
}

func (m *exploreModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.title))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("↑/↓ navigate  ⏎ click  w write svg  q quit"))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(StyleWarning.Render("no pathway loaded: " + m.err.Error()))
		b.WriteString("\n")
		return b.String()
	}

	end := min(m.offset+m.height, len(m.order))
	rows := make([][]string, 0, end-m.offset)
	for i := m.offset; i < end; i++ {
		rows = append(rows, m.row(i))
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Node", "Kind", "Position", "Size").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return exploreHeaderStyle
			}
			idx := m.offset + row
			if idx >= len(m.order) {
				return lipgloss.NewStyle()
			}
			key := m.order[idx]
			switch {
			case idx == m.cursor:
				return exploreCursorStyle
			case key == m.view.Current():
				return exploreCurrentStyle
			case slices.Contains(m.layout.Pending, key):
				return explorePendingStyle
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(m.footer())
	return b.String()
}

func (m *exploreModel) row(i int) []string {
	key := m.order[i]
	box := m.layout.Nodes[key]

	cursor := "  "
	if i == m.cursor {
		cursor = "▸ "
	}
	label := key
	if n, ok := m.view.Graph().Node(key); ok {
		label = n.DisplayLabel()
		if len(n.Details) > 0 {
			if box.Expanded {
				label = "▾ " + label
			} else {
				label = "▸ " + label
			}
		}
	}
	return []string{
		cursor,
		label,
		box.Kind.String(),
		fmt.Sprintf("%.0f, %.0f", box.X, box.Y),
		fmt.Sprintf("%.0f×%.0f", box.Width, box.Height),
	}
}

func (m *exploreModel) footer() string {
	parts := []string{
		fmt.Sprintf("[%d/%d]", m.cursor+1, len(m.order)),
		fmt.Sprintf("viewport %.0fpx", m.view.Width()),
		fmt.Sprintf("%d passes", m.view.Passes()),
	}
	if exp := m.view.Expansion().Expanded(); len(exp) > 0 {
		parts = append(parts, "expanded: "+strings.Join(exp, ", "))
	}
	line := "  " + StyleDim.Render(strings.Join(parts, " · "))
	if m.status != "" {
		line += "\n  " + StyleValue.Render(m.status)
	}
	return line
}
