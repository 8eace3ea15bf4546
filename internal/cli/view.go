package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/axonote/pkg/document"
	"github.com/matzehuels/axonote/pkg/editor"
	"github.com/matzehuels/axonote/pkg/graph"
)

// viewCommand creates the view command, an interactive outline editor.
func (c *CLI) viewCommand() *cobra.Command {
	var flags layoutFlags

	cmd := &cobra.Command{
		Use:   "view [document.json]",
		Short: "Browse and edit a mind map as an outline",
		Long: `Browse and edit a mind map as an outline.

The outline follows the edges from every root. Moving the cursor selects a
node; folding hides everything below it, expanding reveals its direct
children. New nodes are added as children of the selected node.

Keys:
  ↑/↓ j/k   move            enter/space  fold or expand
  f / e     fold / expand   1-5          add text, image, bibliography, formula, list
  x         delete node     l            run layout
  s         save            q            quit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.layoutOptions(flags)
			if err != nil {
				return err
			}
			engine, lc, err := c.newEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer lc.Close()

			ed, err := loadEditor(args[0], editor.WithEngine(engine), editor.WithLayoutOptions(opts))
			if err != nil {
				return err
			}
			defer ed.Close()

			m := newOutlineModel(cmd.Context(), ed, args[0])
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}

	flags.register(cmd)
	return cmd
}

// Outline styles
var (
	outlineCursorStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	outlineNormalStyle = lipgloss.NewStyle().Foreground(colorWhite)
	outlineTypeStyle   = lipgloss.NewStyle().Foreground(colorDim)
	outlineStatusStyle = lipgloss.NewStyle().Foreground(colorGray)
	outlineErrorStyle  = lipgloss.NewStyle().Foreground(colorRed)
)

// =============================================================================
// Outline rows
// =============================================================================

// outlineRow is one visible node of the outline.
type outlineRow struct {
	ID     string
	Title  string
	Type   graph.NodeType
	Depth  int
	Folded bool // has hidden children
	Leaf   bool
}

// buildOutline flattens the visible part of the graph depth-first from its
// roots, following edges in collection order. Visible nodes that no root
// reaches, such as members of a cycle, start their own subtree.
func buildOutline(nodes []graph.Node, edges []graph.Edge) []outlineRow {
	byID := make(map[string]graph.Node, len(nodes))
	incoming := make(map[string]bool)
	children := make(map[string][]graph.Edge)
	for _, n := range nodes {
		byID[n.ID] = n
	}
	for _, e := range edges {
		if e.Source == e.Target {
			continue
		}
		incoming[e.Target] = true
		children[e.Source] = append(children[e.Source], e)
	}

	var rows []outlineRow
	seen := make(map[string]bool)
	var walk func(id string, depth int)
	walk = func(id string, depth int) {
		n := byID[id]
		if seen[id] || n.Hidden {
			return
		}
		seen[id] = true

		row := outlineRow{ID: id, Title: displayTitle(n), Type: n.Type, Depth: depth, Leaf: true}
		for _, e := range children[id] {
			row.Leaf = false
			if e.Hidden || byID[e.Target].Hidden {
				row.Folded = true
			}
		}
		rows = append(rows, row)

		for _, e := range children[id] {
			if !e.Hidden {
				walk(e.Target, depth+1)
			}
		}
	}

	for _, n := range nodes {
		if !incoming[n.ID] {
			walk(n.ID, 0)
		}
	}
	for _, n := range nodes {
		walk(n.ID, 0)
	}
	return rows
}

// displayTitle is the payload title, the formula source for formulas, or
// the node id.
func displayTitle(n graph.Node) string {
	if f, ok := n.Data.(graph.FormulaData); ok && f.Formula != "" {
		return f.Formula
	}
	if t := n.Title(); t != "" {
		return t
	}
	return n.ID
}

// =============================================================================
// Model
// =============================================================================

type layoutDoneMsg struct{ err error }

type savedMsg struct {
	path string
	err  error
}

// outlineModel is the bubbletea model of the view command.
type outlineModel struct {
	ctx    context.Context
	ed     *editor.Editor
	path   string
	rows   []outlineRow
	cursor int
	offset int
	height int
	status string
	failed bool
	busy   bool
}

func newOutlineModel(ctx context.Context, ed *editor.Editor, path string) outlineModel {
	m := outlineModel{ctx: ctx, ed: ed, path: path, height: 20}
	m.refresh()
	if len(m.rows) > 0 {
		ed.Select(m.rows[0].ID)
	}
	return m
}

// refresh rebuilds the rows and keeps the cursor on the selected node.
func (m *outlineModel) refresh() {
	snap := m.ed.Snapshot()
	m.rows = buildOutline(snap.Nodes, snap.Edges)
	for i, r := range m.rows {
		if r.ID == snap.Selected {
			m.cursor = i
		}
	}
	m.cursor = max(0, min(m.cursor, len(m.rows)-1))
	m.scroll()
}

func (m *outlineModel) scroll() {
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

func (m *outlineModel) move(delta int) {
	if len(m.rows) == 0 {
		return
	}
	m.cursor = max(0, min(m.cursor+delta, len(m.rows)-1))
	m.ed.Select(m.rows[m.cursor].ID)
	m.scroll()
}

func (m *outlineModel) setStatus(failed bool, format string, args ...any) {
	m.failed = failed
	m.status = fmt.Sprintf(format, args...)
}

func (m outlineModel) Init() tea.Cmd {
	return nil
}

func (m outlineModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-6, 5)
		m.scroll()

	case layoutDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.setStatus(true, "layout failed: %v", msg.err)
		} else {
			m.setStatus(false, "layout applied")
		}
		m.refresh()

	case savedMsg:
		if msg.err != nil {
			m.setStatus(true, "save failed: %v", msg.err)
		} else {
			m.setStatus(false, "saved %s", msg.path)
		}

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m outlineModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		m.move(-1)
	case "down", "j":
		m.move(1)
	case "enter", " ":
		if len(m.rows) == 0 {
			break
		}
		if m.rows[m.cursor].Folded {
			m.ed.Expand()
		} else {
			m.ed.Fold()
		}
		m.refresh()
	case "f":
		if !m.ed.Fold() {
			m.setStatus(false, "nothing to fold")
		}
		m.refresh()
	case "e":
		if !m.ed.Expand() {
			m.setStatus(false, "nothing to expand")
		}
		m.refresh()
	case "1", "2", "3", "4", "5":
		t := graph.AllNodeTypes[key[0]-'1']
		if n, ok := m.ed.AddNode(t); ok {
			m.setStatus(false, "added %s %s", t, n.ID)
		}
		m.refresh()
	case "x":
		if len(m.rows) == 0 {
			break
		}
		id := m.rows[m.cursor].ID
		m.ed.DeleteNode(id)
		m.setStatus(false, "deleted %s", id)
		m.refresh()
		if len(m.rows) > 0 {
			m.ed.Select(m.rows[m.cursor].ID)
		}
	case "l":
		if m.busy {
			break
		}
		m.busy = true
		m.setStatus(false, "laying out...")
		ctx, ed := m.ctx, m.ed
		return m, func() tea.Msg { return layoutDoneMsg{err: ed.ApplyLayout(ctx)} }
	case "s":
		ed, path := m.ed, m.path
		return m, func() tea.Msg {
			doc, err := ed.Export()
			if err == nil {
				err = document.WriteFile(path, doc)
			}
			return savedMsg{path: path, err: err}
		}
	}
	return m, nil
}

func (m outlineModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.path))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("↑/↓ move  ⏎ fold/expand  1-5 add  x delete  l layout  s save  q quit"))
	b.WriteString("\n\n")

	if len(m.rows) == 0 {
		b.WriteString(StyleDim.Render("  (empty)"))
		b.WriteString("\n")
	}

	end := min(m.offset+m.height, len(m.rows))
	for i := m.offset; i < end; i++ {
		r := m.rows[i]
		marker := "•"
		switch {
		case r.Folded:
			marker = "▸"
		case !r.Leaf:
			marker = "▾"
		}
		line := strings.Repeat("  ", r.Depth) + marker + " " + r.Title
		if i == m.cursor {
			b.WriteString(outlineCursorStyle.Render("› " + line))
		} else {
			b.WriteString(outlineNormalStyle.Render("  " + line))
		}
		b.WriteString(" " + outlineTypeStyle.Render(string(r.Type)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	status := fmt.Sprintf("[%d/%d]", min(m.cursor+1, len(m.rows)), len(m.rows))
	if m.status != "" {
		status += "  " + m.status
	}
	if m.failed {
		b.WriteString(outlineErrorStyle.Render(status))
	} else {
		b.WriteString(outlineStatusStyle.Render(status))
	}
	return b.String()
}
