package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mindgraph/pkg/graph"
	"github.com/matzehuels/mindgraph/pkg/mindmap"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	listHiddenStyle   = lipgloss.NewStyle().Foreground(colorYellow)
)

// exploreKeys are the key bindings of the explore view.
type exploreKeys struct {
	Up     key.Binding
	Down   key.Binding
	Toggle key.Binding
	Write  key.Binding
	Quit   key.Binding
}

func (k exploreKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Toggle, k.Write, k.Quit}
}

func (k exploreKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var defaultExploreKeys = exploreKeys{
	Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Toggle: key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("⏎/space", "collapse/expand")),
	Write:  key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "write svg")),
	Quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
}

const (
	glyphCollapsed = "▸"
	glyphExpanded  = "▾"
	glyphLeaf      = "•"
)

// exploreCommand creates the explore command.
func (c *CLI) exploreCommand() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "explore [mindmap.json]",
		Short: "Browse a mind map in the terminal",
		Long: `Explore opens a saved mind map in an interactive outline. Enter or space
collapses and expands the selected idea, w writes the current view as SVG.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := mindMapJSON
			if len(args) == 1 {
				path = args[0]
			}
			tree, err := graph.ReadMindMapFile(path)
			if err != nil {
				return err
			}
			if out == "" {
				out = filepath.Join(filepath.Dir(path), mindMapSVG)
			}

			m := newExploreModel(mindmap.New(tree.Root, c.mindMapOptions()...), out)
			final, err := tea.NewProgram(m, tea.WithContext(cmd.Context())).Run()
			if err != nil {
				return err
			}
			if fm, ok := final.(exploreModel); ok && fm.written > 0 {
				printSuccess("Wrote %d snapshot(s)", fm.written)
				printFile(out)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "SVG path for w (default: mindmap.svg next to the input)")
	return cmd
}

// =============================================================================
// exploreModel - bubbletea model over a mindmap.Renderer
// =============================================================================

type exploreModel struct {
	renderer *mindmap.Renderer
	frame    mindmap.Frame
	nodes    []mindmap.VisibleNode

	cursor int
	offset int
	height int

	out     string
	written int
	status  string

	keys exploreKeys
	help help.Model
}

func newExploreModel(r *mindmap.Renderer, out string) exploreModel {
	m := exploreModel{renderer: r, out: out, height: 20, keys: defaultExploreKeys, help: help.New()}
	m.frame = r.Render()
	m.nodes = r.Visible()
	return m
}

func (m exploreModel) Init() tea.Cmd {
	return nil
}

func (m exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.status = ""
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			m.move(-1)
		case key.Matches(msg, m.keys.Down):
			m.move(1)
		case key.Matches(msg, m.keys.Toggle):
			m.toggle()
		case key.Matches(msg, m.keys.Write):
			m.write()
		}
	case tea.WindowSizeMsg:
		m.height = max(5, msg.Height-6)
		m.help.Width = msg.Width
		m.scroll()
	}
	return m, nil
}

func (m *exploreModel) move(delta int) {
	if len(m.nodes) == 0 {
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), len(m.nodes)-1)
	m.scroll()
}

func (m *exploreModel) scroll() {
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

// toggle collapses or expands the selected node and keeps the cursor on it.
func (m *exploreModel) toggle() {
	if len(m.nodes) == 0 {
		return
	}
	sel := m.nodes[m.cursor]
	if !sel.HasChildren {
		m.status = fmt.Sprintf("%q has no sub-ideas", sel.Name)
		return
	}
	frame, err := m.renderer.Toggle(sel.ID)
	if err != nil {
		m.status = err.Error()
		return
	}
	m.frame = frame
	m.nodes = m.renderer.Visible()
	for i, n := range m.nodes {
		if n.ID == sel.ID {
			m.cursor = i
			break
		}
	}
	m.scroll()
	m.status = fmt.Sprintf("%d entered, %d moved, %d left",
		frame.Count(mindmap.Enter), frame.Count(mindmap.Update), frame.Count(mindmap.Exit))
}

func (m *exploreModel) write() {
	if err := os.WriteFile(m.out, m.frame.SVG(), 0o644); err != nil {
		m.status = "write failed: " + err.Error()
		return
	}
	m.written++
	m.status = "wrote " + m.out
}

func (m exploreModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.renderer.Root().Name))
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n\n")

	end := min(m.offset+m.height, len(m.nodes))
	for i := m.offset; i < end; i++ {
		n := m.nodes[i]
		glyph := glyphLeaf
		switch {
		case n.HasHidden:
			glyph = listHiddenStyle.Render(glyphCollapsed)
		case n.HasChildren:
			glyph = glyphExpanded
		}

		cursor := "  "
		style := listNormalStyle
		if i == m.cursor {
			cursor = "> "
			style = listSelectedStyle
		}
		b.WriteString(cursor + strings.Repeat("  ", n.Depth) + glyph + " " + style.Render(n.Name))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	footer := fmt.Sprintf("  [%d/%d visible of %d]", m.cursor+1, len(m.nodes), m.renderer.State().Len())
	if m.status != "" {
		footer += "  " + m.status
	}
	b.WriteString(listDimStyle.Render(footer))
	return b.String()
}
