// Package treeview renders the repository tree and tracks per-node
// expansion plus the session-wide selection. Toggling applies to
// directory nodes only and selection to file nodes only; selecting a
// file emits a FileSelectedMsg for the session layer.
package treeview

import (
	"strings"

	"hubview/internal/logging"
	"hubview/internal/repotree"
	"hubview/internal/tui/helpers"
	"hubview/internal/tui/styles"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
)

type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Toggle   key.Binding
	Collapse key.Binding
	Top      key.Binding
	Bottom   key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Toggle:   key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "open")),
		Collapse: key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "collapse")),
		Top:      key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "top")),
		Bottom:   key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "bottom")),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Toggle, k.Collapse}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Toggle, k.Collapse, k.Top, k.Bottom},
	}
}

// FileSelectedMsg is emitted when a blob node is selected.
type FileSelectedMsg struct {
	Path string
}

// row is one visible line, recomputed from the forest and the
// expansion flags on every render.
type row struct {
	entry *repotree.Entry
	depth int
}

type Model struct {
	logger *logging.AppLogger
	keys   KeyMap

	forest      []*repotree.Entry
	initialPath string

	// expanded holds the single per-node boolean: seeded from the
	// initial-path rule at construction, flipped by toggles after.
	expanded     map[string]bool
	selectedPath string

	cursor int

	width  int
	height int
}

// New builds the navigation state over an already-built forest.
// Directory nodes on the path to initialPath start expanded; every
// other node starts collapsed.
func New(forest []*repotree.Entry, initialPath string, ctx helpers.UIContext) Model {
	m := Model{
		logger:      ctx.Logger,
		keys:        DefaultKeyMap(),
		forest:      forest,
		initialPath: initialPath,
		expanded:    make(map[string]bool),
		width:       ctx.Width,
		height:      ctx.Height,
	}
	if m.logger == nil {
		m.logger = logging.GetDefault()
	}

	seedExpansion(m.expanded, forest, initialPath)

	// Start the cursor on the initial path when it names a file.
	if initialPath != "" {
		if node := repotree.Find(forest, initialPath); node != nil && !node.IsDir() {
			m.selectedPath = initialPath
			for i, r := range m.visibleRows() {
				if r.entry.Path == initialPath {
					m.cursor = i
					break
				}
			}
		}
	}
	return m
}

// seedExpansion marks every directory that equals initialPath or is
// an ancestor of it. Evaluated once at construction; later toggles
// flip the same flags.
func seedExpansion(expanded map[string]bool, siblings []*repotree.Entry, initialPath string) {
	if initialPath == "" {
		return
	}
	for _, e := range siblings {
		if !e.IsDir() {
			continue
		}
		if initialPath == e.Path || strings.HasPrefix(initialPath, e.Path+"/") {
			expanded[e.Path] = true
		}
		seedExpansion(expanded, e.Children, initialPath)
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

// SelectedPath returns the sticky selection, empty until the first
// file is selected.
func (m Model) SelectedPath() string {
	return m.selectedPath
}

// Expanded reports the current expansion flag of a directory path.
func (m Model) Expanded(path string) bool {
	return m.expanded[path]
}

// Toggle flips the expansion flag of a directory node. File nodes are
// left untouched.
func (m *Model) Toggle(path string) {
	node := repotree.Find(m.forest, path)
	if node == nil || !node.IsDir() {
		return
	}
	m.expanded[path] = !m.expanded[path]
}

// Select sets the selection to a blob node and returns the emit
// command. Directory nodes never become the selection.
func (m *Model) Select(path string) tea.Cmd {
	node := repotree.Find(m.forest, path)
	if node == nil || node.IsDir() {
		return nil
	}
	m.selectedPath = path
	m.logger.Debug("File selected", "path", path)
	return func() tea.Msg {
		return FileSelectedMsg{Path: path}
	}
}

// visibleRows flattens the forest into display order: expanded
// directories contribute their children, siblings sort directories
// first then lexically. Recomputed on every call, never cached.
func (m Model) visibleRows() []row {
	var rows []row
	var walk func(siblings []*repotree.Entry, depth int)
	walk = func(siblings []*repotree.Entry, depth int) {
		for _, e := range repotree.SortSiblings(siblings) {
			rows = append(rows, row{entry: e, depth: depth})
			if e.IsDir() && m.expanded[e.Path] {
				walk(e.Children, depth+1)
			}
		}
	}
	walk(m.forest, 0)
	return rows
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		rows := m.visibleRows()
		if len(rows) == 0 {
			return m, nil
		}
		if m.cursor >= len(rows) {
			m.cursor = len(rows) - 1
		}

		switch {
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}

		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(rows)-1 {
				m.cursor++
			}

		case key.Matches(msg, m.keys.Top):
			m.cursor = 0

		case key.Matches(msg, m.keys.Bottom):
			m.cursor = len(rows) - 1

		case key.Matches(msg, m.keys.Toggle):
			current := rows[m.cursor].entry
			if current.IsDir() {
				m.Toggle(current.Path)
				return m, nil
			}
			return m, m.Select(current.Path)

		case key.Matches(msg, m.keys.Collapse):
			current := rows[m.cursor].entry
			if current.IsDir() && m.expanded[current.Path] {
				m.expanded[current.Path] = false
				return m, nil
			}
			// On a file or a collapsed directory, jump to the parent.
			if parent := repotree.ParentPath(current.Path); parent != "" {
				for i, r := range rows {
					if r.entry.Path == parent {
						m.cursor = i
						break
					}
				}
			}
		}
	}
	return m, nil
}

func (m Model) View() string {
	rows := m.visibleRows()
	if len(rows) == 0 {
		return styles.SubtitleStyle.Render("repository is empty")
	}

	cursor := m.cursor
	if cursor >= len(rows) {
		cursor = len(rows) - 1
	}

	visible := m.height
	if visible <= 0 {
		visible = len(rows)
	}

	// Scroll window follows the cursor.
	offset := 0
	if cursor >= visible {
		offset = cursor - visible + 1
	}

	end := offset + visible
	if end > len(rows) {
		end = len(rows)
	}

	var b strings.Builder
	for i := offset; i < end; i++ {
		b.WriteString(m.renderRow(rows[i], i == cursor))
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m Model) renderRow(r row, atCursor bool) string {
	indent := strings.Repeat("  ", r.depth)

	var glyph, name string
	if r.entry.IsDir() {
		if m.expanded[r.entry.Path] {
			glyph = "▾ "
		} else {
			glyph = "▸ "
		}
		name = r.entry.Name() + "/"
	} else {
		glyph = "  "
		name = r.entry.Name()
	}

	line := indent + glyph + name

	style := lipgloss.NewStyle()
	if r.entry.Path == m.selectedPath {
		style = styles.SuccessStyle
	}
	if atCursor {
		style = style.Reverse(true)
	}
	if m.width > 0 {
		line = truncate.StringWithTail(line, uint(m.width), "…")
	}
	return style.Render(line)
}
