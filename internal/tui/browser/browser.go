// Package browser implements the main repository view: the file tree
// on the left, preview or editor on the right. It drives the session
// controller through async commands and is the only consumer of the
// treeview selection events.
package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"hubview/internal/classify"
	"hubview/internal/logging"
	"hubview/internal/markdown"
	"hubview/internal/repotree"
	"hubview/internal/session"
	"hubview/internal/tui/helpers"
	"hubview/internal/tui/styles"
	"hubview/internal/tui/treeview"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

type KeyMap struct {
	Edit       key.Binding
	ToggleView key.Binding
	Save       key.Binding
	Cancel     key.Binding
	FocusLeft  key.Binding
	FocusRight key.Binding
	Quit       key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Edit:       key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		ToggleView: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "source/rendered")),
		Save:       key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "commit")),
		Cancel:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		FocusLeft:  key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "focus tree")),
		FocusRight: key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "focus preview")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Edit, k.ToggleView, k.Save, k.Cancel, k.FocusLeft, k.FocusRight, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Edit, k.ToggleView, k.Save, k.Cancel, k.FocusLeft, k.FocusRight, k.Quit},
	}
}

// phase tracks which surface owns keyboard input on the right pane.
type phase int

const (
	phaseBrowse phase = iota
	phaseEdit
	phaseCommitMessage
)

// focusedPane identifies which pane has keyboard focus while browsing
type focusedPane int

const (
	focusTree focusedPane = iota
	focusPreview
)

type (
	previewLoadedMsg struct {
		sess session.Session
		err  error
	}

	editReadyMsg struct {
		sess session.Session
		err  error
	}

	commitDoneMsg struct {
		sess session.Session
		err  error
	}
)

type Model struct {
	logger     *logging.AppLogger
	keys       KeyMap
	controller *session.Controller

	tree     treeview.Model
	viewport viewport.Model
	editor   textarea.Model
	message  textinput.Model
	help     help.Model

	phase     phase
	focusPane focusedPane

	useGlamour   bool
	glamourStyle string

	statusLine string
	loading    bool

	width  int
	height int
}

// New builds the browser over an already-built forest. The controller
// carries the branch reference resolved at bootstrap.
func New(forest []*repotree.Entry, initialPath string, controller *session.Controller, ctx helpers.UIContext) Model {
	vp := viewport.New(ctx.Width, ctx.Height)
	vp.MouseWheelEnabled = true

	editor := textarea.New()
	editor.CharLimit = 0

	message := textinput.New()
	message.Placeholder = "Commit message"
	message.CharLimit = 200

	glamourStyle := ""
	if ctx.Config != nil && ctx.Config.GlamourStyle != "" && ctx.Config.GlamourStyle != "auto" {
		glamourStyle = ctx.Config.GlamourStyle
	}

	m := Model{
		logger:       ctx.Logger,
		keys:         DefaultKeyMap(),
		controller:   controller,
		tree:         treeview.New(forest, initialPath, ctx),
		viewport:     vp,
		editor:       editor,
		message:      message,
		help:         help.New(),
		useGlamour:   true,
		glamourStyle: glamourStyle,
		width:        ctx.Width,
		height:       ctx.Height,
	}
	if m.logger == nil {
		m.logger = logging.GetDefault()
	}
	return m
}

// detectGlamourStyle queries the terminal background through termenv,
// honoring GLAMOUR_STYLE when it names a concrete style. The timeout
// keeps unresponsive terminals from hanging startup.
func detectGlamourStyle(timeout time.Duration) string {
	defaultStyle := "dark"

	style := os.Getenv("GLAMOUR_STYLE")
	if style != "" && style != "auto" {
		return style
	}

	ch := make(chan string, 1)
	go func() {
		out := termenv.NewOutput(os.Stdout)
		if out.HasDarkBackground() {
			ch <- "dark"
			return
		}
		ch <- "light"
	}()

	select {
	case s := <-ch:
		return s
	case <-time.After(timeout):
		return defaultStyle
	}
}

func (m Model) Init() tea.Cmd {
	if m.glamourStyle == "" {
		m.glamourStyle = detectGlamourStyle(50 * time.Millisecond)
		m.logger.Debug("Glamour style selected", "style", m.glamourStyle)
	}

	// An initial path that names a file gets previewed immediately.
	if path := m.tree.SelectedPath(); path != "" {
		return m.fetchPreview(path)
	}
	return nil
}

func (m Model) fetchPreview(path string) tea.Cmd {
	return func() tea.Msg {
		sess, err := m.controller.SelectFile(context.Background(), path)
		return previewLoadedMsg{sess: sess, err: err}
	}
}

func (m Model) fetchEdit() tea.Cmd {
	return func() tea.Msg {
		sess, err := m.controller.EnterEdit(context.Background())
		return editReadyMsg{sess: sess, err: err}
	}
}

func (m Model) submitCommit(message string) tea.Cmd {
	return func() tea.Msg {
		sess, err := m.controller.Commit(context.Background(), message)
		return commitDoneMsg{sess: sess, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.resizePanes()
		return m, nil

	case tea.MouseMsg:
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case treeview.FileSelectedMsg:
		m.loading = true
		m.statusLine = "Loading " + msg.Path + "..."
		return m, m.fetchPreview(msg.Path)

	case previewLoadedMsg:
		m.loading = false
		if msg.err != nil {
			if errors.Is(msg.err, session.ErrSuperseded) {
				// A newer selection already owns the preview pane.
				return m, nil
			}
			// Fetch errors surface inline in the preview pane and the
			// user retries by re-selecting.
			m.statusLine = ""
			m.viewport.SetContent(styles.ErrorStyle.Render(msg.err.Error()))
			return m, nil
		}
		m.statusLine = ""
		m.phase = phaseBrowse
		m.viewport.SetContent(m.renderPreview(msg.sess))
		m.viewport.GotoTop()
		return m, nil

	case editReadyMsg:
		m.loading = false
		if msg.err != nil {
			if errors.Is(msg.err, session.ErrSuperseded) {
				return m, nil
			}
			var notEditable *session.NotEditableError
			if errors.As(msg.err, &notEditable) {
				m.statusLine = styles.ErrorStyle.Render(notEditable.Error())
				return m, nil
			}
			m.statusLine = styles.ErrorStyle.Render(msg.err.Error())
			return m, nil
		}
		m.phase = phaseEdit
		m.statusLine = ""
		m.editor.SetValue(msg.sess.Draft)
		m.editor.Focus()
		m.resizePanes()
		return m, nil

	case commitDoneMsg:
		m.loading = false
		if msg.err != nil {
			var commitErr *session.CommitError
			if errors.As(msg.err, &commitErr) || m.controller.Session().Mode == session.ModeEditing {
				// The draft survives a rejected commit; stay in the editor.
				m.statusLine = styles.ErrorStyle.Render(msg.err.Error())
				m.phase = phaseEdit
				m.editor.Focus()
				return m, nil
			}
			// The write stood and only the post-commit preview refresh
			// failed. Edit state is already gone, so re-entering the
			// editor would dead-end; go back to browsing.
			m.phase = phaseBrowse
			m.message.SetValue("")
			if errors.Is(msg.err, session.ErrSuperseded) {
				return m, nil
			}
			m.statusLine = styles.ErrorStyle.Render("committed, but refreshing the preview failed: " + msg.err.Error())
			return m, nil
		}
		m.phase = phaseBrowse
		m.message.SetValue("")
		m.statusLine = styles.SuccessStyle.Render("Committed " + msg.sess.Path)
		m.viewport.SetContent(m.renderPreview(msg.sess))
		m.viewport.GotoTop()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch m.phase {
	case phaseCommitMessage:
		switch msg.String() {
		case "enter":
			text := m.message.Value()
			if text == "" {
				m.statusLine = styles.ErrorStyle.Render("commit message must not be empty")
				return m, nil
			}
			if err := m.controller.UpdateDraft(m.editor.Value()); err != nil {
				m.statusLine = styles.ErrorStyle.Render(err.Error())
				return m, nil
			}
			m.loading = true
			m.statusLine = "Committing..."
			m.message.Blur()
			return m, m.submitCommit(text)
		case "esc":
			m.phase = phaseEdit
			m.message.Blur()
			m.editor.Focus()
			return m, nil
		}
		m.message, cmd = m.message.Update(msg)
		return m, cmd

	case phaseEdit:
		switch {
		case key.Matches(msg, m.keys.Save):
			m.phase = phaseCommitMessage
			m.editor.Blur()
			m.message.Focus()
			return m, textinput.Blink

		case key.Matches(msg, m.keys.Cancel):
			sess := m.controller.CancelEdit()
			m.phase = phaseBrowse
			m.statusLine = ""
			m.viewport.SetContent(m.renderPreview(sess))
			return m, nil

		case key.Matches(msg, m.keys.ToggleView):
			if err := m.controller.UpdateDraft(m.editor.Value()); err != nil {
				m.statusLine = styles.ErrorStyle.Render(err.Error())
				return m, nil
			}
			sess, err := m.controller.ToggleEditorView()
			if err != nil {
				m.statusLine = styles.ErrorStyle.Render(err.Error())
				return m, nil
			}
			if sess.EditorView == session.ViewRendered {
				m.viewport.SetContent(m.renderMarkdownPane(sess.Draft))
				m.viewport.GotoTop()
				m.editor.Blur()
			} else {
				// The draft was re-derived from the rendered form.
				m.editor.SetValue(sess.Draft)
				m.editor.Focus()
			}
			return m, nil
		}

		if m.editorView() == session.ViewRendered {
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		m.editor, cmd = m.editor.Update(msg)
		return m, cmd
	}

	// phaseBrowse
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Edit):
		if m.tree.SelectedPath() == "" {
			m.statusLine = styles.ErrorStyle.Render("select a file first")
			return m, nil
		}
		m.loading = true
		m.statusLine = "Opening editor..."
		return m, m.fetchEdit()

	case key.Matches(msg, m.keys.FocusRight):
		m.focusPane = focusPreview
		return m, nil

	case key.Matches(msg, m.keys.FocusLeft):
		m.focusPane = focusTree
		return m, nil
	}

	if m.focusPane == focusPreview {
		switch msg.String() {
		case "up", "down", "pgup", "pgdown", "ctrl+u", "ctrl+d", "home", "end", "k", "j":
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	m.tree, cmd = m.tree.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) editorView() session.EditorView {
	return m.controller.Session().EditorView
}

// renderPreview formats session content for the preview pane by kind.
func (m Model) renderPreview(sess session.Session) string {
	switch sess.Kind {
	case classify.KindImage:
		return fmt.Sprintf("🖼  %s\n\n%s, %d bytes\n\nImage preview is not available in the terminal.",
			sess.Path, sess.MIME, len(sess.Raw))
	case classify.KindBinary:
		return fmt.Sprintf("📦  %s\n\n%d bytes of binary content.", sess.Path, len(sess.Raw))
	}

	if m.useGlamour && isMarkdownPath(sess.Path) {
		return m.renderMarkdownPreview(sess.Raw)
	}
	return string(sess.Raw)
}

// renderMarkdownPreview strips YAML frontmatter from the body and
// surfaces its title and description as a header above the rendered
// document. Documents without frontmatter render as-is.
func (m Model) renderMarkdownPreview(raw []byte) string {
	meta, body, err := markdown.ExtractMeta(raw)
	if err != nil {
		meta, body = markdown.Meta{}, raw
	}

	rendered := m.renderMarkdownPane(string(body))

	var sections []string
	if meta.Title != "" {
		sections = append(sections, styles.TitleStyle.Render(meta.Title))
	}
	if meta.Description != "" {
		sections = append(sections, styles.SubtitleStyle.Render(meta.Description))
	}
	if len(sections) == 0 {
		return rendered
	}
	sections = append(sections, rendered)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderMarkdownPane(source string) string {
	style := m.glamourStyle
	if style == "" {
		style = "dark"
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(m.viewport.Width),
	)
	if err != nil {
		m.logger.Warn("Glamour renderer unavailable", "error", err)
		return source
	}
	out, err := renderer.Render(source)
	if err != nil {
		m.logger.Warn("Markdown render failed", "error", err)
		return source
	}
	return out
}

func isMarkdownPath(path string) bool {
	for _, suffix := range []string{".md", ".markdown", ".mdown"} {
		if len(path) > len(suffix) && path[len(path)-len(suffix):] == suffix {
			return true
		}
	}
	return false
}

func (m *Model) resizePanes() {
	frameW, frameH := styles.PaneStyle.GetFrameSize()
	avail := max(m.width-frameW*2-1, 0)

	treeWidth := avail / 3
	paneWidth := avail - treeWidth
	if treeWidth < 20 {
		treeWidth = 20
	}
	if paneWidth < 30 {
		paneWidth = 30
	}

	helpView := styles.HelpContainerStyle.Render(styles.HelpStyle.Render(m.help.View(m.keys)))
	statusH := 1
	contentHeight := max(m.height-lipgloss.Height(helpView)-statusH-frameH, 5)

	m.tree, _ = m.tree.Update(tea.WindowSizeMsg{Width: treeWidth, Height: contentHeight})
	m.viewport.Width = paneWidth
	m.viewport.Height = contentHeight
	m.editor.SetWidth(paneWidth)
	m.editor.SetHeight(contentHeight - 1)
	m.message.Width = paneWidth - 4
}

func (m Model) View() string {
	treePane := styles.PaneStyle
	rightPane := styles.PaneStyle
	if m.focusPane == focusTree && m.phase == phaseBrowse {
		treePane = styles.PaneFocusedStyle
	} else {
		rightPane = styles.PaneFocusedStyle
	}

	var right string
	switch m.phase {
	case phaseEdit:
		if m.editorView() == session.ViewRendered {
			right = m.viewport.View()
		} else {
			right = m.editor.View()
		}
	case phaseCommitMessage:
		right = lipgloss.JoinVertical(lipgloss.Left,
			m.editor.View(),
			styles.InputStyle.Render(m.message.View()),
		)
	default:
		right = m.viewport.View()
	}

	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		treePane.Render(m.tree.View()),
		rightPane.Render(right),
	)

	status := m.statusLine
	if m.loading && status == "" {
		status = "Loading..."
	}

	helpView := styles.HelpContainerStyle.Render(styles.HelpStyle.Render(m.help.View(m.keys)))

	return lipgloss.JoinVertical(lipgloss.Left,
		styles.MainContainerStyle.Render(panes),
		" "+status,
		helpView,
	)
}
