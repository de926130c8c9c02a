// Package tui provides the terminal user interface for hubview.
//
// The interface is built on the Bubble Tea framework with Lipgloss
// styling. It has three states: a bootstrap phase that resolves the
// repository, branch, and recursive tree listing; the browse state
// where the tree and preview/editor panes are live; and an error
// state for bootstrap failures. State transitions are message-driven:
// the bootstrap fetch runs as an async command and delivers its
// result as a message, and the browse state delegates to the browser
// model which owns the session controller.
package tui

import (
	"context"
	"fmt"
	"time"

	"hubview/internal/config"
	"hubview/internal/github"
	"hubview/internal/logging"
	"hubview/internal/repotree"
	"hubview/internal/session"
	"hubview/internal/tui/browser"
	"hubview/internal/tui/components"
	"hubview/internal/tui/helpers"
	"hubview/internal/tui/styles"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// AppState represents the current state of the TUI application.
type AppState int

const (
	StateLoading AppState = iota
	StateBrowse
	StateError
	StateQuitting
)

// Gateway is the upstream surface the bootstrap and the session need.
type Gateway interface {
	RepoInfo(ctx context.Context) (*github.RepoInfo, error)
	Branch(ctx context.Context, name string) (*github.BranchInfo, error)
	Tree(ctx context.Context, sha string) (*github.TreeListing, error)
	session.Gateway
}

// bootstrapDoneMsg carries the result of the repository bootstrap.
type bootstrapDoneMsg struct {
	branch    string
	forest    []*repotree.Entry
	truncated bool
	err       error
}

// MainModel is the root model for the TUI application. It owns the
// bootstrap sequence and hands the browse state to the browser model
// once the tree is available.
type MainModel struct {
	config  *config.Config
	logger  *logging.AppLogger
	gateway Gateway
	route   config.Route

	state AppState
	err   error

	spinner spinner.Model
	browser browser.Model
	layout  components.LayoutModel

	windowWidth  int
	windowHeight int
}

func NewMainModel(gateway Gateway, route config.Route, cfg *config.Config, logger *logging.AppLogger) *MainModel {
	if logger == nil {
		logger = logging.GetDefault()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.SpinnerStyle

	layout := components.NewLayout(components.LayoutConfig{
		MarginX:  2,
		MarginY:  1,
		MaxWidth: 100,
	})

	return &MainModel{
		config:  cfg,
		logger:  logger,
		gateway: gateway,
		route:   route,
		state:   StateLoading,
		spinner: sp,
		layout:  layout,
	}
}

func (m *MainModel) Init() tea.Cmd {
	m.logger.Info("MainModel initialized", "route", m.route.String())
	return tea.Batch(m.spinner.Tick, m.bootstrap())
}

// bootstrap resolves the branch and fetches the recursive listing in
// one async command. The flat list is converted to a forest here so
// the browse state starts fully formed.
func (m *MainModel) bootstrap() tea.Cmd {
	gateway := m.gateway
	logger := m.logger
	branch := ""
	if m.config != nil {
		branch = m.config.Branch
	}

	return func() tea.Msg {
		ctx := context.Background()
		defer logger.LogPerformance("bootstrap", time.Now())

		if branch == "" {
			info, err := gateway.RepoInfo(ctx)
			if err != nil {
				return bootstrapDoneMsg{err: fmt.Errorf("failed to fetch repository metadata: %w", err)}
			}
			branch = info.DefaultBranch
		}

		branchInfo, err := gateway.Branch(ctx, branch)
		if err != nil {
			return bootstrapDoneMsg{err: fmt.Errorf("failed to fetch branch %s: %w", branch, err)}
		}

		listing, err := gateway.Tree(ctx, branchInfo.Commit.Commit.Tree.SHA)
		if err != nil {
			return bootstrapDoneMsg{err: fmt.Errorf("failed to fetch repository tree: %w", err)}
		}

		entries := make([]repotree.Entry, 0, len(listing.Entries))
		for _, e := range listing.Entries {
			entries = append(entries, repotree.Entry{
				Path: e.Path,
				Type: e.Type,
				Mode: e.Mode,
				SHA:  e.SHA,
				Size: e.Size,
			})
		}

		return bootstrapDoneMsg{
			branch:    branch,
			forest:    repotree.Build(entries),
			truncated: listing.Truncated,
		}
	}
}

func (m *MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	m.logger.LogMessage(msg)
	m.layout, _ = m.layout.Update(msg)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		if m.state == StateBrowse {
			m.browser, cmd = m.browser.Update(msg)
		}
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.state = StateQuitting
			return m, tea.Quit
		}
		switch m.state {
		case StateError:
			if msg.String() == "q" || msg.String() == "esc" {
				m.state = StateQuitting
				return m, tea.Quit
			}
			return m, nil
		case StateBrowse:
			m.browser, cmd = m.browser.Update(msg)
			return m, cmd
		}
		return m, nil

	case spinner.TickMsg:
		if m.state == StateLoading {
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case bootstrapDoneMsg:
		if msg.err != nil {
			m.logger.Error("Bootstrap failed", "error", msg.err)
			m.err = msg.err
			m.state = StateError
			return m, nil
		}

		m.logger.Info("Repository bootstrapped",
			"branch", msg.branch,
			"entries", repotree.Count(msg.forest),
			"truncated", msg.truncated)

		controller := session.NewController(m.gateway, msg.branch, m.logger)
		ctx := helpers.NewUIContext(m.windowWidth, m.windowHeight, m.config, m.logger)
		m.browser = browser.New(msg.forest, m.route.InitialPath, controller, ctx)
		m.state = StateBrowse

		cmds := []tea.Cmd{m.browser.Init()}
		if m.windowWidth > 0 && m.windowHeight > 0 {
			m.browser, cmd = m.browser.Update(tea.WindowSizeMsg{Width: m.windowWidth, Height: m.windowHeight})
			if cmd != nil {
				cmds = append(cmds, cmd)
			}
		}
		return m, tea.Batch(cmds...)

	default:
		if m.state == StateBrowse {
			m.browser, cmd = m.browser.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

func (m *MainModel) View() string {
	switch m.state {
	case StateQuitting:
		m.layout = m.layout.SetConfig(components.LayoutConfig{
			Title: "👋 Goodbye!",
		})
		return m.layout.Render("")

	case StateLoading:
		m.layout = m.layout.SetConfig(components.LayoutConfig{
			Title:    "📂 hubview",
			Subtitle: m.route.Owner + "/" + m.route.Repo,
			HelpText: "Ctrl+C to quit",
		})
		return m.layout.Render(m.spinner.View() + " Fetching repository tree...")

	case StateError:
		m.layout = m.layout.SetConfig(components.LayoutConfig{
			Title:    "❌ Error",
			Subtitle: "Could not open " + m.route.Owner + "/" + m.route.Repo,
			HelpText: "q to quit",
		})
		content := ""
		if m.err != nil {
			content = m.err.Error()
		}
		return m.layout.Render(content)
	}

	return m.browser.View()
}
