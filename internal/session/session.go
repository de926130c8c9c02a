// Package session owns the preview/edit state for the currently
// inspected file. A Controller orchestrates content fetches through
// the gateway, mode transitions between read-only preview and edit,
// and commit submission. All blocking operations take a context and
// are safe to call from concurrent command goroutines; results from
// superseded fetches are fenced out rather than applied.
package session

import (
	"context"
	"strings"
	"sync"

	"hubview/internal/classify"
	"hubview/internal/github"
	"hubview/internal/logging"
	"hubview/internal/markdown"
)

// Mode is the top-level session mode.
type Mode int

const (
	ModePreview Mode = iota
	ModeEditing
)

func (m Mode) String() string {
	if m == ModeEditing {
		return "editing"
	}
	return "preview"
}

// EditorView is the sub-mode within ModeEditing.
type EditorView int

const (
	ViewSource EditorView = iota
	ViewRendered
)

func (v EditorView) String() string {
	if v == ViewRendered {
		return "rendered"
	}
	return "source"
}

// Session is a snapshot of the active file's state. Controllers hand
// out copies; mutating a returned Session has no effect.
type Session struct {
	Path string
	Raw  []byte
	Kind classify.Kind
	MIME string

	Mode       Mode
	EditorView EditorView

	// BaseRevision is the blob SHA the write API requires. It is only
	// populated by EnterEdit, never synthesized locally.
	BaseRevision string
	Draft        string
	Rendered     string
}

// Gateway is the subset of the content API the controller needs.
type Gateway interface {
	RawContent(ctx context.Context, path, ref string) (*github.FileContent, error)
	ContentForEdit(ctx context.Context, path, ref string) (*github.FileContent, error)
	UpdateContent(ctx context.Context, path string, update github.UpdateRequest) (*github.UpdateResult, error)
}

// Controller serializes all session mutations behind a mutex. Fetches
// run outside the lock; before a result is applied, the controller
// checks that the originating path is still the selected path and the
// selection sequence has not advanced. Stale results return
// ErrSuperseded and leave the session untouched.
type Controller struct {
	mu      sync.Mutex
	gateway Gateway
	branch  string
	logger  *logging.AppLogger

	seq          uint64
	selectedPath string
	session      Session
}

// NewController creates a controller bound to one branch reference.
// The branch is resolved once at bootstrap and fixed for the session.
func NewController(gateway Gateway, branch string, logger *logging.AppLogger) *Controller {
	if logger == nil {
		logger = logging.GetDefault()
	}
	return &Controller{
		gateway: gateway,
		branch:  branch,
		logger:  logger,
	}
}

// Session returns a copy of the current session state.
func (c *Controller) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// SelectedPath returns the path of the most recent selection, which
// may still have a fetch in flight.
func (c *Controller) SelectedPath() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedPath
}

// SelectFile fetches raw content for path, classifies it, and resets
// the session to preview mode. If another selection lands while the
// fetch is in flight, the result is discarded with ErrSuperseded.
func (c *Controller) SelectFile(ctx context.Context, path string) (Session, error) {
	c.mu.Lock()
	c.seq++
	ticket := c.seq
	c.selectedPath = path
	c.mu.Unlock()

	fc, err := c.gateway.RawContent(ctx, path, c.branch)
	if err != nil {
		c.logger.Warn("Content fetch failed", "path", path, "error", err)
		return Session{}, &FetchError{Path: path, Err: err}
	}

	result := classify.Detect(path, fc.ContentType, fc.Data)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seq != ticket || c.selectedPath != path {
		c.logger.Debug("Discarding stale fetch result", "path", path, "current", c.selectedPath)
		return Session{}, ErrSuperseded
	}

	c.session = Session{
		Path: path,
		Raw:  fc.Data,
		Kind: result.Kind,
		MIME: result.MIME,
		Mode: ModePreview,
	}
	c.logger.Debug("Preview loaded", "path", path, "kind", result.Kind, "bytes", len(fc.Data))
	return c.session, nil
}

// EnterEdit re-fetches the selected file through the edit-capable
// representation to obtain its revision token. The fetch is always
// fresh: content may have changed upstream since the preview, and the
// token is only available on this path. Image and binary content is
// refused with NotEditableError and the session stays in preview.
func (c *Controller) EnterEdit(ctx context.Context) (Session, error) {
	c.mu.Lock()
	path := c.selectedPath
	ticket := c.seq
	c.mu.Unlock()

	if path == "" {
		return Session{}, ErrNoSelection
	}

	fc, err := c.gateway.ContentForEdit(ctx, path, c.branch)
	if err != nil {
		return Session{}, &FetchError{Path: path, Err: err}
	}

	result := classify.Detect(path, "", fc.Data)
	if result.Kind != classify.KindText {
		c.logger.Warn("Refusing edit of non-text content", "path", path, "kind", result.Kind)
		return Session{}, &NotEditableError{Path: path, Kind: result.Kind}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seq != ticket || c.selectedPath != path {
		return Session{}, ErrSuperseded
	}

	c.session.Path = path
	c.session.Kind = result.Kind
	c.session.Mode = ModeEditing
	c.session.EditorView = ViewSource
	c.session.Draft = string(fc.Data)
	c.session.BaseRevision = fc.SHA
	c.session.Rendered = ""
	c.logger.Debug("Edit session opened", "path", path, "revision", fc.SHA)
	return c.session, nil
}

// ToggleEditorView flips between the source and rendered edit views.
// Source to rendered derives HTML from the draft without mutating it.
// Rendered to source re-derives the draft from the HTML; the reverse
// transform is lossy and is not guaranteed to reproduce the prior
// source byte for byte.
func (c *Controller) ToggleEditorView() (Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.Mode != ModeEditing {
		return Session{}, ErrNotEditing
	}

	switch c.session.EditorView {
	case ViewSource:
		rendered, err := markdown.ToHTML([]byte(c.session.Draft))
		if err != nil {
			return Session{}, err
		}
		c.session.Rendered = string(rendered)
		c.session.EditorView = ViewRendered
	case ViewRendered:
		source, err := markdown.FromHTML([]byte(c.session.Rendered))
		if err != nil {
			return Session{}, err
		}
		c.session.Draft = string(source)
		c.session.EditorView = ViewSource
	}
	return c.session, nil
}

// UpdateDraft replaces the draft text while editing in source view.
func (c *Controller) UpdateDraft(draft string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.Mode != ModeEditing {
		return ErrNotEditing
	}
	c.session.Draft = draft
	return nil
}

// Commit submits the draft to the write endpoint guarded by the
// revision token from EnterEdit. Validation failures are reported
// before any network call. On upstream rejection the edit state is
// left intact so the user can retry; on success the edit state is
// dropped and the preview is rebuilt from a fresh fetch.
func (c *Controller) Commit(ctx context.Context, message string) (Session, error) {
	c.mu.Lock()
	if strings.TrimSpace(message) == "" {
		c.mu.Unlock()
		return Session{}, ErrEmptyMessage
	}
	if c.session.Mode != ModeEditing {
		c.mu.Unlock()
		return Session{}, ErrNotEditing
	}
	if c.session.BaseRevision == "" {
		c.mu.Unlock()
		return Session{}, ErrNoBaseRevision
	}

	// Commit from the source representation. A draft sitting in the
	// rendered view is converted back first.
	if c.session.EditorView == ViewRendered {
		source, err := markdown.FromHTML([]byte(c.session.Rendered))
		if err != nil {
			c.mu.Unlock()
			return Session{}, err
		}
		c.session.Draft = string(source)
		c.session.EditorView = ViewSource
	}

	path := c.session.Path
	draft := c.session.Draft
	baseRevision := c.session.BaseRevision
	c.mu.Unlock()

	_, err := c.gateway.UpdateContent(ctx, path, github.UpdateRequest{
		Message: message,
		Content: github.EncodeContent([]byte(draft)),
		SHA:     baseRevision,
		Branch:  c.branch,
	})
	if err != nil {
		c.logger.Warn("Commit rejected", "path", path, "error", err)
		return Session{}, &CommitError{Path: path, Err: err}
	}

	c.logger.Info("Commit accepted", "path", path)

	c.mu.Lock()
	c.session.Mode = ModePreview
	c.session.Draft = ""
	c.session.Rendered = ""
	c.session.BaseRevision = ""
	stillSelected := c.selectedPath == path
	c.mu.Unlock()

	if !stillSelected {
		// The user moved on during the commit. The write stands, but
		// there is no preview to rebuild for this path.
		return c.Session(), nil
	}
	return c.SelectFile(ctx, path)
}

// CancelEdit unconditionally discards edit state and returns to
// preview mode with whatever was last successfully previewed. No
// fetch happens on cancel.
func (c *Controller) CancelEdit() Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.session.Mode = ModePreview
	c.session.Draft = ""
	c.session.Rendered = ""
	c.session.BaseRevision = ""
	return c.session
}
