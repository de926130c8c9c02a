// Package server exposes the repository content operations over a
// small local HTTP surface for UI frontends that are not the built-in
// terminal one.
package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"hubview/internal/classify"
	"hubview/internal/github"
	"hubview/internal/logging"
	"hubview/internal/markdown"
	"hubview/internal/repotree"
)

// Gateway is the upstream surface the server proxies to.
type Gateway interface {
	RepoInfo(ctx context.Context) (*github.RepoInfo, error)
	Branch(ctx context.Context, name string) (*github.BranchInfo, error)
	Tree(ctx context.Context, sha string) (*github.TreeListing, error)
	RawContent(ctx context.Context, path, ref string) (*github.FileContent, error)
	ContentForEdit(ctx context.Context, path, ref string) (*github.FileContent, error)
	UpdateContent(ctx context.Context, path string, update github.UpdateRequest) (*github.UpdateResult, error)
}

type Server struct {
	Gateway Gateway
	Branch  string
	Mux     *http.ServeMux

	logger *logging.AppLogger
}

// NewServer wires the routes. Gateway may be nil when the process has
// no credentials or repository route configured; every API handler
// then reports the configuration error instead of proxying.
func NewServer(gateway Gateway, branch string, logger *logging.AppLogger) *Server {
	if logger == nil {
		logger = logging.GetDefault()
	}
	s := &Server{
		Gateway: gateway,
		Branch:  branch,
		Mux:     http.NewServeMux(),
		logger:  logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Mux.HandleFunc("/healthz", s.handleHealth)
	s.Mux.HandleFunc("/api/repo", s.handleRepo)
	s.Mux.HandleFunc("/api/tree", s.handleTree)
	s.Mux.HandleFunc("/api/content", s.handleContent)
	s.Mux.HandleFunc("/api/save", s.handleSave)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// configured reports a configuration error to the client when the
// process was started without credentials or a repository route.
func (s *Server) configured(w http.ResponseWriter) bool {
	if s.Gateway == nil {
		http.Error(w, "server is not configured: set a GitHub token and an owner/repo route", http.StatusServiceUnavailable)
		return false
	}
	return true
}

// writeUpstreamError passes upstream API failures through with their
// original status code and body. Everything else becomes a 502.
func (s *Server) writeUpstreamError(w http.ResponseWriter, err error) {
	var apiErr *github.APIError
	if errors.As(err, &apiErr) {
		http.Error(w, apiErr.Body, apiErr.StatusCode)
		return
	}
	http.Error(w, err.Error(), http.StatusBadGateway)
}

func (s *Server) handleRepo(w http.ResponseWriter, r *http.Request) {
	if !s.configured(w) {
		return
	}

	info, err := s.Gateway.RepoInfo(r.Context())
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}

	branch := s.Branch
	if branch == "" {
		branch = info.DefaultBranch
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"name":          info.Name,
		"fullName":      info.FullName,
		"defaultBranch": info.DefaultBranch,
		"branch":        branch,
		"description":   info.Description,
		"private":       info.Private,
	})
}

// TreeResponse carries the nested forest plus the truncation flag
// from the recursive listing.
type TreeResponse struct {
	Branch    string           `json:"branch"`
	Truncated bool             `json:"truncated"`
	Roots     []*repotree.Entry `json:"roots"`
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	if !s.configured(w) {
		return
	}

	branch, err := s.resolveBranch(r.Context())
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}

	branchInfo, err := s.Gateway.Branch(r.Context(), branch)
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}

	listing, err := s.Gateway.Tree(r.Context(), branchInfo.Commit.Commit.Tree.SHA)
	if err != nil {
		s.writeUpstreamError(w, err)
		return
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

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(TreeResponse{
		Branch:    branch,
		Truncated: listing.Truncated,
		Roots:     repotree.Build(entries),
	})
}

// ContentResponse mirrors the preview contract: text content comes
// back as-is, images as base64, binary with no content at all.
// Markdown documents additionally carry a display title taken from
// their frontmatter or first heading.
type ContentResponse struct {
	Content  string `json:"content"`
	IsImage  bool   `json:"isImage"`
	IsBinary bool   `json:"isBinary"`
	MimeType string `json:"mimeType,omitempty"`
	SHA      string `json:"sha,omitempty"`
	Title    string `json:"title,omitempty"`
}

func (s *Server) handleContent(w http.ResponseWriter, r *http.Request) {
	if !s.configured(w) {
		return
	}

	path := r.URL.Query().Get("path")
	if path == "" {
		http.Error(w, "missing path parameter", http.StatusBadRequest)
		return
	}

	ref := r.URL.Query().Get("ref")
	if ref == "" {
		var err error
		if ref, err = s.resolveBranch(r.Context()); err != nil {
			s.writeUpstreamError(w, err)
			return
		}
	}

	edit := r.URL.Query().Get("edit") == "1" || r.URL.Query().Get("edit") == "true"

	var fc *github.FileContent
	var err error
	if edit {
		fc, err = s.Gateway.ContentForEdit(r.Context(), path, ref)
	} else {
		fc, err = s.Gateway.RawContent(r.Context(), path, ref)
	}
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}

	result := classify.Detect(path, fc.ContentType, fc.Data)

	resp := ContentResponse{
		MimeType: result.MIME,
		SHA:      fc.SHA,
	}
	switch result.Kind {
	case classify.KindImage:
		resp.IsImage = true
		resp.Content = base64.StdEncoding.EncodeToString(fc.Data)
	case classify.KindBinary:
		resp.IsBinary = true
	default:
		resp.Content = string(fc.Data)
		if strings.HasSuffix(path, ".md") || strings.HasSuffix(path, ".markdown") {
			resp.Title = markdown.Title(fc.Data)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// SaveRequest is the save endpoint's body. Content is plain text; the
// server handles the base64 framing the upstream write requires.
type SaveRequest struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha"`
	Branch  string `json:"branch"`
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.configured(w) {
		return
	}

	var req SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	switch {
	case req.Path == "":
		http.Error(w, "missing path", http.StatusBadRequest)
		return
	case req.Message == "":
		http.Error(w, "missing commit message", http.StatusBadRequest)
		return
	case req.SHA == "":
		http.Error(w, "missing base revision sha", http.StatusBadRequest)
		return
	}

	branch := req.Branch
	if branch == "" {
		var err error
		if branch, err = s.resolveBranch(r.Context()); err != nil {
			s.writeUpstreamError(w, err)
			return
		}
	}

	result, err := s.Gateway.UpdateContent(r.Context(), req.Path, github.UpdateRequest{
		Message: req.Message,
		Content: github.EncodeContent([]byte(req.Content)),
		SHA:     req.SHA,
		Branch:  branch,
	})
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}

	s.logger.Info("Saved file via HTTP surface", "path", req.Path, "commit", result.Commit.SHA)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"path":   req.Path,
		"sha":    result.Content.SHA,
		"commit": result.Commit.SHA,
	})
}

func (s *Server) resolveBranch(ctx context.Context) (string, error) {
	if s.Branch != "" {
		return s.Branch, nil
	}

	info, err := s.Gateway.RepoInfo(ctx)
	if err != nil {
		return "", err
	}
	return info.DefaultBranch, nil
}
