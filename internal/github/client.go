// Package github wraps the handful of GitHub REST endpoints hubview needs:
// repository metadata, branch metadata, the recursive tree listing, raw and
// edit-capable content reads, and the Contents API write. Upstream failures
// surface as *APIError carrying the response body verbatim; callers display
// it, they never parse it.
package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"hubview/internal/logging"
)

const (
	defaultBaseURL   = "https://api.github.com"
	defaultUserAgent = "hubview/1.0"

	acceptJSON = "application/vnd.github+json"
	acceptRaw  = "application/vnd.github.raw+json"
)

// APIError is a non-success upstream response. The body is kept verbatim so
// the UI can surface exactly what GitHub said.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("GitHub API error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("GitHub API error: status %d: %s", e.StatusCode, e.Body)
}

// Client talks to the GitHub REST API for a single owner/repo pair.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	owner      string
	repo       string
	logger     *logging.AppLogger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API root (tests, GHE).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a client for one repository. The token goes into the
// Authorization header of every request.
func NewClient(owner, repo, token string, logger *logging.AppLogger, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		token:      token,
		owner:      owner,
		repo:       repo,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Owner returns the configured repository owner.
func (c *Client) Owner() string { return c.owner }

// Repo returns the configured repository name.
func (c *Client) Repo() string { return c.repo }

// Repo metadata; the caller wants DefaultBranch.
func (c *Client) RepoInfo(ctx context.Context) (*RepoInfo, error) {
	var info RepoInfo
	path := fmt.Sprintf("/repos/%s/%s", c.owner, c.repo)
	if err := c.getJSON(ctx, path, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Branch metadata; the caller wants the commit tree SHA.
func (c *Client) Branch(ctx context.Context, branch string) (*BranchInfo, error) {
	var info BranchInfo
	path := fmt.Sprintf("/repos/%s/%s/branches/%s", c.owner, c.repo, url.PathEscape(branch))
	if err := c.getJSON(ctx, path, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Tree fetches the recursive flat listing for a tree SHA.
func (c *Client) Tree(ctx context.Context, sha string) (*TreeListing, error) {
	var listing TreeListing
	path := fmt.Sprintf("/repos/%s/%s/git/trees/%s?recursive=1", c.owner, c.repo, url.PathEscape(sha))
	if err := c.getJSON(ctx, path, &listing); err != nil {
		return nil, err
	}
	if listing.Truncated {
		c.logger.Warn("Tree listing truncated by the API", "sha", sha, "entries", len(listing.Entries))
	}
	return &listing, nil
}

// RawContent fetches a file's bytes at ref using the raw Accept variant.
// The response's Content-Type feeds classification.
func (c *Client) RawContent(ctx context.Context, path, ref string) (*FileContent, error) {
	apiPath := c.contentsPath(path, ref)
	req, err := c.newRequest(ctx, http.MethodGet, apiPath, acceptRaw, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch content for %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read content response for %s: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return &FileContent{
		Path:        path,
		Data:        body,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// ContentForEdit fetches a file through the JSON Contents representation,
// which is the only read that yields the blob SHA required to commit. The
// base64 payload is decoded before returning.
func (c *Client) ContentForEdit(ctx context.Context, path, ref string) (*FileContent, error) {
	apiPath := c.contentsPath(path, ref)
	req, err := c.newRequest(ctx, http.MethodGet, apiPath, acceptJSON, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch metadata for %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata response for %s: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var meta contentMetadata
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse metadata for %s: %w", path, err)
	}
	if meta.Type != "" && meta.Type != "file" {
		return nil, fmt.Errorf("path %s is a %s, not a file", path, meta.Type)
	}

	data, err := decodeContent(meta)
	if err != nil {
		return nil, fmt.Errorf("failed to decode content for %s: %w", path, err)
	}

	return &FileContent{
		Path: path,
		Data: data,
		SHA:  meta.SHA,
	}, nil
}

// UpdateContent commits new bytes through the Contents API. req.SHA must be
// the blob SHA from a prior ContentForEdit; a stale one comes back as a 409
// APIError with GitHub's body intact.
func (c *Client) UpdateContent(ctx context.Context, path string, update UpdateRequest) (*UpdateResult, error) {
	payload, err := json.Marshal(update)
	if err != nil {
		return nil, fmt.Errorf("failed to encode update for %s: %w", path, err)
	}

	apiPath := fmt.Sprintf("/repos/%s/%s/contents/%s", c.owner, c.repo, escapePath(path))
	req, err := c.newRequest(ctx, http.MethodPut, apiPath, acceptJSON, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to submit update for %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read update response for %s: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var result UpdateResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse update response for %s: %w", path, err)
	}

	c.logger.Info("Content updated",
		"path", path,
		"commit", result.Commit.SHA,
		"blob", result.Content.SHA,
	)
	return &result, nil
}

// EncodeContent base64-encodes file bytes the way the Contents API expects.
func EncodeContent(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

func decodeContent(meta contentMetadata) ([]byte, error) {
	switch meta.Encoding {
	case "base64":
		// GitHub wraps base64 payloads in newlines.
		cleaned := strings.ReplaceAll(meta.Content, "\n", "")
		return base64.StdEncoding.DecodeString(cleaned)
	case "", "none":
		return []byte(meta.Content), nil
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", meta.Encoding)
	}
}

func (c *Client) contentsPath(path, ref string) string {
	apiPath := fmt.Sprintf("/repos/%s/%s/contents/%s", c.owner, c.repo, escapePath(path))
	if ref != "" {
		apiPath += "?ref=" + url.QueryEscape(ref)
	}
	return apiPath
}

// escapePath escapes each path segment while keeping the slashes.
func escapePath(path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

func (c *Client) newRequest(ctx context.Context, method, apiPath, accept string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPath, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) getJSON(ctx context.Context, apiPath string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, apiPath, acceptJSON, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", apiPath, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response from %s: %w", apiPath, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response from %s: %w", apiPath, err)
	}
	return nil
}
