package mcp

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"hubview/internal/github"
	"hubview/internal/logging"

	"github.com/mark3labs/mcp-go/mcp"
)

type stubGateway struct {
	listing *github.TreeListing
	files   map[string]*github.FileContent
}

func (g *stubGateway) RepoInfo(ctx context.Context) (*github.RepoInfo, error) {
	return &github.RepoInfo{Name: "demo", DefaultBranch: "main"}, nil
}

func (g *stubGateway) Branch(ctx context.Context, name string) (*github.BranchInfo, error) {
	info := &github.BranchInfo{Name: name}
	info.Commit.Commit.Tree.SHA = "t1"
	return info, nil
}

func (g *stubGateway) Tree(ctx context.Context, sha string) (*github.TreeListing, error) {
	return g.listing, nil
}

func (g *stubGateway) RawContent(ctx context.Context, path, ref string) (*github.FileContent, error) {
	fc, ok := g.files[path]
	if !ok {
		return nil, &github.APIError{StatusCode: http.StatusNotFound, Body: `{"message":"Not Found"}`}
	}
	return fc, nil
}

func newTestMCPServer() *Server {
	gw := &stubGateway{
		listing: &github.TreeListing{
			SHA: "t1",
			Entries: []github.TreeEntry{
				{Path: "docs", Type: "tree"},
				{Path: "docs/intro.md", Type: "blob"},
				{Path: "docs/guide", Type: "tree"},
				{Path: "docs/guide/setup.md", Type: "blob"},
				{Path: "README.md", Type: "blob"},
			},
		},
		files: map[string]*github.FileContent{
			"README.md": {Path: "README.md", Data: []byte("# Demo\n"), ContentType: "text/plain"},
			"logo.png":  {Path: "logo.png", Data: []byte{0x89, 'P', 'N', 'G'}, ContentType: "image/png"},
		},
	}
	logger, _ := logging.NewTestLogger()
	return NewServer(gw, "main", logger)
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) != 1 {
		t.Fatalf("expected 1 content block, got %d", len(result.Content))
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	return text.Text
}

func TestRepoTreeListsWholeRepository(t *testing.T) {
	s := newTestMCPServer()

	result, err := s.handleRepoTree(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatalf("handleRepoTree failed: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}

	text := resultText(t, result)
	for _, want := range []string{"docs/", "  guide/", "    setup.md", "  intro.md", "README.md"} {
		if !strings.Contains(text, want) {
			t.Errorf("listing missing %q:\n%s", want, text)
		}
	}
	// Directories sort before files at every level.
	if strings.Index(text, "docs/") > strings.Index(text, "README.md") {
		t.Errorf("directories should list first:\n%s", text)
	}
}

func TestRepoTreeScopedToSubdirectory(t *testing.T) {
	s := newTestMCPServer()

	result, err := s.handleRepoTree(context.Background(), callRequest(map[string]any{"path": "docs"}))
	if err != nil {
		t.Fatalf("handleRepoTree failed: %v", err)
	}

	text := resultText(t, result)
	if strings.Contains(text, "README.md") {
		t.Errorf("scoped listing should not include siblings:\n%s", text)
	}
	if !strings.Contains(text, "intro.md") {
		t.Errorf("scoped listing missing child:\n%s", text)
	}
}

func TestRepoTreeUnknownDirectory(t *testing.T) {
	s := newTestMCPServer()

	result, err := s.handleRepoTree(context.Background(), callRequest(map[string]any{"path": "nope"}))
	if err != nil {
		t.Fatalf("handleRepoTree failed: %v", err)
	}
	if !result.IsError {
		t.Fatalf("expected tool error for unknown directory")
	}
}

func TestRepoTreeRejectsFileScope(t *testing.T) {
	s := newTestMCPServer()

	result, err := s.handleRepoTree(context.Background(), callRequest(map[string]any{"path": "README.md"}))
	if err != nil {
		t.Fatalf("handleRepoTree failed: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error when scoping to a file")
	}
}

func TestFileContentText(t *testing.T) {
	s := newTestMCPServer()

	result, err := s.handleFileContent(context.Background(), callRequest(map[string]any{"path": "README.md"}))
	if err != nil {
		t.Fatalf("handleFileContent failed: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}
	if got := resultText(t, result); got != "# Demo\n" {
		t.Errorf("content = %q", got)
	}
}

func TestFileContentImageNotInlined(t *testing.T) {
	s := newTestMCPServer()

	result, err := s.handleFileContent(context.Background(), callRequest(map[string]any{"path": "logo.png"}))
	if err != nil {
		t.Fatalf("handleFileContent failed: %v", err)
	}

	text := resultText(t, result)
	if !strings.Contains(text, "image") || !strings.Contains(text, "image/png") {
		t.Errorf("expected image notice, got %q", text)
	}
}

func TestFileContentMissingPathArgument(t *testing.T) {
	s := newTestMCPServer()

	result, err := s.handleFileContent(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatalf("handleFileContent failed: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error for missing path argument")
	}
}

func TestFileContentUpstreamFailure(t *testing.T) {
	s := newTestMCPServer()

	result, err := s.handleFileContent(context.Background(), callRequest(map[string]any{"path": "missing.txt"}))
	if err != nil {
		t.Fatalf("handleFileContent failed: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error for upstream failure")
	}
	if !strings.Contains(resultText(t, result), "missing.txt") {
		t.Errorf("error should name the path, got %q", resultText(t, result))
	}
}
