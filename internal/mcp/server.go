// Package mcp implements a Model Context Protocol (MCP) server for
// hubview using the mcp-go library.
//
// The server exposes read-only tools over the configured repository:
// listing the file tree and fetching file contents. It communicates
// via stdin/stdout using JSON-RPC 2.0 as specified by the MCP
// standard; write operations are deliberately not exposed.
package mcp

import (
	"context"
	"fmt"
	"strings"

	"hubview/internal/classify"
	"hubview/internal/github"
	"hubview/internal/logging"
	"hubview/internal/repotree"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Gateway is the read-only upstream subset the tools need.
type Gateway interface {
	RepoInfo(ctx context.Context) (*github.RepoInfo, error)
	Branch(ctx context.Context, name string) (*github.BranchInfo, error)
	Tree(ctx context.Context, sha string) (*github.TreeListing, error)
	RawContent(ctx context.Context, path, ref string) (*github.FileContent, error)
}

// Server represents an MCP server instance using mcp-go
type Server struct {
	gateway   Gateway
	branch    string
	logger    *logging.AppLogger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance. An empty branch means
// the repository's default branch, resolved at start.
func NewServer(gateway Gateway, branch string, logger *logging.AppLogger) *Server {
	if logger == nil {
		logger = logging.GetDefault()
	}
	return &Server{
		gateway: gateway,
		branch:  branch,
		logger:  logger,
	}
}

// Start resolves the branch reference, registers the tools, and
// serves on stdio until the client disconnects.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Initializing MCP server")

	if s.branch == "" {
		info, err := s.gateway.RepoInfo(ctx)
		if err != nil {
			return fmt.Errorf("failed to resolve default branch: %w", err)
		}
		s.branch = info.DefaultBranch
	}

	s.mcpServer = server.NewMCPServer("hubview", "1.0.0",
		server.WithToolCapabilities(false),
	)
	s.registerTools()

	s.logger.Info("MCP server created, starting stdio communication", "branch", s.branch)
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}

func (s *Server) registerTools() {
	treeTool := mcp.NewTool("repo_tree",
		mcp.WithDescription("List the repository file tree. Directories are suffixed with a slash. Optionally scope the listing to a subdirectory."),
		mcp.WithString("path",
			mcp.Description("Subdirectory to list. Empty lists the whole repository."),
		),
	)
	s.mcpServer.AddTool(treeTool, s.handleRepoTree)

	contentTool := mcp.NewTool("file_content",
		mcp.WithDescription("Fetch the content of a file in the repository. Only text files are returned; images and binary files are reported but not inlined."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Slash-delimited path of the file."),
		),
	)
	s.mcpServer.AddTool(contentTool, s.handleFileContent)
}

func (s *Server) handleRepoTree(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	scope := strings.Trim(req.GetString("path", ""), "/")

	forest, err := s.fetchForest(ctx)
	if err != nil {
		s.logger.Error("Tree listing failed", "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}

	if scope != "" {
		node := repotree.Find(forest, scope)
		if node == nil {
			return mcp.NewToolResultError(fmt.Sprintf("no such directory: %s", scope)), nil
		}
		if !node.IsDir() {
			return mcp.NewToolResultError(fmt.Sprintf("%s is a file, not a directory", scope)), nil
		}
		forest = node.Children
	}

	var b strings.Builder
	writeListing(&b, forest, 0)
	if b.Len() == 0 {
		return mcp.NewToolResultText("(empty)"), nil
	}
	return mcp.NewToolResultText(b.String()), nil
}

func writeListing(b *strings.Builder, siblings []*repotree.Entry, depth int) {
	for _, e := range repotree.SortSiblings(siblings) {
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(e.Name())
		if e.IsDir() {
			b.WriteString("/")
		}
		b.WriteString("\n")
		writeListing(b, e.Children, depth+1)
	}
}

func (s *Server) handleFileContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path = strings.Trim(path, "/")

	fc, err := s.gateway.RawContent(ctx, path, s.branch)
	if err != nil {
		s.logger.Error("Content fetch failed", "path", path, "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("failed to fetch %s: %v", path, err)), nil
	}

	result := classify.Detect(path, fc.ContentType, fc.Data)
	switch result.Kind {
	case classify.KindImage:
		return mcp.NewToolResultText(fmt.Sprintf("%s is an image (%s, %d bytes); content not inlined", path, result.MIME, len(fc.Data))), nil
	case classify.KindBinary:
		return mcp.NewToolResultText(fmt.Sprintf("%s is binary (%d bytes); content not inlined", path, len(fc.Data))), nil
	}
	return mcp.NewToolResultText(string(fc.Data)), nil
}

func (s *Server) fetchForest(ctx context.Context) ([]*repotree.Entry, error) {
	branchInfo, err := s.gateway.Branch(ctx, s.branch)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch branch %s: %w", s.branch, err)
	}

	listing, err := s.gateway.Tree(ctx, branchInfo.Commit.Commit.Tree.SHA)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tree: %w", err)
	}
	if listing.Truncated {
		s.logger.Warn("Tree listing truncated by upstream", "entries", len(listing.Entries))
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
	return repotree.Build(entries), nil
}

// Stop gracefully shuts down the MCP server
func (s *Server) Stop() error {
	s.logger.Info("Stopping MCP server")
	return nil
}
