// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the knowledge base to LLM clients over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/localshelf/internal/apperr"
	"github.com/starford/localshelf/internal/index"
	"github.com/starford/localshelf/internal/journal"
	"github.com/starford/localshelf/internal/models"
)

// Shelf is the knowledge base surface the tools operate on.
type Shelf interface {
	Stow(ctx context.Context, sources []string) (*models.StowReport, error)
	ListPages(ctx context.Context) ([]models.PageMetadata, error)
	ReadPage(ctx context.Context, path string) ([]byte, error)
	Search(ctx context.Context, query string, limit int) ([]index.SearchResult, error)
	Backlinks(ctx context.Context, name string) ([]string, error)
	ReadJournal(ctx context.Context, day time.Time) ([]journal.Entry, error)
	Today() time.Time
}

const searchLimit = 20

// Server wraps the MCP server with knowledge base tools.
type Server struct {
	mcp   *server.MCPServer
	shelf Shelf
}

// New creates a new MCP server with all tools registered.
func New(shelf Shelf, version string) *Server {
	s := &Server{shelf: shelf}

	s.mcp = server.NewMCPServer(
		"local_shelf",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("stow_file",
		mcp.WithDescription("Move a file into the knowledge base pages directory and record it in today's journal. "+
			"The file is never overwritten onto an existing page; a unique name is chosen instead."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Absolute path of the file to stow")),
	), s.stowFile)

	s.mcp.AddTool(mcp.NewTool("list_pages",
		mcp.WithDescription("List every page stored in the knowledge base."),
	), s.listPages)

	s.mcp.AddTool(mcp.NewTool("read_page",
		mcp.WithDescription("Read the full content of a page or journal."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path relative to the knowledge base (e.g. pages/note.md)")),
	), s.readPage)

	s.mcp.AddTool(mcp.NewTool("search_pages",
		mcp.WithDescription("Search page titles, bodies and tags."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchPages)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find the pages and journals that link to a page."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Page name or path (e.g. article or pages/article.md)")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("read_journal",
		mcp.WithDescription("List the files stowed on a given day."),
		mcp.WithString("date", mcp.Description("Day as YYYY-MM-DD or YYYY_MM_DD; defaults to today")),
	), s.readJournal)

	s.mcp.AddResource(
		mcp.NewResource(LayoutURI, "Knowledge Base Layout",
			mcp.WithResourceDescription("How pages, journals and links are organised."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readLayoutResource,
	)

	return s
}

// Serve speaks MCP over in/out until ctx is cancelled or in is closed.
// Transport errors are written to logger.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer, logger *slog.Logger) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError))
	return stdio.Listen(ctx, in, out)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) stowFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	report, err := s.shelf.Stow(ctx, []string{path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if report.HasFailures() {
		return mcp.NewToolResultError(report.Failed[0].Err.Error()), nil
	}
	m := report.Moved[0]
	return mcp.NewToolResultText(fmt.Sprintf("stowed: %s\njournal: %s", m.Destination, report.JournalPath)), nil
}

func (s *Server) listPages(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	metas, err := s.shelf.ListPages(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(metas) == 0 {
		return mcp.NewToolResultText("no pages found"), nil
	}
	paths := make([]string, 0, len(metas))
	for _, m := range metas {
		paths = append(paths, m.Path)
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) readPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.shelf.ReadPage(ctx, path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) searchPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.shelf.Search(ctx, query, searchLimit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if results == nil {
		results = []index.SearchResult{}
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bl, err := s.shelf.Backlinks(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(bl) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	return mcp.NewToolResultText(strings.Join(bl, "\n")), nil
}

func (s *Server) readJournal(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	day := s.shelf.Today()
	if raw := strings.TrimSpace(req.GetString("date", "")); raw != "" {
		parsed, err := journal.ParseDate(strings.ReplaceAll(raw, "-", "_") + ".md")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		day = parsed
	}
	entries, err := s.shelf.ReadJournal(ctx, day)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultText("no journal for " + day.Format(time.DateOnly)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, e.Line())
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) readLayoutResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      LayoutURI,
			MIMEType: "text/markdown",
			Text:     ShelfLayout,
		},
	}, nil
}
