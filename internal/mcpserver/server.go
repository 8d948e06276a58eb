// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Sirimal tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/sirimal/internal/models"
	"github.com/starford/sirimal/internal/pipeline"
	"github.com/starford/sirimal/internal/storage"
	"github.com/starford/sirimal/internal/summary"
)

// Runner triggers a pipeline run. It is satisfied by *pipeline.Pipeline.
type Runner interface {
	Run(ctx context.Context) (*pipeline.Result, error)
}

// Server wraps the MCP server with Sirimal tools.
type Server struct {
	mcp       *server.MCPServer
	store     storage.Provider
	summaries *summary.Store
	runner    Runner

	allowedFolders []string
	windowDays     int
}

// New creates a new MCP server with all Sirimal tools registered.
// runner may be nil when no extraction API key is configured; the
// extract_tasks tool then reports the missing key instead of running.
func New(store storage.Provider, summaries *summary.Store, runner Runner, allowedFolders []string, windowDays int) *Server {
	s := &Server{
		store:          store,
		summaries:      summaries,
		runner:         runner,
		allowedFolders: allowedFolders,
		windowDays:     windowDays,
	}

	s.mcp = server.NewMCPServer(
		"Sirimal",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_recent_notes",
		mcp.WithDescription("List vault notes whose last activity falls inside the configured recency window."),
	), s.listRecentNotes)

	s.mcp.AddTool(mcp.NewTool("extract_tasks",
		mcp.WithDescription("Run the extraction pipeline once: scan recent notes, extract tasks, "+
			"follow-ups, and papers, and merge them into the summary files. Returns run counts."),
	), s.extractTasks)

	s.mcp.AddTool(mcp.NewTool("read_summary",
		mcp.WithDescription("Read one summary section's Markdown file. Valid names: "+
			"\"To-Do Tasks\", \"Important things to follow up\", \"Papers to read\". "+
			"The file layout is described by the sirimal://summary-format resource."),
		mcp.WithString("section", mcp.Required(), mcp.Description("Section name")),
	), s.readSummary)

	// Resource: summary file format.
	s.mcp.AddResource(
		mcp.NewResource("sirimal://summary-format", "Summary File Format",
			mcp.WithResourceDescription("Layout of the per-section summary Markdown files."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readSummaryFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listRecentNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	metas, err := s.store.ListRecent(s.allowedFolders, s.windowDays)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(metas) == 0 {
		return mcp.NewToolResultText("no recent notes"), nil
	}
	var paths []string
	for _, m := range metas {
		paths = append(paths, m.Path)
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) extractTasks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.runner == nil {
		return mcp.NewToolResultError("extraction is not configured: OPENAI_API_KEY is not set"), nil
	}
	result, err := s.runner.Run(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("section")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	section, ok := models.ParseSectionName(name)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown section: %s", name)), nil
	}
	data, err := s.store.Read(s.summaries.Path(section))
	if err != nil {
		// The file does not exist until the first run touches the section.
		return mcp.NewToolResultText(fmt.Sprintf("# %s\n", section)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) readSummaryFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "sirimal://summary-format",
			MIMEType: "text/markdown",
			Text:     SummaryFormatContract,
		},
	}, nil
}
