// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes PaperSync weekly notes for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/papersync/papersync/internal/vault"
	"github.com/papersync/papersync/internal/week"
)

// Server wraps the MCP server with PaperSync tools.
type Server struct {
	mcp   *server.MCPServer
	notes *vault.Notes
}

// New creates a new MCP server with all PaperSync tools registered.
func New(notes *vault.Notes) *Server {
	s := &Server{notes: notes}

	s.mcp = server.NewMCPServer(
		"PaperSync",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("read_week_note",
		mcp.WithDescription("Read the structured weekly planner note for one ISO week."),
		mcp.WithString("week", mcp.Required(), mcp.Description("ISO week id (e.g. 2026-W05)")),
	), s.readWeekNote)

	s.mcp.AddTool(mcp.NewTool("read_week_markdown",
		mcp.WithDescription("Read the raw Markdown source of one weekly planner note."),
		mcp.WithString("week", mcp.Required(), mcp.Description("ISO week id (e.g. 2026-W05)")),
	), s.readWeekMarkdown)

	s.mcp.AddTool(mcp.NewTool("list_week_notes",
		mcp.WithDescription("List the ISO week ids of all stored weekly planner notes."),
	), s.listWeekNotes)

	s.mcp.AddTool(mcp.NewTool("get_note_format",
		mcp.WithDescription("Returns the canonical weekly note Markdown format. "+
			"Call this before interpreting or producing note content."),
	), s.getNoteFormat)

	// Resource: weekly note format.
	s.mcp.AddResource(
		mcp.NewResource("papersync://note-format", "Weekly Note Format",
			mcp.WithResourceDescription("Canonical Markdown format of PaperSync weekly notes."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
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

func (s *Server) readWeekNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := weekArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.notes.Read(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("no note for week %s", id)), nil
	}
	out, _ := json.MarshalIndent(note, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readWeekMarkdown(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := weekArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := s.notes.ReadRaw(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("no note for week %s", id)), nil
	}
	return mcp.NewToolResultText(raw), nil
}

func (s *Server) listWeekNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := s.notes.List()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(ids) == 0 {
		return mcp.NewToolResultText("no weekly notes stored"), nil
	}
	lines := make([]string, len(ids))
	for i, id := range ids {
		lines[i] = string(id)
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) getNoteFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormat), nil
}

func (s *Server) readNoteFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "papersync://note-format",
			MIMEType: "text/markdown",
			Text:     NoteFormat,
		},
	}, nil
}

func weekArg(req mcp.CallToolRequest) (week.ID, error) {
	raw, err := req.RequireString("week")
	if err != nil {
		return "", err
	}
	id := week.ID(raw)
	if !id.Valid() {
		return "", fmt.Errorf("invalid week id %q (expected YYYY-Www)", raw)
	}
	return id, nil
}
