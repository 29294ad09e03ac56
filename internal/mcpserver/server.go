// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes one user's notes as tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/notas/internal/apperr"
	"github.com/starford/notas/internal/noteservice"
)

// Server wraps the MCP server with notas tools. Every owner-scoped tool acts
// on behalf of owner.
type Server struct {
	mcp   *server.MCPServer
	notes *noteservice.Service
	owner int64
}

// New creates a new MCP server with all notas tools registered.
func New(notes *noteservice.Service, owner int64) *Server {
	s := &Server{notes: notes, owner: owner}

	s.mcp = server.NewMCPServer(
		"notas",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List your notes, most recently updated first."),
		mcp.WithNumber("category_id", mcp.Description("Optional category id to filter by")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read one of your notes by id."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Note id")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a note. Read the guide first via get_note_guide "+
			"or the notas://note-guide resource."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Title, 1 to 255 characters")),
		mcp.WithString("body", mcp.Required(), mcp.Description("Note text")),
		mcp.WithNumber("category_id", mcp.Required(), mcp.Description("Id of an existing category (see list_categories)")),
		mcp.WithBoolean("is_public", mcp.Description("Publish the note; defaults to false")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("set_note_visibility",
		mcp.WithDescription("Make one of your notes public or private."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithBoolean("is_public", mcp.Required(), mcp.Description("Desired visibility")),
	), s.setVisibility)

	s.mcp.AddTool(mcp.NewTool("delete_note",
		mcp.WithDescription("Delete one of your notes."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Note id")),
	), s.deleteNote)

	s.mcp.AddTool(mcp.NewTool("read_public_note",
		mcp.WithDescription("Read any public note by id, whoever owns it."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Note id")),
	), s.readPublicNote)

	s.mcp.AddTool(mcp.NewTool("list_categories",
		mcp.WithDescription("List categories with the number of your notes in each."),
	), s.listCategories)

	s.mcp.AddTool(mcp.NewTool("get_note_guide",
		mcp.WithDescription("Returns the rules notes must follow. "+
			"Call this before creating notes."),
	), s.getNoteGuide)

	// Resource: note guide.
	s.mcp.AddResource(
		mcp.NewResource(NoteGuideURI, "Note Guide",
			mcp.WithResourceDescription("Fields, limits and visibility rules for notes."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteGuideResource,
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

func toolError(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(apperr.Classify(err, false).Message)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notes, err := s.notes.List(ctx, s.owner, int64(req.GetInt("category_id", 0)))
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(notes)
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.notes.Get(ctx, s.owner, int64(id))
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(note)
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	body, err := req.RequireString("body")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	categoryID, err := req.RequireInt("category_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	public := req.GetBool("is_public", false)

	note, err := s.notes.Create(ctx, s.owner, noteservice.NoteInput{
		Title:      title,
		Body:       body,
		CategoryID: int64(categoryID),
		IsPublic:   &public,
	})
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(note)
}

func (s *Server) setVisibility(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	public, err := req.RequireBool("is_public")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.notes.SetVisibility(ctx, s.owner, int64(id), public)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(note)
}

func (s *Server) deleteNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	deleted, err := s.notes.Delete(ctx, s.owner, int64(id))
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %d %q", deleted.ID, deleted.Title)), nil
}

func (s *Server) readPublicNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.notes.GetPublic(ctx, int64(id))
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(note)
}

func (s *Server) listCategories(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cats, err := s.notes.Categories(ctx, s.owner)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(cats)
}

func (s *Server) getNoteGuide(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteGuide), nil
}

func (s *Server) readNoteGuideResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      NoteGuideURI,
			MIMEType: "text/markdown",
			Text:     NoteGuide,
		},
	}, nil
}
