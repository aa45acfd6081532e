// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes slipbox tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/slipbox/internal/apperr"
	"github.com/starford/slipbox/internal/noteservice"
	"github.com/starford/slipbox/internal/parser"
	"github.com/starford/slipbox/internal/repository"
	"github.com/starford/slipbox/internal/storage"
)

const formatResourceURI = "slipbox://note-format"

// Server wraps the MCP server with slipbox tools.
type Server struct {
	mcp            *server.MCPServer
	svc            *noteservice.Service
	store          storage.Provider
	attachmentsDir string
}

// Option configures a Server.
type Option func(*Server)

// WithAttachments enables the attach_file tool, storing files under dir
// relative to the store root.
func WithAttachments(store storage.Provider, dir string) Option {
	return func(s *Server) {
		s.store = store
		s.attachmentsDir = dir
	}
}

// New creates a new MCP server with all slipbox tools registered.
func New(svc *noteservice.Service, version string, opts ...Option) *Server {
	s := &Server{svc: svc}
	for _, o := range opts {
		o(s)
	}

	s.mcp = server.NewMCPServer(
		"slipbox",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List notes as id, title and type. Without filters only the default view type is listed."),
		mcp.WithBoolean("all", mcp.Description("List every note regardless of type")),
		mcp.WithString("tag", mcp.Description("Only notes carrying this tag")),
		mcp.WithString("type", mcp.Description("Only notes of this type")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read a note in its on-disk form (YAML header and Markdown body)."),
		withRef(),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a new note. The id, dates and file name are assigned by the repository. "+
			"Read the contract first via the get_note_contract tool or the "+formatResourceURI+" resource."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Note title; no slashes or line breaks")),
		mcp.WithString("content", mcp.Description("Markdown body; link other notes with [[id]]")),
		mcp.WithString("type", mcp.Description("Note type; defaults to the repository's default new type")),
		mcp.WithString("tags", mcp.Description("Comma-separated tags")),
		mcp.WithString("parents", mcp.Description("Comma-separated parent note ids; each must exist")),
		mcp.WithString("bibkey", mcp.Description("Citation key, kept only for Reference notes")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("get_links",
		mcp.WithDescription("List the notes a note links to and the notes linking to it."),
		withRef(),
	), s.getLinks)

	s.mcp.AddTool(mcp.NewTool("get_sequence",
		mcp.WithDescription("List a note's parents and children."),
		withRef(),
	), s.getSequence)

	s.mcp.AddTool(mcp.NewTool("list_tags",
		mcp.WithDescription("List every tag with the number of notes carrying it."),
	), s.listTags)

	s.mcp.AddTool(mcp.NewTool("get_note_contract",
		mcp.WithDescription("Returns the slipbox note format contract. "+
			"Call this before creating notes to ensure correct structure."),
	), s.getNoteContract)

	if s.store != nil {
		s.mcp.AddTool(mcp.NewTool("attach_file",
			mcp.WithDescription("Save an image or PDF into the attachments directory from a base64 data: URI. "+
				"Returns a Markdown snippet to paste into a note."),
			mcp.WithString("data", mcp.Required(), mcp.Description("data:<mime>;base64,... URI")),
			mcp.WithString("filename", mcp.Description("Target file name; generated from the MIME type when empty")),
		), s.attachFile)
	}

	s.mcp.AddResource(
		mcp.NewResource(formatResourceURI, "Note Format Contract",
			mcp.WithResourceDescription("On-disk format every slipbox note follows."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
	)

	return s
}

func withRef() mcp.ToolOption {
	return mcp.WithString("ref", mcp.Required(),
		mcp.Description("Note id, title fragment, or file name ending in .md"))
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// refQuery mirrors the HTTP API: a ref ending in .md is a file name,
// anything else an id or title fragment.
func refQuery(ref string) repository.Query {
	if strings.HasSuffix(ref, ".md") {
		return repository.Query{Filename: ref}
	}
	return repository.Query{ID: ref}
}

func toolError(err error) *mcp.CallToolResult {
	var amb *apperr.AmbiguousLookupError
	if errors.As(err, &amb) {
		return mcp.NewToolResultError(fmt.Sprintf("%v; candidates:\n%s", err, strings.Join(amb.Candidates, "\n")))
	}
	return mcp.NewToolResultError(err.Error())
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p := noteservice.ListParams{All: req.GetBool("all", false)}
	if tag := req.GetString("tag", ""); tag != "" {
		p.Tags = []string{tag}
	}
	if typ := req.GetString("type", ""); typ != "" {
		p.Types = []string{typ}
	}
	items, err := s.svc.List(ctx, p)
	if err != nil {
		return toolError(err), nil
	}
	if len(items) == 0 {
		return mcp.NewToolResultText("no notes found"), nil
	}
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = fmt.Sprintf("%s\t%s\t%s", it.ID, it.Type, it.Title)
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := req.RequireString("ref")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.svc.Note(ctx, refQuery(ref))
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(string(parser.Encode(n))), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := s.svc.Create(ctx, repository.CreateParams{
		Title:   title,
		Content: req.GetString("content", ""),
		Type:    req.GetString("type", ""),
		Tags:    splitList(req.GetString("tags", "")),
		Parents: splitList(req.GetString("parents", "")),
		Bibkey:  req.GetString("bibkey", ""),
	})
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", d.Filename)), nil
}

func (s *Server) getLinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := req.RequireString("ref")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	links, err := s.svc.Links(ctx, refQuery(ref))
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(links)
}

func (s *Server) getSequence(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := req.RequireString("ref")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	seq, err := s.svc.Sequence(ctx, refQuery(ref))
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(seq)
}

func (s *Server) listTags(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tags, err := s.svc.Tags(ctx)
	if err != nil {
		return toolError(err), nil
	}
	if len(tags) == 0 {
		return mcp.NewToolResultText("no tags found"), nil
	}
	lines := make([]string, len(tags))
	for i, t := range tags {
		lines[i] = fmt.Sprintf("%s\t%d", t.Tag, t.Count)
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) getNoteContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormatContract), nil
}

func (s *Server) readNoteFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatResourceURI,
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}
