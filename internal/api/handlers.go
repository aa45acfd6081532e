package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/slipbox/internal/models"
	"github.com/starford/slipbox/internal/noteservice"
	"github.com/starford/slipbox/internal/repository"
)

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

// noteQuery turns the {ref} path segment into a lookup. A ref ending in .md
// is a file name; otherwise it is an id, or a title with ?by=title. An
// extra ?title= narrows an id to one exact file.
func noteQuery(r *http.Request) repository.Query {
	ref := chi.URLParam(r, "ref")
	if decoded, err := url.PathUnescape(ref); err == nil {
		ref = decoded
	}
	q := r.URL.Query()
	switch {
	case strings.HasSuffix(ref, models.NoteExt):
		return repository.Query{Filename: ref}
	case q.Get("by") == "title":
		return repository.Query{Title: ref}
	}
	return repository.Query{ID: ref, Title: q.Get("title")}
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List notes
//	@Tags			notes
//	@Produce		json
//	@Param			all		query		bool	false	"Ignore the default view type"
//	@Param			tag		query		string	false	"Filter by tag (repeatable)"
//	@Param			type	query		string	false	"Filter by type (repeatable)"
//	@Success		200		{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.svc.List(r.Context(), noteservice.ListParams{
		All:   q.Get("all") == "true" || q.Get("all") == "1",
		Tags:  q["tag"],
		Types: q["type"],
	})
	if err != nil {
		writeError(w, "list notes", err)
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: items, Total: len(items)})
}

// GetNote handles GET /api/notes/{ref}.
//
//	@Summary		Get a note with its links and sequence
//	@Tags			notes
//	@Produce		json
//	@Param			ref		path		string	true	"Note id, title fragment or file name"
//	@Success		200		{object}	NoteDetail
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse	"Ambiguous; candidates listed"
//	@Security		BearerAuth
//	@Router			/notes/{ref} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.svc.Get(r.Context(), noteQuery(r))
	if err != nil {
		writeError(w, "get note", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// Links handles GET /api/notes/{ref}/links.
func (h *Handler) Links(w http.ResponseWriter, r *http.Request) {
	links, err := h.svc.Links(r.Context(), noteQuery(r))
	if err != nil {
		writeError(w, "links", err)
		return
	}
	writeJSON(w, http.StatusOK, links)
}

// Sequence handles GET /api/notes/{ref}/sequence.
func (h *Handler) Sequence(w http.ResponseWriter, r *http.Request) {
	seq, err := h.svc.Sequence(r.Context(), noteQuery(r))
	if err != nil {
		writeError(w, "sequence", err)
		return
	}
	writeJSON(w, http.StatusOK, seq)
}

// CreateNote handles POST /api/notes.
//
//	@Summary		Create a new note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateNoteRequest	true	"Note to create"
//	@Success		201		{object}	NoteDetail
//	@Failure		400		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("title is required"))
		return
	}
	note, err := h.svc.Create(r.Context(), req.params())
	if err != nil {
		writeError(w, "create note", err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// Tags handles GET /api/tags.
//
//	@Summary		List tags with note counts
//	@Tags			tags
//	@Produce		json
//	@Success		200	{object}	TagsResponse
//	@Security		BearerAuth
//	@Router			/tags [get]
func (h *Handler) Tags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.svc.Tags(r.Context())
	if err != nil {
		writeError(w, "tags", err)
		return
	}
	writeJSON(w, http.StatusOK, TagsResponse{Tags: tags})
}

// Graph handles GET /api/graph.
//
//	@Summary		Get the note graph
//	@Tags			graph
//	@Produce		json
//	@Success		200	{object}	GraphResponse
//	@Security		BearerAuth
//	@Router			/graph [get]
func (h *Handler) Graph(w http.ResponseWriter, r *http.Request) {
	g, err := h.svc.Graph(r.Context())
	if err != nil {
		writeError(w, "graph", err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}
