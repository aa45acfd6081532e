package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/slipbox/internal/noteservice"
)

// NewRouter creates a chi router with all API routes, to be mounted at /api.
// sseHandler, if non-nil, is served at GET /events behind the same auth.
func NewRouter(svc *noteservice.Service, attachments *AttachmentHandler, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Get("/notes/{ref}", h.GetNote)
	r.Get("/notes/{ref}/links", h.Links)
	r.Get("/notes/{ref}/sequence", h.Sequence)

	r.Get("/tags", h.Tags)
	r.Get("/graph", h.Graph)

	if attachments != nil {
		r.Post("/attachments", attachments.Upload)
	}
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}
	return r
}
