package api

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/slipbox/internal/storage"
)

const maxUploadBytes = 50 << 20

// AttachmentHandler serves and accepts files in the attachments directory.
type AttachmentHandler struct {
	store storage.Provider
	dir   string
}

// NewAttachmentHandler creates a handler for dir, relative to the store root.
func NewAttachmentHandler(store storage.Provider, dir string) *AttachmentHandler {
	return &AttachmentHandler{store: store, dir: dir}
}

// AttachmentName checks that name is a plain, visible file name and returns
// its path relative to the store root.
func AttachmentName(dir, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("filename is required")
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.HasPrefix(cleaned, ".") {
		return "", fmt.Errorf("invalid filename: %s", name)
	}
	return filepath.Join(dir, cleaned), nil
}

// ServeFile handles GET /attachments/{filename}.
func (h *AttachmentHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	rel, err := AttachmentName(h.dir, chi.URLParam(r, "filename"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if ok, _ := h.store.Exists(rel); !ok {
		http.NotFound(w, r)
		return
	}
	abs, err := h.store.Abs(rel)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	http.ServeFile(w, r, abs)
}

// Upload handles POST /api/attachments (multipart/form-data, field "file").
//
//	@Summary		Upload an attachment
//	@Tags			attachments
//	@Accept			mpfd
//	@Produce		json
//	@Success		201	{object}	AttachmentUploadResponse
//	@Failure		400	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/attachments [post]
func (h *AttachmentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	rel, err := AttachmentName(h.dir, header.Filename)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read upload"))
		return
	}
	if err := h.store.Write(rel, data); err != nil {
		writeError(w, "upload attachment", err)
		return
	}

	name := filepath.Base(rel)
	writeJSON(w, http.StatusCreated, AttachmentUploadResponse{
		Filename: name,
		Size:     int64(len(data)),
		URL:      "/attachments/" + name,
	})
}
