package api

import (
	"github.com/starford/slipbox/internal/index"
	"github.com/starford/slipbox/internal/noteservice"
	"github.com/starford/slipbox/internal/repository"
)

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest struct {
	Title   string   `json:"title" example:"Alpha" validate:"required"`
	Tags    []string `json:"tags" example:"zettel,go"`
	Parents []string `json:"parents" example:"1"`
	Type    string   `json:"type" example:"Inbox"`
	Content string   `json:"content" example:"see [[1]]"`
	Bibkey  string   `json:"bibkey,omitempty" example:"knuth1984"`
}

func (r CreateNoteRequest) params() repository.CreateParams {
	return repository.CreateParams{
		Title:   r.Title,
		Tags:    r.Tags,
		Parents: r.Parents,
		Type:    r.Type,
		Content: r.Content,
		Bibkey:  r.Bibkey,
	}
}

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = noteservice.NoteDetail

// NoteListItem is a lightweight item in a list response (aliased from the domain layer).
type NoteListItem = noteservice.NoteListItem

// NoteListResponse wraps note listings.
type NoteListResponse struct {
	Notes []NoteListItem `json:"notes"`
	Total int            `json:"total" example:"42"`
}

// TagsResponse wraps the tag listing.
type TagsResponse struct {
	Tags []noteservice.TagCount `json:"tags"`
}

// GraphResponse is the note graph.
type GraphResponse = index.Graph

// AttachmentUploadResponse is returned after a successful attachment upload.
type AttachmentUploadResponse struct {
	Filename string `json:"filename" example:"image.png"`
	Size     int64  `json:"size" example:"12345"`
	URL      string `json:"url" example:"/attachments/image.png"`
}
