package mcpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

const maxAttachmentSize = 10 << 20

var (
	attachmentExts = map[string]string{
		"image/png":       ".png",
		"image/jpeg":      ".jpg",
		"image/gif":       ".gif",
		"image/webp":      ".webp",
		"image/svg+xml":   ".svg",
		"application/pdf": ".pdf",
	}

	unsafeFilenameRe = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
)

type attachResult struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
	Markdown string `json:"markdown"`
}

func (s *Server) attachFile(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	src, err := req.RequireString("data")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !strings.HasPrefix(src, "data:") {
		return mcp.NewToolResultError("data must be a data: URI; remote files are not fetched"), nil
	}

	data, ext, err := decodeDataURI(src)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(data) > maxAttachmentSize {
		return mcp.NewToolResultError(fmt.Sprintf("file too large: %d bytes (max %d)", len(data), maxAttachmentSize)), nil
	}

	name := req.GetString("filename", "")
	if name == "" {
		name = uuid.New().String() + ext
	}
	name = cleanFilename(name)
	if err := checkContent(data, strings.ToLower(filepath.Ext(name))); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rel := filepath.Join(s.attachmentsDir, name)
	if ok, _ := s.store.Exists(rel); ok {
		return mcp.NewToolResultError(fmt.Sprintf("attachment already exists: %s", name)), nil
	}
	if err := s.store.Write(rel, data); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("save attachment: %v", err)), nil
	}

	link := "/attachments/" + name
	out, _ := json.Marshal(attachResult{
		Filename: name,
		URL:      link,
		Markdown: fmt.Sprintf("![%s](%s)", name, link),
	})
	return mcp.NewToolResultText(string(out)), nil
}

// decodeDataURI parses data:<mime>;base64,<payload>.
func decodeDataURI(uri string) ([]byte, string, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, "", fmt.Errorf("invalid data URI: missing comma separator")
	}
	mime, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return nil, "", fmt.Errorf("only base64 data URIs are supported")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		if data, err = base64.RawStdEncoding.DecodeString(payload); err != nil {
			return nil, "", fmt.Errorf("invalid base64 data: %w", err)
		}
	}

	mime, _, _ = strings.Cut(mime, ";")
	ext, ok := attachmentExts[mime]
	if !ok {
		return nil, "", fmt.Errorf("unsupported MIME type in data URI: %s", mime)
	}
	return data, ext, nil
}

func cleanFilename(name string) string {
	name = unsafeFilenameRe.ReplaceAllString(filepath.Base(name), "_")
	name = strings.TrimLeft(name, ".")
	if name == "" {
		name = uuid.New().String()
	}
	return name
}

// checkContent verifies data against the extension it will be stored under.
func checkContent(data []byte, ext string) error {
	if ext == ".svg" {
		head := data[:min(len(data), 1024)]
		if !bytes.Contains(head, []byte("<svg")) {
			return fmt.Errorf("content does not appear to be an SVG")
		}
		return nil
	}
	if ext == ".jpeg" {
		ext = ".jpg"
	}

	known := false
	for _, e := range attachmentExts {
		known = known || e == ext
	}
	if !known {
		return fmt.Errorf("unsupported file extension %q (allowed: png, jpg, jpeg, gif, webp, svg, pdf)", ext)
	}

	detected, _, _ := strings.Cut(http.DetectContentType(data), ";")
	if attachmentExts[detected] != ext {
		return fmt.Errorf("content does not match extension %s (detected: %s)", ext, detected)
	}
	return nil
}
