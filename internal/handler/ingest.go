package handler

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/edgehub/ingestd/internal/handler/respond"
	"github.com/edgehub/ingestd/internal/service"
)

// maxUploadMemory bounds the in-memory portion of multipart parsing; larger
// parts spill to temp files.
const maxUploadMemory = 32 << 20

type IngestHandler struct {
	ingestService *service.IngestService
}

func NewIngestHandler(ingestService *service.IngestService) *IngestHandler {
	return &IngestHandler{
		ingestService: ingestService,
	}
}

// fileResponse echoes the stored key and file attributes for simple mode.
type fileResponse struct {
	Filename string `json:"filename"`
	Key      string `json:"key"`
	Size     int64  `json:"size"`
	Type     string `json:"type"`
	Source   string `json:"source"`
}

// Ingest accepts the dual-mode multipart submission on /api/ingest. The
// metadata part, when present, is the mode discriminator; without it the
// request is a simple file upload.
func (h *IngestHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	err := r.ParseMultipartForm(maxUploadMemory)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	raw := r.FormValue("metadata")
	if raw == "" {
		h.ingestSimple(w, r)
		return
	}

	mode, meta, err := service.DecodeMetadata(raw)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid metadata format")
		return
	}

	switch mode {
	case service.ModePost:
		h.ingestPost(w, r, meta)
	default:
		h.ingestSimple(w, r)
	}
}

// ingestSimple stores the first binary part under a timestamp-prefixed key
// and records one uploads row.
func (h *IngestHandler) ingestSimple(w http.ResponseWriter, r *http.Request) {
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		files = r.MultipartForm.File["file"]
	}
	if len(files) == 0 {
		respond.Error(w, http.StatusBadRequest, "No file provided")
		return
	}
	fh := files[0]

	source := r.FormValue("source")
	if source == "" {
		source = "unknown"
	}
	filename := r.FormValue("filename")
	if filename == "" {
		filename = fh.Filename
	}
	if filename == "" {
		filename = "unnamed"
	}

	f, err := fh.Open()
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer func() { _ = f.Close() }()

	upload, err := h.ingestService.IngestFile(r.Context(), service.FileUpload{
		Body:        f,
		Filename:    filename,
		Source:      source,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
	})
	if err != nil {
		slog.Error("simple ingestion failed", "filename", filename, "error", err)
		respond.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"file": fileResponse{
			Filename: upload.Filename,
			Key:      upload.StorageKey,
			Size:     upload.Size,
			Type:     upload.ContentType,
			Source:   upload.Source,
		},
	})
}

// ingestPost writes every binary part as post media, then the post and tag
// rows.
func (h *IngestHandler) ingestPost(w http.ResponseWriter, r *http.Request, meta *service.PostMetadata) {
	var files []*multipart.FileHeader
	if r.MultipartForm != nil {
		files = r.MultipartForm.File["files"]
	}

	view, err := h.ingestService.IngestPost(r.Context(), meta, files)
	if err != nil {
		if errors.Is(err, service.ErrInvalidMetadata) {
			respond.Error(w, http.StatusBadRequest, "Invalid metadata format")
			return
		}
		slog.Error("post ingestion failed", "post_id", meta.ID, "error", err)
		respond.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"post":    view,
	})
}
