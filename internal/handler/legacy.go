package handler

import (
	"bytes"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/edgehub/ingestd/internal/handler/respond"
)

// DeprecationNotice is attached to every legacy-route response, success and
// failure alike.
const DeprecationNotice = "This endpoint is deprecated. Please use /api/ingest instead."

// LegacyHandler rewrites the superseded single-file upload shape into the
// current ingestion contract.
type LegacyHandler struct {
	ingest *IngestHandler
}

func NewLegacyHandler(ingest *IngestHandler) *LegacyHandler {
	return &LegacyHandler{
		ingest: ingest,
	}
}

// Ingest repackages a legacy submission (fields file, source, filename) into
// the current multipart contract and relays the current handler's response.
func (h *LegacyHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Deprecation-Notice", DeprecationNotice)

	err := r.ParseMultipartForm(maxUploadMemory)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		files = r.MultipartForm.File["files"]
	}
	if len(files) == 0 {
		respond.Error(w, http.StatusBadRequest, "No file provided")
		return
	}
	fh := files[0]

	filename := r.FormValue("filename")
	if filename == "" {
		filename = fh.Filename
	}

	internal, err := h.repackage(r, fh, r.FormValue("source"), filename)
	if err != nil {
		slog.Error("legacy repackaging failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.ingest.Ingest(w, internal)
}

// repackage builds the internal request in the current multipart contract:
// a files part plus source and filename fields, no structured metadata.
func (h *LegacyHandler) repackage(r *http.Request, fh *multipart.FileHeader, source, filename string) (*http.Request, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("files", fh.Filename)
	if err != nil {
		return nil, err
	}
	_, err = io.Copy(part, f)
	if err != nil {
		return nil, err
	}

	if source != "" {
		err = mw.WriteField("source", source)
		if err != nil {
			return nil, err
		}
	}
	if filename != "" {
		err = mw.WriteField("filename", filename)
		if err != nil {
			return nil, err
		}
	}

	err = mw.Close()
	if err != nil {
		return nil, err
	}

	internal, err := http.NewRequestWithContext(r.Context(), http.MethodPost, "/api/ingest", &body)
	if err != nil {
		return nil, err
	}
	internal.Header.Set("Content-Type", mw.FormDataContentType())

	return internal, nil
}
