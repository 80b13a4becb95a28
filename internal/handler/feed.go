package handler

import (
	"log/slog"
	"net/http"

	"github.com/edgehub/ingestd/internal/handler/respond"
	"github.com/edgehub/ingestd/internal/service"
)

type FeedHandler struct {
	feedService *service.FeedService
}

func NewFeedHandler(feedService *service.FeedService) *FeedHandler {
	return &FeedHandler{
		feedService: feedService,
	}
}

// Posts serves the post listing, newest first, tags joined in.
func (h *FeedHandler) Posts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.feedService.Posts()
	if err != nil {
		slog.Error("post listing failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	respond.JSON(w, http.StatusOK, posts)
}

// Stats serves the summary statistics view.
func (h *FeedHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.feedService.Stats()
	if err != nil {
		slog.Error("stats aggregation failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	respond.JSON(w, http.StatusOK, stats)
}

// Uploads serves the recent simple-mode upload listing.
func (h *FeedHandler) Uploads(w http.ResponseWriter, r *http.Request) {
	uploads, err := h.feedService.Uploads()
	if err != nil {
		slog.Error("upload listing failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	respond.JSON(w, http.StatusOK, uploads)
}

// NotFound is the JSON 404 for unknown routes under the API prefix.
func (h *FeedHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	respond.Error(w, http.StatusNotFound, "Not found")
}
