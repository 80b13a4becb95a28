package routes

import (
	"net/http"

	"github.com/edgehub/ingestd/internal/app"
	"github.com/edgehub/ingestd/internal/handler"
	"github.com/edgehub/ingestd/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	ingest := handler.NewIngestHandler(app.IngestService)
	feed := handler.NewFeedHandler(app.FeedService)
	legacy := handler.NewLegacyHandler(ingest)

	mux := http.NewServeMux()

	// ============================================================================
	// API ROUTES (rate limited)
	// ============================================================================

	mux.HandleFunc("POST /api/ingest", ingest.Ingest)
	mux.HandleFunc("GET /api/posts", feed.Posts)
	mux.HandleFunc("GET /api/stats", feed.Stats)
	mux.HandleFunc("GET /api/uploads", feed.Uploads)

	// Unknown API routes get a JSON 404 instead of the asset fallback
	mux.HandleFunc("/api/", feed.NotFound)

	// ============================================================================
	// DEPRECATED
	// ============================================================================

	mux.HandleFunc("POST /ingest", legacy.Ingest)

	// ============================================================================
	// FALLBACK
	// ============================================================================

	// Non-API paths are served by the static-asset origin (404 on miss)
	mux.Handle("/", http.FileServer(http.Dir(app.Cfg.StaticDir)))

	// Global middleware - executed in order (top to bottom)
	h := middleware.Chain(
		mux,
		middleware.RequestLogging,
		middleware.AccessGate(app.Cfg.AllowedIPs), // No request work happens for a rejected identity
		middleware.RateLimit(app.Limiter),         // API paths only
	)

	return h
}
