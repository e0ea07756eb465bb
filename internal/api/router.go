package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/iconidentify/shortsrelay/internal/api/handler"
	mw "github.com/iconidentify/shortsrelay/internal/api/middleware"
	"github.com/iconidentify/shortsrelay/internal/config"
)

// NewRouter creates the HTTP router with all routes configured.
func NewRouter(
	webhookHandler *handler.WebhookHandler,
	healthHandler *handler.HealthHandler,
	uiHandler *handler.UIHandler,
	webhookSecret string,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CleanPath)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Logger)
	r.Use(middleware.Recoverer)

	// Health endpoints
	r.Get("/health", healthHandler.Live)
	r.Get("/ready", healthHandler.Ready)
	r.Get("/api/v1/stats", healthHandler.Stats)

	r.Get("/", uiHandler.Index)

	// Platform updates; the path segment is the shared secret
	r.With(mw.WebhookToken(webhookSecret)).Post(config.WebhookPrefix+"{"+mw.TokenParam+"}", webhookHandler.Handle)

	return r
}
