package handler

import (
	"net/http"

	"github.com/iconidentify/shortsrelay/pkg/ui"
)

// UIHandler serves the status page.
type UIHandler struct{}

// NewUIHandler creates a new UI handler.
func NewUIHandler() *UIHandler {
	return &UIHandler{}
}

// Index handles GET / with a minimal "Bot running" page.
func (h *UIHandler) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(ui.StatusHTML)
}
