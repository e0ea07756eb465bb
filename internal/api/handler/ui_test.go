package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewUIHandler(t *testing.T) {
	handler := NewUIHandler()
	if handler == nil {
		t.Fatal("handler should not be nil")
	}
}

func TestUIHandler_Index(t *testing.T) {
	handler := NewUIHandler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	handler.Index(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	contentType := w.Header().Get("Content-Type")
	if contentType != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q, want %q", contentType, "text/html; charset=utf-8")
	}

	body := w.Body.String()
	if !strings.Contains(body, "<html") {
		t.Error("response should contain HTML content")
	}
	if !strings.Contains(body, "Bot running") {
		t.Error("response should confirm the bot is running")
	}
}
