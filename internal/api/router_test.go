package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/iconidentify/shortsrelay/internal/api/handler"
	"github.com/iconidentify/shortsrelay/internal/config"
	"github.com/iconidentify/shortsrelay/internal/domain"
	"github.com/iconidentify/shortsrelay/internal/repository"
	"github.com/iconidentify/shortsrelay/internal/worker"
)

const testSecret = "123456:ABC-DEF"

type recordingDispatcher struct {
	mu    sync.Mutex
	count int
}

func (d *recordingDispatcher) Go(name string, task worker.Task) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.count++
	return true
}

func (d *recordingDispatcher) dispatched() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.count
}

type noopRelay struct{}

func (noopRelay) Process(ctx context.Context, event domain.InboundEvent) *domain.Job {
	return domain.NewJob(event)
}

func newTestRouter(t *testing.T) (http.Handler, *recordingDispatcher) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dispatcher := &recordingDispatcher{}

	router := NewRouter(
		handler.NewWebhookHandler(dispatcher, noopRelay{}, logger),
		handler.NewHealthHandler(repository.NewInMemoryJobRepository(), worker.NewLimiter(2), t.TempDir()),
		handler.NewUIHandler(),
		testSecret,
	)
	return router, dispatcher
}

const validUpdate = `{"update_id":1,"message":{"message_id":1,"chat":{"id":42,"type":"private"},"text":"https://youtube.com/shorts/abc"}}`

func TestRouter_Webhook(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		wantStatus     int
		wantDispatched int
	}{
		{"matching token", "/webhook/" + testSecret, http.StatusOK, 1},
		{"wrong token", "/webhook/not-the-token", http.StatusForbidden, 0},
		{"token with suffix", "/webhook/" + testSecret + "x", http.StatusForbidden, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, dispatcher := newTestRouter(t)

			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(validUpdate))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := dispatcher.dispatched(); got != tt.wantDispatched {
				t.Errorf("dispatched = %d, want %d", got, tt.wantDispatched)
			}
		})
	}
}

func TestRouter_ServesRegisteredWebhookPath(t *testing.T) {
	router, dispatcher := newTestRouter(t)

	tg := config.TelegramConfig{Token: testSecret, WebhookURL: "https://relay.example.com/"}
	endpoint, err := url.Parse(tg.WebhookEndpoint())
	if err != nil {
		t.Fatalf("parse endpoint: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, endpoint.Path, strings.NewReader(validUpdate))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if dispatcher.dispatched() != 1 {
		t.Errorf("dispatched = %d, want 1", dispatcher.dispatched())
	}
}

func TestRouter_WebhookRejectsGet(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/webhook/"+testSecret, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}
}

func TestRouter_Pages(t *testing.T) {
	tests := []struct {
		path        string
		wantStatus  int
		wantContain string
	}{
		{"/", http.StatusOK, "Bot running"},
		{"/health", http.StatusOK, `"status":"ok"`},
		{"/ready", http.StatusOK, `"capacity":2`},
		{"/api/v1/stats", http.StatusOK, "uptime_seconds"},
		{"/nope", http.StatusNotFound, ""},
	}

	router, _ := newTestRouter(t)
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantContain != "" && !strings.Contains(w.Body.String(), tt.wantContain) {
				t.Errorf("body %q should contain %q", w.Body.String(), tt.wantContain)
			}
		})
	}
}
