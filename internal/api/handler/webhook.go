package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/iconidentify/shortsrelay/internal/domain"
	"github.com/iconidentify/shortsrelay/internal/worker"
)

// maxUpdateSize caps how much of a webhook body is read.
const maxUpdateSize = 1 << 20

// Dispatcher runs tasks in the background.
type Dispatcher interface {
	Go(name string, task worker.Task) bool
}

// Relay processes one inbound event to completion.
type Relay interface {
	Process(ctx context.Context, event domain.InboundEvent) *domain.Job
}

// WebhookHandler receives platform updates and hands them to the relay.
type WebhookHandler struct {
	dispatcher Dispatcher
	relay      Relay
	logger     *slog.Logger
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(dispatcher Dispatcher, relay Relay, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		dispatcher: dispatcher,
		relay:      relay,
		logger:     logger,
	}
}

// AckResponse is returned for every accepted update.
type AckResponse struct {
	OK bool `json:"ok"`
}

// Handle handles POST /webhook/{token}.
// The update is acknowledged immediately; relaying happens in the background.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUpdateSize)).Decode(&update); err != nil {
		h.logger.Debug("ignoring undecodable update", "error", err)
		h.writeJSON(w, http.StatusOK, AckResponse{OK: true})
		return
	}

	event, err := extractEvent(&update)
	if err != nil {
		h.logger.Debug("ignoring update", "update_id", update.UpdateID, "reason", err)
		h.writeJSON(w, http.StatusOK, AckResponse{OK: true})
		return
	}

	dispatched := h.dispatcher.Go("relay", func(ctx context.Context) {
		h.relay.Process(ctx, event)
	})
	if !dispatched {
		h.logger.Warn("dispatcher stopped, update dropped", "update_id", update.UpdateID, "chat_id", event.ChatID)
	}

	h.writeJSON(w, http.StatusOK, AckResponse{OK: true})
}

// extractEvent takes the first message-like payload and its text or caption.
func extractEvent(update *tgbotapi.Update) (domain.InboundEvent, error) {
	msg := update.Message
	if msg == nil {
		msg = update.EditedMessage
	}
	if msg == nil || msg.Chat == nil {
		return domain.InboundEvent{}, domain.ErrNoMessage
	}

	text := msg.Text
	if text == "" {
		text = msg.Caption
	}

	event := domain.NewInboundEvent(msg.Chat.ID, text)
	if !event.Valid() {
		return domain.InboundEvent{}, domain.ErrNoMessage
	}
	return event, nil
}

func (h *WebhookHandler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
