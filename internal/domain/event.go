package domain

import "strings"

// InboundEvent is the (chat, text) pair extracted from one platform update.
type InboundEvent struct {
	ChatID int64
	Text   string
}

// NewInboundEvent builds an event, trimming surrounding whitespace from text.
func NewInboundEvent(chatID int64, text string) InboundEvent {
	return InboundEvent{ChatID: chatID, Text: strings.TrimSpace(text)}
}

// Valid reports whether the event carries both a chat and some text.
func (e InboundEvent) Valid() bool {
	return e.ChatID != 0 && e.Text != ""
}
