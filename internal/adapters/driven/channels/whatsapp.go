package channels

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ChannelSender = (*WhatsApp)(nil)

// WhatsAppConfig holds Cloud API credentials
type WhatsAppConfig struct {
	GraphAPIURL   string // e.g. https://graph.facebook.com/v19.0
	PhoneNumberID string
	AccessToken   string
	Timeout       time.Duration
}

// WhatsApp sends text messages through the WhatsApp Cloud API
type WhatsApp struct {
	url   string
	token string
	http  *http.Client
}

// NewWhatsApp creates a WhatsApp sender
func NewWhatsApp(cfg WhatsAppConfig) (*WhatsApp, error) {
	if cfg.GraphAPIURL == "" || cfg.PhoneNumberID == "" || cfg.AccessToken == "" {
		return nil, fmt.Errorf("%w: whatsapp needs graph api url, phone number id and access token", domain.ErrInvalidInput)
	}
	return &WhatsApp{
		url:   fmt.Sprintf("%s/%s/messages", strings.TrimRight(cfg.GraphAPIURL, "/"), cfg.PhoneNumberID),
		token: strings.TrimSpace(cfg.AccessToken),
		http:  newHTTPClient(cfg.Timeout),
	}, nil
}

// Channel returns domain.ChannelWhatsApp
func (w *WhatsApp) Channel() domain.Channel {
	return domain.ChannelWhatsApp
}

type whatsAppMessage struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		Body string `json:"body"`
	} `json:"text"`
}

// Send delivers text to a phone number, split into several messages when
// it is too long for one
func (w *WhatsApp) Send(ctx context.Context, recipient, text string) error {
	headers := map[string]string{"Authorization": "Bearer " + w.token}
	for _, part := range splitMessage(text, maxMessageRunes) {
		msg := whatsAppMessage{MessagingProduct: "whatsapp", To: recipient, Type: "text"}
		msg.Text.Body = part
		if _, err := postJSON(ctx, w.http, w.url, headers, msg); err != nil {
			return fmt.Errorf("whatsapp send: %w", err)
		}
	}
	return nil
}
