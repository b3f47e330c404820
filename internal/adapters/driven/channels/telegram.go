package channels

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ChannelSender = (*Telegram)(nil)

// DefaultTelegramAPIURL is the public Bot API endpoint
const DefaultTelegramAPIURL = "https://api.telegram.org"

// TelegramConfig holds bot credentials
type TelegramConfig struct {
	APIURL   string // default DefaultTelegramAPIURL
	BotToken string
	Timeout  time.Duration
}

// Telegram sends messages with the Bot API sendMessage method
type Telegram struct {
	url  string
	http *http.Client
}

// NewTelegram creates a Telegram sender
func NewTelegram(cfg TelegramConfig) (*Telegram, error) {
	token := strings.TrimSpace(cfg.BotToken)
	if token == "" {
		return nil, fmt.Errorf("%w: telegram bot token is required", domain.ErrInvalidInput)
	}
	apiURL := strings.TrimRight(cfg.APIURL, "/")
	if apiURL == "" {
		apiURL = DefaultTelegramAPIURL
	}
	return &Telegram{
		url:  fmt.Sprintf("%s/bot%s/sendMessage", apiURL, token),
		http: newHTTPClient(cfg.Timeout),
	}, nil
}

// Channel returns domain.ChannelTelegram
func (t *Telegram) Channel() domain.Channel {
	return domain.ChannelTelegram
}

type telegramResult struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send delivers text to a chat ID
func (t *Telegram) Send(ctx context.Context, chatID, text string) error {
	for _, part := range splitMessage(text, maxMessageRunes) {
		body, err := postJSON(ctx, t.http, t.url, nil, map[string]string{
			"chat_id": chatID,
			"text":    part,
		})
		if err != nil {
			return fmt.Errorf("telegram send: %w", err)
		}

		var result telegramResult
		if err := json.Unmarshal(body, &result); err == nil && !result.OK {
			return fmt.Errorf("telegram send: %w: %s", domain.ErrServiceUnavailable, result.Description)
		}
	}
	return nil
}
