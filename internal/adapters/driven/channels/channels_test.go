package channels

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
)

type capture struct {
	mu       sync.Mutex
	paths    []string
	auth     []string
	bodies   []map[string]any
	status   int
	response string
}

func (c *capture) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		c.mu.Lock()
		c.paths = append(c.paths, r.URL.Path)
		c.auth = append(c.auth, r.Header.Get("Authorization"))
		c.bodies = append(c.bodies, body)
		status, response := c.status, c.response
		c.mu.Unlock()

		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		w.Write([]byte(response))
	}
}

func TestWhatsApp_Send(t *testing.T) {
	c := &capture{response: `{"messages":[{"id":"wamid.1"}]}`}
	server := httptest.NewServer(c.handler(t))
	defer server.Close()

	sender, err := NewWhatsApp(WhatsAppConfig{GraphAPIURL: server.URL + "/v19.0/", PhoneNumberID: "1234", AccessToken: " tok "})
	require.NoError(t, err)
	assert.Equal(t, domain.ChannelWhatsApp, sender.Channel())

	require.NoError(t, sender.Send(context.Background(), "15550001", "Our leave policy allows 24 days."))

	require.Len(t, c.bodies, 1)
	assert.Equal(t, "/v19.0/1234/messages", c.paths[0])
	assert.Equal(t, "Bearer tok", c.auth[0])
	assert.Equal(t, "whatsapp", c.bodies[0]["messaging_product"])
	assert.Equal(t, "15550001", c.bodies[0]["to"])
	assert.Equal(t, "text", c.bodies[0]["type"])
	assert.Equal(t, map[string]any{"body": "Our leave policy allows 24 days."}, c.bodies[0]["text"])
}

func TestWhatsApp_SendError(t *testing.T) {
	c := &capture{status: http.StatusUnauthorized, response: `{"error":{"message":"bad token"}}`}
	server := httptest.NewServer(c.handler(t))
	defer server.Close()

	sender, err := NewWhatsApp(WhatsAppConfig{GraphAPIURL: server.URL, PhoneNumberID: "1", AccessToken: "t"})
	require.NoError(t, err)

	err = sender.Send(context.Background(), "1", "hi")
	assert.True(t, errors.Is(err, domain.ErrServiceUnavailable))
	assert.Contains(t, err.Error(), "bad token")
}

func TestNewWhatsApp_RequiresCredentials(t *testing.T) {
	_, err := NewWhatsApp(WhatsAppConfig{GraphAPIURL: "https://graph.facebook.com"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTelegram_Send(t *testing.T) {
	c := &capture{response: `{"ok":true,"result":{}}`}
	server := httptest.NewServer(c.handler(t))
	defer server.Close()

	sender, err := NewTelegram(TelegramConfig{APIURL: server.URL, BotToken: "123:abc"})
	require.NoError(t, err)
	assert.Equal(t, domain.ChannelTelegram, sender.Channel())

	require.NoError(t, sender.Send(context.Background(), "987", "hello"))
	require.Len(t, c.bodies, 1)
	assert.Equal(t, "/bot123:abc/sendMessage", c.paths[0])
	assert.Equal(t, "987", c.bodies[0]["chat_id"])
	assert.Equal(t, "hello", c.bodies[0]["text"])
}

func TestTelegram_NotOK(t *testing.T) {
	c := &capture{response: `{"ok":false,"description":"Bad Request: chat not found"}`}
	server := httptest.NewServer(c.handler(t))
	defer server.Close()

	sender, err := NewTelegram(TelegramConfig{APIURL: server.URL, BotToken: "123:abc"})
	require.NoError(t, err)

	err = sender.Send(context.Background(), "1", "hi")
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestTelegram_NetworkErrorHidesToken(t *testing.T) {
	sender, err := NewTelegram(TelegramConfig{APIURL: "http://127.0.0.1:1", BotToken: "secret-token"})
	require.NoError(t, err)

	err = sender.Send(context.Background(), "1", "hi")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret-token")
}

func TestNewTelegram(t *testing.T) {
	_, err := NewTelegram(TelegramConfig{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	sender, err := NewTelegram(TelegramConfig{BotToken: "t"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sender.url, DefaultTelegramAPIURL))
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"short"}, splitMessage("short", 10))

	parts := splitMessage("aaaa bbbb cccc dddd", 10)
	assert.Equal(t, []string{"aaaa bbbb", "cccc dddd"}, parts)

	// no break point: hard cut
	hard := splitMessage(strings.Repeat("x", 25), 10)
	assert.Equal(t, []string{strings.Repeat("x", 10), strings.Repeat("x", 10), strings.Repeat("x", 5)}, hard)

	// multi-byte runes are never cut in half
	for _, p := range splitMessage(strings.Repeat("é", 15), 10) {
		assert.LessOrEqual(t, len([]rune(p)), 10)
		assert.True(t, strings.Trim(p, "é") == "")
	}
}

func TestSend_SplitsLongMessages(t *testing.T) {
	c := &capture{response: `{"ok":true}`}
	server := httptest.NewServer(c.handler(t))
	defer server.Close()

	sender, err := NewTelegram(TelegramConfig{APIURL: server.URL, BotToken: "t"})
	require.NoError(t, err)

	long := strings.Repeat("word ", 2000) // 10000 runes
	require.NoError(t, sender.Send(context.Background(), "1", long))
	assert.Len(t, c.bodies, 3)
}
