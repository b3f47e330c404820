package mocks

import (
	"context"
	"sync"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driven"
)

var _ driven.ChannelSender = (*MockChannelSender)(nil)

// SentMessage is one message passed to MockChannelSender
type SentMessage struct {
	Recipient string
	Text      string
}

// MockChannelSender records outgoing messages
type MockChannelSender struct {
	mu      sync.Mutex
	channel domain.Channel
	sent    []SentMessage

	SendFn func(recipient, text string) error
}

// NewMockChannelSender creates a sender for channel
func NewMockChannelSender(channel domain.Channel) *MockChannelSender {
	return &MockChannelSender{channel: channel}
}

func (m *MockChannelSender) Channel() domain.Channel {
	return m.channel
}

func (m *MockChannelSender) Send(ctx context.Context, recipient, text string) error {
	if m.SendFn != nil {
		if err := m.SendFn(recipient, text); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, SentMessage{Recipient: recipient, Text: text})
	return nil
}

// Sent returns the recorded messages
func (m *MockChannelSender) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMessage(nil), m.sent...)
}
