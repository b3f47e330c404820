package driven

import (
	"context"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
)

// ChannelSender delivers a text reply over an external messaging channel
type ChannelSender interface {
	// Channel returns the channel this sender serves
	Channel() domain.Channel

	// Send delivers text to the recipient (phone number or chat ID)
	Send(ctx context.Context, recipient, text string) error
}
