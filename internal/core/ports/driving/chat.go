package driving

import (
	"context"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
)

// ChatService answers questions from documents and the relational store
type ChatService interface {
	// Answer composes one answer for the question in qc.
	// Failures wrap domain.ErrAnswerGenerationFailed.
	Answer(ctx context.Context, qc domain.QueryContext) (string, error)
}

// ChannelService handles messages arriving from external messaging channels
type ChannelService interface {
	// HandleTelegram processes one Telegram message (chat ID and text)
	HandleTelegram(ctx context.Context, chatID, text string) error

	// HandleWhatsApp processes one WhatsApp message (sender and text)
	HandleWhatsApp(ctx context.Context, from, text string) error

	// VerifyWhatsApp checks a webhook verification request and returns the challenge
	VerifyWhatsApp(mode, token, challenge string) (string, error)
}
