package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driven"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driving"
)

// Ensure ChannelResponder implements ChannelService
var _ driving.ChannelService = (*ChannelResponder)(nil)

const (
	// TelegramWelcome answers the Telegram /start command
	TelegramWelcome = "👋 Hello! Welcome to the OpenAI Bot. Ask me anything!"

	// ChannelFallback is sent when a question cannot be answered
	ChannelFallback = "Sorry, I couldn't answer that right now. Please try again later."
)

// ChannelResponder answers messages from WhatsApp and Telegram. Channel
// users are anonymous, so answers only ever draw on public content.
// With a TaskQueue, replies are handed to workers instead of being
// answered inside the webhook request.
type ChannelResponder struct {
	chat        driving.ChatService
	senders     map[domain.Channel]driven.ChannelSender
	taskQueue   driven.TaskQueue
	verifyToken string
	logger      *slog.Logger
}

// ChannelResponderConfig holds configuration for ChannelResponder.
type ChannelResponderConfig struct {
	Chat        driving.ChatService
	Senders     []driven.ChannelSender
	TaskQueue   driven.TaskQueue // Optional
	VerifyToken string           // WhatsApp webhook verify token
	Logger      *slog.Logger
}

// NewChannelResponder creates a channel responder.
func NewChannelResponder(cfg ChannelResponderConfig) *ChannelResponder {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	senders := make(map[domain.Channel]driven.ChannelSender, len(cfg.Senders))
	for _, sender := range cfg.Senders {
		senders[sender.Channel()] = sender
	}
	return &ChannelResponder{
		chat:        cfg.Chat,
		senders:     senders,
		taskQueue:   cfg.TaskQueue,
		verifyToken: cfg.VerifyToken,
		logger:      logger,
	}
}

// HandleTelegram processes one Telegram message.
func (c *ChannelResponder) HandleTelegram(ctx context.Context, chatID, text string) error {
	if strings.TrimSpace(text) == "/start" {
		return c.send(ctx, domain.ChannelTelegram, chatID, TelegramWelcome)
	}
	return c.handle(ctx, domain.ChannelTelegram, chatID, text)
}

// HandleWhatsApp processes one WhatsApp message.
func (c *ChannelResponder) HandleWhatsApp(ctx context.Context, from, text string) error {
	return c.handle(ctx, domain.ChannelWhatsApp, from, text)
}

// VerifyWhatsApp answers the webhook subscription handshake.
func (c *ChannelResponder) VerifyWhatsApp(mode, token, challenge string) (string, error) {
	if c.verifyToken == "" || mode != "subscribe" || token != c.verifyToken {
		return "", domain.ErrForbidden
	}
	return challenge, nil
}

func (c *ChannelResponder) handle(ctx context.Context, channel domain.Channel, recipient, text string) error {
	text = strings.TrimSpace(text)
	if text == "" || recipient == "" {
		return nil
	}
	if _, ok := c.senders[channel]; !ok {
		return fmt.Errorf("%w: %s is not configured", domain.ErrServiceUnavailable, channel)
	}

	if c.taskQueue != nil {
		task := domain.NewChannelReplyTask(channel, recipient, text)
		if err := c.taskQueue.Enqueue(ctx, task); err != nil {
			return fmt.Errorf("enqueue reply: %w", err)
		}
		c.logger.Debug("queued channel reply", "channel", channel, "task_id", task.ID)
		return nil
	}
	return c.Reply(ctx, channel, recipient, text)
}

// Reply answers text and sends the answer back on the channel. When no
// answer can be produced the user gets a fallback message and the answer
// error is returned.
func (c *ChannelResponder) Reply(ctx context.Context, channel domain.Channel, recipient, text string) error {
	answer, err := c.chat.Answer(ctx, domain.AnonymousQuery(text))
	if err != nil {
		c.logger.Warn("channel question not answered", "channel", channel, "error", err)
		if sendErr := c.send(ctx, channel, recipient, ChannelFallback); sendErr != nil {
			c.logger.Warn("failed to send fallback", "channel", channel, "error", sendErr)
		}
		return err
	}
	return c.send(ctx, channel, recipient, answer)
}

// ProcessTask runs a queued channel_reply task.
func (c *ChannelResponder) ProcessTask(ctx context.Context, task *domain.Task) error {
	if task.Type != domain.TaskTypeChannelReply {
		return fmt.Errorf("%w: unexpected task type %s", domain.ErrInvalidInput, task.Type)
	}
	return c.Reply(ctx, task.Channel(), task.Recipient(), task.Text())
}

func (c *ChannelResponder) send(ctx context.Context, channel domain.Channel, recipient, text string) error {
	sender, ok := c.senders[channel]
	if !ok {
		return fmt.Errorf("%w: %s is not configured", domain.ErrServiceUnavailable, channel)
	}
	return sender.Send(ctx, recipient, text)
}
