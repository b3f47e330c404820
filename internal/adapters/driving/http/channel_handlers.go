package http

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// whatsAppWebhook is the subset of the WhatsApp Cloud API notification we read
type whatsAppWebhook struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []struct {
					From string `json:"from"`
					Type string `json:"type"`
					Text struct {
						Body string `json:"body"`
					} `json:"text"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// telegramUpdate is the subset of a Telegram update we read
type telegramUpdate struct {
	Message *struct {
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		Text string `json:"text"`
	} `json:"message"`
}

// handleWhatsAppVerify godoc
// @Summary      Verify WhatsApp webhook
// @Description  Echoes hub.challenge when hub.mode is subscribe and the verify token matches
// @Tags         Channels
// @Produce      plain
// @Param        hub.mode          query  string  true  "subscribe"
// @Param        hub.verify_token  query  string  true  "Verify token"
// @Param        hub.challenge     query  string  true  "Challenge"
// @Success      200  {string}  string
// @Failure      403  {string}  string
// @Router       /whatsapp/webhook [get]
func (s *Server) handleWhatsAppVerify(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if s.channelService == nil {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("Forbidden"))
		return
	}

	q := r.URL.Query()
	challenge, err := s.channelService.VerifyWhatsApp(q.Get("hub.mode"), q.Get("hub.verify_token"), q.Get("hub.challenge"))
	if err != nil {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("Forbidden"))
		return
	}
	_, _ = w.Write([]byte(challenge))
}

// handleWhatsAppWebhook godoc
// @Summary      Receive WhatsApp messages
// @Description  Every text message is answered from public content
// @Tags         Channels
// @Accept       json
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Failure      400  {object}  ErrorResponse
// @Router       /whatsapp/webhook [post]
func (s *Server) handleWhatsAppWebhook(w http.ResponseWriter, r *http.Request) {
	if s.channelService == nil {
		writeError(w, http.StatusServiceUnavailable, "whatsapp is not configured")
		return
	}

	var payload whatsAppWebhook
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "request body not found")
		return
	}

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				if msg.Text.Body == "" {
					continue
				}
				if err := s.channelService.HandleWhatsApp(r.Context(), msg.From, msg.Text.Body); err != nil {
					s.logger.Warn("whatsapp message not handled", "from", msg.From, "error", err)
				}
			}
		}
	}

	// Always acknowledge so the platform does not redeliver.
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// handleTelegramWebhook godoc
// @Summary      Receive Telegram updates
// @Description  /start gets a welcome message; any other text is answered from public content
// @Tags         Channels
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]bool
// @Failure      400  {object}  ErrorResponse
// @Router       /telegram/webhook [post]
func (s *Server) handleTelegramWebhook(w http.ResponseWriter, r *http.Request) {
	if s.channelService == nil {
		writeError(w, http.StatusServiceUnavailable, "telegram is not configured")
		return
	}

	var update telegramUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "invalid update")
		return
	}

	if update.Message != nil {
		chatID := strconv.FormatInt(update.Message.Chat.ID, 10)
		if err := s.channelService.HandleTelegram(r.Context(), chatID, update.Message.Text); err != nil {
			s.logger.Warn("telegram message not handled", "chat_id", chatID, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
