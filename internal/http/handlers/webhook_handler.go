// Webhook HTTP handler.
//
// This file exposes the single inbound endpoint:
//   - POST /telegram (Telegram webhook updates)
//
// The handler is the intake gate of the pipeline: it validates the update
// shape, consults the dedup set, delegates answer generation to the service,
// and dispatches the reply. Per-request flow is strictly linear:
// Received → Deduplicated-or-Validated → Answered → Dispatched.
//
// Response contract (what Telegram's retry logic sees):
//   - 200 for every handled case, including malformed payloads and duplicate
//     deliveries (both are silent no-ops) and dispatch failures (logged only).
//   - 500 only when answer generation fails; a fixed apology is still sent to
//     the chat on a best-effort basis before responding.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sheraliozodov77/youth-telegram-bot/internal/dedup"
	"github.com/sheraliozodov77/youth-telegram-bot/internal/domain"
	"github.com/sheraliozodov77/youth-telegram-bot/internal/http/middleware"
	"github.com/sheraliozodov77/youth-telegram-bot/internal/telegram"
)

// apologyReply is the fixed, non-generated error message sent to the chat when
// answer generation fails.
const apologyReply = "❌ Xatolik yuz berdi. Iltimos, keyinroq urinib ko‘ring."

// webhookMessages counts intake outcomes. "ignored" covers malformed or
// incomplete payloads, "duplicate" covers redelivered message ids.
var webhookMessages = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "webhook_messages_total",
		Help: "Total number of webhook deliveries by outcome.",
	},
	[]string{"outcome"},
)

func init() {
	prometheus.MustRegister(webhookMessages)
}

// AnswerService produces the reply text for a user question.
//
// Implementations must be safe for concurrent use and must honor the provided
// context for cancellation and timeouts.
type AnswerService interface {
	Answer(ctx context.Context, question string) (string, error)
}

// Handlers groups the webhook endpoints and their dependencies.
type Handlers struct {
	svc    AnswerService
	sender telegram.Sender
	seen   *dedup.Set
}

// New constructs a Handlers instance bound to the given collaborators.
func New(svc AnswerService, sender telegram.Sender, seen *dedup.Set) *Handlers {
	return &Handlers{svc: svc, sender: sender, seen: seen}
}

// Webhook handles one Telegram update delivery.
func (h *Handlers) Webhook(c *gin.Context) {
	lg := middleware.LoggerFrom(c)

	msg, ok := parseUpdate(c)
	if !ok {
		// Malformed or incomplete payloads must not error: respond success so
		// the platform does not retry, and do nothing further.
		webhookMessages.WithLabelValues("ignored").Inc()
		ok200(c, "ignored")
		return
	}

	if msg.HasMessageID() && h.seen.SeenInt(msg.MessageID) {
		lg.Debug().Int("message_id", msg.MessageID).Msg("duplicate delivery ignored")
		webhookMessages.WithLabelValues("duplicate").Inc()
		ok200(c, "duplicate")
		return
	}

	ctx := c.Request.Context()
	reply, err := h.svc.Answer(ctx, msg.Text)
	if err != nil {
		lg.Error().
			Err(err).
			Int64("chat_id", msg.ChatID).
			Msg("answer generation failed")
		webhookMessages.WithLabelValues("error").Inc()

		// Best effort: tell the user something went wrong before failing the
		// delivery. A send failure here is logged and otherwise ignored.
		if serr := h.sender.Send(ctx, msg.ChatID, apologyReply); serr != nil {
			lg.Error().Err(serr).Int64("chat_id", msg.ChatID).Msg("apology dispatch failed")
		}
		fail(c, http.StatusInternalServerError, ErrCodeAnswerFailed, "failed to generate answer")
		return
	}

	if err := h.sender.Send(ctx, msg.ChatID, reply); err != nil {
		// No retry and no secondary notification: the user simply does not
		// receive a reply. The delivery itself still succeeded.
		lg.Error().Err(err).Int64("chat_id", msg.ChatID).Msg("reply dispatch failed")
		webhookMessages.WithLabelValues("send_failed").Inc()
		ok200(c, "ok")
		return
	}

	webhookMessages.WithLabelValues("answered").Inc()
	ok200(c, "ok")
}

// parseUpdate decodes the request body as a Telegram update and extracts the
// fields the pipeline needs. Any decode failure or missing chat/text yields
// ok=false; the caller treats that as a validation no-op.
func parseUpdate(c *gin.Context) (domain.InboundMessage, bool) {
	var upd tgbotapi.Update
	if err := c.ShouldBindJSON(&upd); err != nil {
		return domain.InboundMessage{}, false
	}
	m := upd.Message
	if m == nil || m.Chat == nil || m.Text == "" {
		return domain.InboundMessage{}, false
	}
	return domain.InboundMessage{
		MessageID: m.MessageID,
		ChatID:    m.Chat.ID,
		Text:      m.Text,
	}, true
}

func ok200(c *gin.Context, status string) {
	ok(c, http.StatusOK, gin.H{"status": status})
}
