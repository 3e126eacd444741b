// Package services – AnswerService
//
// This file implements AnswerService, the application-level component that
// turns a user question into a reply string. Recognized commands short-circuit
// to canned responses; everything else runs the single-pass
// retrieval-augmented pipeline: embed the question, query the vector index for
// the top-K neighbors, concatenate their text snippets into a context block,
// and ask the chat model to answer in Uzbek from that context only.
//
// The "answer only from the supplied context" guarantee is a prompt-level
// contract enforced by the model's own compliance. It is best-effort, not
// verified against the returned answer.
//
// Observability: Answer is OpenTelemetry-instrumented; the span records the
// pipeline outcome (command, generated, or fallback).

package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Canned replies and prompt scaffolding. The bot serves the Youth Affairs
// Agency knowledge base and answers in Uzbek.
const (
	startReply = "👋 Assalomu alaykum! Men Yoshlar ishlari agentligi uchun mo‘ljallangan yordamchi chatbotman. Savolingizni yozing — men siz uchun kerakli ma’lumotlarni 🔍 topishga harakat qilaman."

	helpReply = "🧠 Misol uchun, quyidagicha savollarni berishingiz mumkin:\n\n• Yoshlar agentligida ishga qanday kiriladi?\n• Agentlik qanday loyihalarni qo‘llab-quvvatlaydi?\n• Qanday hujjatlar kerak?\n\nYozing, men yordam berishga tayyorman."

	systemInstruction = "Foydalanuvchining savoliga pastdagi kontekstdan foydalanib o‘zbek tilida aniq, foydali va tushunarli javob ber. Faqat kontekstdagi ma’lumotlarga tayangan holda javob ber. Agar savolga bevosita javob topilmasa, tegishli kontekstdan foydalangan holda tushuntir. Agar hech qanday mos ma’lumot topilmasa, iltimos bilan: \"Kechirasiz, kontekstda ushbu savolga oid ma’lumot topilmadi.\" deb javob qaytar."

	// notFoundReply substitutes for an empty completion.
	notFoundReply = "❌ Javob topilmadi."

	// contextSeparator joins ranked snippets into one context block.
	contextSeparator = "\n\n"
)

// Embedder computes a vector embedding for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex returns the top-K most similar stored snippets for a vector,
// in the index's own ranking order.
type VectorIndex interface {
	Query(ctx context.Context, vector []float32, topK int) ([]Snippet, error)
}

// Snippet is one retrieved knowledge-base entry.
type Snippet struct {
	Score float64
	Text  string
}

// Completer generates a chat completion from a system and a user message.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// AnswerService coordinates the command table and the retrieval pipeline.
// All dependencies are injected; the service holds no mutable state and is
// safe for concurrent use.
type AnswerService struct {
	Embedder  Embedder
	Index     VectorIndex
	Completer Completer

	// TopK is the neighbor count requested per query. Values <= 0 default to 8.
	TopK int

	// Timeout bounds each external call individually so one slow dependency
	// cannot hold a request open indefinitely. Values <= 0 default to 10s.
	Timeout time.Duration
}

// Answer produces the reply for question. Command questions return their
// canned string without touching any provider. Any provider failure surfaces
// as a single error; there is no partial or cached fallback.
func (s *AnswerService) Answer(ctx context.Context, question string) (string, error) {
	tr := otel.Tracer("services/AnswerService")
	ctx, span := tr.Start(ctx, "Answer")
	defer span.End()

	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}

	if reply, ok := commandReply(question); ok {
		span.SetAttributes(attribute.String("answer.kind", "command"))
		return reply, nil
	}

	vector, err := s.embed(ctx, question)
	if err != nil {
		return "", fmt.Errorf("embed question: %w", err)
	}

	snippets, err := s.query(ctx, vector)
	if err != nil {
		return "", fmt.Errorf("query index: %w", err)
	}

	reply, err := s.complete(ctx, buildContext(snippets), question)
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		span.SetAttributes(attribute.String("answer.kind", "fallback"))
		return notFoundReply, nil
	}
	span.SetAttributes(attribute.String("answer.kind", "generated"))
	return reply, nil
}

// commandReply returns the canned response for a recognized command token.
func commandReply(question string) (string, bool) {
	switch question {
	case "/start":
		return startReply, true
	case "/help":
		return helpReply, true
	default:
		return "", false
	}
}

func (s *AnswerService) embed(ctx context.Context, question string) ([]float32, error) {
	ctx, cancel := s.callContext(ctx)
	defer cancel()
	return s.Embedder.Embed(ctx, question)
}

func (s *AnswerService) query(ctx context.Context, vector []float32) ([]Snippet, error) {
	tr := otel.Tracer("services/AnswerService")
	ctx, span := tr.Start(ctx, "query", trace.WithAttributes(attribute.Int("topk", s.topK())))
	defer span.End()

	ctx, cancel := s.callContext(ctx)
	defer cancel()
	snippets, err := s.Index.Query(ctx, vector, s.topK())
	if err == nil {
		span.SetAttributes(attribute.Int("matches", len(snippets)))
	}
	return snippets, err
}

func (s *AnswerService) complete(ctx context.Context, contextBlock, question string) (string, error) {
	ctx, cancel := s.callContext(ctx)
	defer cancel()
	user := fmt.Sprintf("Kontekst:\n%s\n\nSavol: %s", contextBlock, question)
	return s.Completer.Complete(ctx, systemInstruction, user)
}

// buildContext concatenates snippet texts in ranked order, separated by a
// blank line. Snippets without text contribute an empty string, mirroring the
// index's metadata contract.
func buildContext(snippets []Snippet) string {
	parts := make([]string, len(snippets))
	for i, sn := range snippets {
		parts[i] = sn.Text
	}
	return strings.Join(parts, contextSeparator)
}

func (s *AnswerService) topK() int {
	if s.TopK <= 0 {
		return 8
	}
	return s.TopK
}

func (s *AnswerService) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}
