// Command server runs the Telegram webhook relay: it receives update payloads
// on POST /telegram, answers questions over the Youth Affairs Agency knowledge
// base via retrieval-augmented generation, and replies to the originating chat.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/sheraliozodov77/youth-telegram-bot/internal/config"
	"github.com/sheraliozodov77/youth-telegram-bot/internal/dedup"
	httpapi "github.com/sheraliozodov77/youth-telegram-bot/internal/http"
	"github.com/sheraliozodov77/youth-telegram-bot/internal/llm"
	"github.com/sheraliozodov77/youth-telegram-bot/internal/observability"
	"github.com/sheraliozodov77/youth-telegram-bot/internal/pinecone"
	"github.com/sheraliozodov77/youth-telegram-bot/internal/sysutil"
	"github.com/sheraliozodov77/youth-telegram-bot/internal/telegram"
)

const version = "1.0.0"

func main() {
	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	sysutil.SetupLogger(cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("otel shutdown failed")
		}
	}()

	sender, err := telegram.New(cfg.TelegramBotToken)
	if err != nil {
		log.Fatal().Err(err).Msg("telegram authorization failed")
	}
	log.Info().Str("bot", sender.Username()).Msg("telegram bot authorized")

	llmClient := llm.New(llm.Options{
		APIKey:         cfg.OpenAIAPIKey,
		EmbeddingModel: cfg.EmbeddingModel,
		ChatModel:      cfg.ChatModel,
		Temperature:    cfg.Temperature,
	})
	index := pinecone.New(cfg.PineconeIndexHost, cfg.PineconeAPIKey, nil)
	log.Info().
		Str("index", cfg.PineconeIndexName).
		Str("host", cfg.PineconeIndexHost).
		Int("top_k", cfg.TopK).
		Msg("vector index configured")

	seen := dedup.New(cfg.DedupTTL)
	defer seen.Stop()

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Dependencies{
		Embedder:  llmClient,
		Index:     httpapi.PineconeIndex{Client: index},
		Completer: llmClient,
		Sender:    sender,
		Seen:      seen,
	}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("webhook server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
