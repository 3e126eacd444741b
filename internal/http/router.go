// Package httpapi wires the HTTP transport (Gin) to the answer pipeline,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging, panic recovery, and metrics.
//
// Design goals:
//   - Observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/sheraliozodov77/youth-telegram-bot/internal/config"
	"github.com/sheraliozodov77/youth-telegram-bot/internal/dedup"
	"github.com/sheraliozodov77/youth-telegram-bot/internal/http/handlers"
	"github.com/sheraliozodov77/youth-telegram-bot/internal/http/middleware"
	"github.com/sheraliozodov77/youth-telegram-bot/internal/pinecone"
	"github.com/sheraliozodov77/youth-telegram-bot/internal/services"
	"github.com/sheraliozodov77/youth-telegram-bot/internal/telegram"
)

// PineconeIndex adapts the pinecone client to the services.VectorIndex
// interface expected by the AnswerService. This keeps the service decoupled
// from the concrete provider package while reusing the existing client.
type PineconeIndex struct {
	Client *pinecone.Client
}

// Query proxies pinecone.Client.Query and maps matches to snippets, keeping
// the provider's ranking order.
func (p PineconeIndex) Query(ctx context.Context, vector []float32, topK int) ([]services.Snippet, error) {
	matches, err := p.Client.Query(ctx, vector, topK)
	if err != nil {
		return nil, err
	}
	snippets := make([]services.Snippet, len(matches))
	for i, m := range matches {
		snippets[i] = services.Snippet{Score: m.Score, Text: m.Text()}
	}
	return snippets, nil
}

// Dependencies carries the external collaborators the routes need. All fields
// are interfaces (or small concrete helpers) so tests can substitute stubs.
type Dependencies struct {
	Embedder  services.Embedder
	Index     services.VectorIndex
	Completer services.Completer
	Sender    telegram.Sender
	Seen      *dedup.Set
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured access logs
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
func RegisterRoutes(r *gin.Engine, deps Dependencies, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Dependency injection: handlers ← service ← providers
	svc := &services.AnswerService{
		Embedder:  deps.Embedder,
		Index:     deps.Index,
		Completer: deps.Completer,
		TopK:      cfg.TopK,
		Timeout:   cfg.UpstreamTimeout,
	}
	h := handlers.New(svc, deps.Sender, deps.Seen)

	// Inbound webhook
	r.POST("/telegram", h.Webhook)
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
