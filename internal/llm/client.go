// Package llm adapts the OpenAI API to the narrow embedding and completion
// contracts used by the answer pipeline. It wraps sashabaranov/go-openai and
// carries the model and sampling configuration so that callers deal only in
// text.
package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// ErrNoEmbedding is returned when the provider responds without a vector.
var ErrNoEmbedding = errors.New("embedding response contained no vectors")

// Client calls the OpenAI embeddings and chat-completions endpoints.
// It is safe for concurrent use.
type Client struct {
	api            *openai.Client
	embeddingModel string
	chatModel      string
	temperature    float32
}

// Options configures a Client.
type Options struct {
	APIKey         string
	EmbeddingModel string // e.g. "text-embedding-3-large"
	ChatModel      string // e.g. "gpt-4-turbo"
	Temperature    float64
	BaseURL        string // override for tests; empty means the public API
}

// New constructs a Client from Options.
func New(opts Options) *Client {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	return &Client{
		api:            openai.NewClientWithConfig(cfg),
		embeddingModel: opts.EmbeddingModel,
		chatModel:      opts.ChatModel,
		temperature:    float32(opts.Temperature),
	}
}

// Embed returns the embedding vector for text using the configured model.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(c.embeddingModel),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, ErrNoEmbedding
	}
	return resp.Data[0].Embedding, nil
}

// Complete runs a single-turn chat completion with the given system and user
// messages and returns the raw content of the first choice. An empty content
// with a successful response is returned as-is; the caller decides on a
// fallback.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.chatModel,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
