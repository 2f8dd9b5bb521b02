// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/pdiddy/groundwork/internal/httputil"
	"github.com/pdiddy/groundwork/pkg/types"
)

// NewOpenAIClient builds a go-openai client whose transport retries
// rate-limit and gateway errors. An empty baseURL keeps the SDK default.
func NewOpenAIClient(apiKey string, cfg types.AIConfig, logger *zap.Logger) *openai.Client {
	conf := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		conf.BaseURL = cfg.BaseURL
	}
	conf.HTTPClient = &httputil.RetryDoer{
		Client:     &http.Client{Timeout: cfg.Timeout},
		MaxRetries: cfg.MaxRetries,
		Logger:     logger,
	}
	return openai.NewClientWithConfig(conf)
}

// OpenAIGenerator implements Generator with the chat completions API.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewGenerator returns a Generator bound to model.
func NewGenerator(client *openai.Client, model string, logger *zap.Logger) *OpenAIGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenAIGenerator{client: client, model: model, logger: logger}
}

// Generate sends one system and one user message and returns the first
// choice's content.
func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
		Temperature: wireTemperature(req.Temperature),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion (%s): %w", g.model, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion (%s): no choices returned", g.model)
	}

	g.logger.Debug("chat completion",
		zap.String("model", g.model),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
	)
	return resp.Choices[0].Message.Content, nil
}

// wireTemperature maps 0 to the smallest positive float so the field
// survives omitempty and the API does not substitute its default of 1.
func wireTemperature(t float32) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return t
}

// OpenAIEmbedder implements Embedder with the embeddings API.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
}

// NewEmbedder returns an Embedder bound to model.
func NewEmbedder(client *openai.Client, model string) *OpenAIEmbedder {
	return &OpenAIEmbedder{client: client, model: model}
}

// Embed returns one vector per text in input order.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("embeddings (%s): %w", e.model, err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings (%s): got %d vectors for %d inputs", e.model, len(resp.Data), len(texts))
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("embeddings (%s): index %d out of range", e.model, d.Index)
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}
