package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	domai "github.com/bryanwahyu/automaton-rca/internal/domain/ai"
	"github.com/bryanwahyu/automaton-rca/internal/domain/analysis"
	"github.com/bryanwahyu/automaton-rca/internal/infra/ai/prompt"
)

const (
	defaultModel      = "llama-3.1-8b-instruct"
	defaultEmbedModel = "text-embedding-nomic-embed-text-v1.5"
	maxTokens         = 1000
	temperature       = 0.3
)

// Client speaks the OpenAI chat and embeddings API. The default deployment
// points it at a local LM Studio endpoint, but any compatible baseURL works.
type Client struct {
	*openai.Client
	model      string
	embedModel string
}

// NewClient builds a client for baseURL. Empty baseURL keeps the upstream
// OpenAI endpoint; empty model names fall back to the local defaults.
func NewClient(baseURL, apiKey, model, embedModel string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = defaultModel
	}
	if embedModel == "" {
		embedModel = defaultEmbedModel
	}
	return &Client{Client: openai.NewClientWithConfig(cfg), model: model, embedModel: embedModel}
}

// Model reports the chat model used for narratives.
func (c *Client) Model() string { return c.model }

// Narrate writes the root cause narrative for a finished result. Prompt and
// completion both pass through redaction.
func (c *Client) Narrate(ctx context.Context, res *analysis.Result) (string, error) {
	user := prompt.Redact(prompt.NarrativePrompt(res))
	if prompt.ContainsInjection(user) {
		return "", fmt.Errorf("narrative prompt rejected: injection marker present")
	}

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.SystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if strings.HasPrefix(c.model, "o1") || strings.HasPrefix(c.model, "o3") || strings.HasPrefix(c.model, "o4") || strings.HasPrefix(c.model, "gpt-5") {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", mapErr(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return prompt.Redact(resp.Choices[0].Message.Content), nil
}

// Embed vectorizes one chunk of text for the knowledge index.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(c.embedModel),
	})
	if err != nil {
		return nil, mapErr(err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embedding response carried no data")
	}
	return resp.Data[0].Embedding, nil
}

func mapErr(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return domai.ErrQuotaExceeded
	}
	return err
}
