package advisor

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"
)

const systemPrompt = "You are a MySQL schema reviewer. Answer tersely, one finding per line."

// OpenAIClient asks an OpenAI compatible chat completion endpoint.
type OpenAIClient struct {
	client    *openai.Client
	model     string
	maxTokens int
	timeout   time.Duration
}

// OpenAIOptions configures NewOpenAIClient.
type OpenAIOptions struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// NewOpenAIClient creates a client. An empty API key is an error.
func NewOpenAIClient(opts OpenAIOptions) (*OpenAIClient, error) {
	if opts.APIKey == "" {
		return nil, errors.Wrap(ErrUnavailable, "no API key configured")
	}
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	return &OpenAIClient{
		client:    openai.NewClientWithConfig(cfg),
		model:     opts.Model,
		maxTokens: opts.MaxTokens,
		timeout:   opts.Timeout,
	}, nil
}

// Ask implements Client.
func (c *OpenAIClient) Ask(ctx context.Context, prompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0,
		MaxTokens:   c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		slog.Debug("advisory request failed", "model", c.model, "error", err)
		return "", errors.Wrapf(ErrUnavailable, "%v", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.Wrap(ErrUnavailable, "empty response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
