// Package llm wraps the text-understanding provider behind the engine's two
// unreliable data sources: listing extraction and query resolution. Both are
// treated as adapters that can return malformed or empty data under normal
// operation, never as calls whose failures may propagate.
package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/rs/zerolog"

	"github.com/momentlabs/radar/pkg/metrics"
	"github.com/momentlabs/radar/pkg/radar"
)

// ErrMissingAPIKey marks the fatal configuration error, distinct from any
// per-call failure: without a key the engine must refuse to start.
var ErrMissingAPIKey = errors.New("llm: api key is not configured")

// Client is a thin completion client shared by the extractor and resolver.
type Client struct {
	api             openai.Client
	model           string
	timeout         time.Duration
	maxPromptTokens int
	log             zerolog.Logger
}

// NewClient validates the configuration and builds the provider client.
func NewClient(cfg radar.LLMConfig, log zerolog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Client{
		api:             openai.NewClient(opts...),
		model:           cfg.Model,
		timeout:         time.Duration(cfg.TimeoutSecs) * time.Second,
		maxPromptTokens: cfg.MaxPromptTokens,
		log:             log.With().Str("component", "llm").Logger(),
	}, nil
}

// complete runs a single non-streaming completion. kind labels the call for
// metrics ("extract" or "resolve").
func (c *Client) complete(ctx context.Context, kind, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(0),
	})
	if err != nil {
		metrics.LLMCalls.WithLabelValues(kind, "error").Inc()
		return "", err
	}
	if len(resp.Choices) == 0 {
		metrics.LLMCalls.WithLabelValues(kind, "empty").Inc()
		return "", errors.New("llm: completion has no choices")
	}
	metrics.LLMCalls.WithLabelValues(kind, "ok").Inc()
	return resp.Choices[0].Message.Content, nil
}
