// Package llm adapts an OpenAI-compatible chat-completion API into the
// single-call-per-item rubric generator the scheduler drives.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/paperlens/paperlens/internal/model"

	openai "github.com/sashabaranov/go-openai"
)

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api       *openai.Client
	model     string
	attempts  int
	baseDelay time.Duration
	maxDelay  time.Duration
}

// New creates a new rubric model client.
func New(baseURL, apiKey, modelName string, cfg model.PipelineConfig) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &Client{
		api:       openai.NewClientWithConfig(config),
		model:     modelName,
		attempts:  attempts,
		baseDelay: cfg.RetryBaseDelay,
		maxDelay:  cfg.RetryMaxDelay,
	}
}

// Ping verifies the model endpoint is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("LLM endpoint check: %w", err)
	}
	return nil
}

// Generate performs one structured-output model call per invocation,
// retrying transient failures with exponential backoff. A call that
// finishes for a non-terminal reason (truncation, content filter) counts
// as a failure; no partial content is salvaged here.
func (c *Client) Generate(ctx context.Context, item model.Item, prefs model.Preferences) (*model.RawRubric, error) {
	prompt := buildRubricPrompt(item, prefs)

	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		raw, err := c.call(ctx, prompt, prefs)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		slog.Warn("rubric model call failed", "number", item.Number, "attempt", attempt, "error", err)

		if attempt == c.attempts {
			break
		}
		if err := sleepCtx(ctx, c.backoff(attempt)); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("rubric generation for %s: %w", item.Number, lastErr)
}

func (c *Client) call(ctx context.Context, prompt string, prefs model.Preferences) (*model.RawRubric, error) {
	temperature := float32(0.1)
	if prefs.QualityMode == model.QualityFast {
		temperature = 0.3
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM API call: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("LLM returned no choices")
	}
	choice := resp.Choices[0]
	if choice.FinishReason != openai.FinishReasonStop {
		return nil, fmt.Errorf("generation finished with reason %q", choice.FinishReason)
	}

	raw := stripCodeFences(strings.TrimSpace(choice.Message.Content))
	if raw == "" {
		return nil, fmt.Errorf("empty response text")
	}

	var out struct {
		Classification map[string]any `json:"classification"`
		Rubric         map[string]any `json:"rubric"`
		AnswerKey      map[string]any `json:"answer_key"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("parse LLM response: %w", err)
	}
	if out.Classification == nil || out.Rubric == nil || out.AnswerKey == nil {
		return nil, fmt.Errorf("missing required keys in response")
	}

	return &model.RawRubric{
		Classification: out.Classification,
		Rubric:         out.Rubric,
		AnswerKey:      out.AnswerKey,
	}, nil
}

// backoff returns the delay before the next attempt: base doubled per
// attempt, capped.
func (c *Client) backoff(attempt int) time.Duration {
	d := c.baseDelay << (attempt - 1)
	if d > c.maxDelay {
		d = c.maxDelay
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// stripCodeFences removes a surrounding ```json ... ``` block if the model
// wrapped its output despite JSON mode.
func stripCodeFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 && !strings.ContainsAny(s[:i], "{[") {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
