package completion

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/matheusdonha/cheftesteagente/internal/history"
	"github.com/matheusdonha/cheftesteagente/internal/util"
)

// ErrCompletion marks any failure of the model call. The orchestrator catches
// it and answers with FallbackReply instead of surfacing the cause.
var ErrCompletion = errors.New("completion: model call failed")

// Config holds the settings of the chat completion client.
type Config struct {
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// Client generates replies from a conversation window through the OpenAI chat
// completion API.
type Client struct {
	api        *openai.Client
	model      string
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
}

func NewClient(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	return &Client{
		api:        openai.NewClient(cfg.APIKey),
		model:      cfg.Model,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}
}

// Complete sends the window plus the fixed system prompt and returns the
// assistant text. Transient errors are retried with backoff; the final error
// wraps ErrCompletion.
func (c *Client) Complete(ctx context.Context, window []history.Turn) (string, error) {
	messages := BuildMessages(window)

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %v", ErrCompletion, ctx.Err())
			case <-time.After(util.CalculateBackoff(c.retryDelay, attempt)):
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		resp, err := c.api.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
			Model:    c.model,
			Messages: messages,
		})
		cancel()
		if err != nil {
			lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("attempt %d: no choices returned", attempt+1)
			continue
		}
		return resp.Choices[0].Message.Content, nil
	}

	return "", fmt.Errorf("%w: %v", ErrCompletion, lastErr)
}

// BuildMessages maps a conversation window onto chat messages, with the
// system prompt first. Multimodal turns become multi-part content.
func BuildMessages(window []history.Turn) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(window)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: SystemPrompt,
	})

	for _, turn := range window {
		role := openai.ChatMessageRoleUser
		if turn.Role == history.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}

		if !turn.Content.Multimodal() {
			messages = append(messages, openai.ChatCompletionMessage{
				Role:    role,
				Content: turn.Content.Text,
			})
			continue
		}

		parts := make([]openai.ChatMessagePart, 0, len(turn.Content.Parts))
		for _, p := range turn.Content.Parts {
			switch p.Type {
			case history.PartImageURL:
				parts = append(parts, openai.ChatMessagePart{
					Type:     openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{URL: p.URL},
				})
			default:
				parts = append(parts, openai.ChatMessagePart{
					Type: openai.ChatMessagePartTypeText,
					Text: p.Text,
				})
			}
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:         role,
			MultiContent: parts,
		})
	}

	return messages
}
