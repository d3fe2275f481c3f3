package ai

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// ErrDisabled is returned when an AI feature is turned off or no
// provider is configured.
var ErrDisabled = errors.New("ai feature is disabled")

// Message is a single turn in a provider conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options tunes a provider call
type Options struct {
	Model       string  `json:"model,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// Response is the provider's answer plus usage accounting
type Response struct {
	Content    string  `json:"content"`
	Provider   string  `json:"provider"`
	Model      string  `json:"model"`
	TokensUsed int     `json:"tokens_used"`
	Cost       float64 `json:"cost"`
}

// Provider generates completions from a chat-style message list
type Provider interface {
	Complete(ctx context.Context, messages []Message, opts Options) (*Response, error)
	Name() string
}

// ParseJSONContent extracts a JSON object from a provider response,
// tolerating markdown code fences around the payload.
func ParseJSONContent(content string, out interface{}) error {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
			trimmed = trimmed[:idx]
		}
		trimmed = strings.TrimSpace(trimmed)
	}
	if err := json.Unmarshal([]byte(trimmed), out); err != nil {
		return errors.Wrap(err, "failed to parse provider response")
	}
	return nil
}
