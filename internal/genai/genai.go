// Package genai drafts poll content with the OpenAI API.
//
// Suggestions are staff-reviewed drafts; nothing generated here reaches the
// screen without an admin activating it.
package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const systemPrompt = "You write short, playful poll questions for a cat café's lobby display. " +
	"Guests vote from their phones while visiting. Respond with JSON only: " +
	`{"question": "...", "options": ["...", "..."]} with 2 to 4 options.`

// completionFunc issues one chat completion. Tests substitute a fake.
type completionFunc func(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)

// Client wraps the OpenAI chat-completion API for poll drafting.
type Client struct {
	complete completionFunc
}

// Suggestion is a drafted poll question with its answer options.
type Suggestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// NewClient initializes a client using the OPENAI_API_KEY environment variable.
func NewClient() (*Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	cli := openai.NewClient(option.WithAPIKey(apiKey))
	return &Client{
		complete: func(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
			return cli.Chat.Completions.New(ctx, params)
		},
	}, nil
}

// SuggestPoll drafts a poll question about the given theme, name-dropping the
// current cats when any are provided.
func (c *Client) SuggestPoll(ctx context.Context, theme string, catNames []string) (Suggestion, error) {
	user := "Theme: " + theme
	if len(catNames) > 0 {
		user += ". Cats currently in the café: " + strings.Join(catNames, ", ")
	}

	resp, err := c.complete(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModelGPT4oMini,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(user),
		},
	})
	if err != nil {
		return Suggestion{}, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Suggestion{}, fmt.Errorf("no choices returned")
	}

	var s Suggestion
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	// Models occasionally fence the JSON despite instructions.
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &s); err != nil {
		slog.Warn("Client.SuggestPoll: unparseable model output", "error", err)
		return Suggestion{}, fmt.Errorf("unparseable suggestion: %w", err)
	}
	if s.Question == "" || len(s.Options) < 2 {
		return Suggestion{}, fmt.Errorf("incomplete suggestion: question=%q options=%d", s.Question, len(s.Options))
	}
	if len(s.Options) > 4 {
		s.Options = s.Options[:4]
	}
	return s, nil
}
