package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
)

const DefaultModel = "gemini-2.0-flash-001"

// Client generates replies through a langchaingo model, Gemini by default.
type Client struct {
	llm   llms.Model
	model string
}

// NewClient connects to the Gemini API.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	if model == "" {
		model = DefaultModel
	}
	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{llm: llm, model: model}, nil
}

// NewWithModel wraps an existing model.
func NewWithModel(llm llms.Model, model string) *Client {
	return &Client{llm: llm, model: model}
}

// Generate sends prompt as a single human message and returns the reply text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	text, err := llms.GenerateFromSinglePrompt(ctx, c.llm, prompt)
	if err != nil {
		return "", fmt.Errorf("generate with %s: %w", c.model, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("generate with %s: empty response content", c.model)
	}
	return text, nil
}
