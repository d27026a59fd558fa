package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	ollama "github.com/ollama/ollama/api"

	"github.com/alantheprice/codeagent/pkg/utils"
)

// Generator is the narrow transport contract the pipeline depends on. The
// planner and worker accept this interface so tests can substitute a fake.
type Generator interface {
	Generate(ctx context.Context, prompt, model string, temperature float64, maxTokens int) (string, error)
}

// Client is a blocking Ollama transport. Each request is a single round-trip
// with the caller-supplied context controlling the timeout.
type Client struct {
	api    *ollama.Client
	logger *utils.Logger
}

// NewClient creates a client against the given Ollama base URL.
func NewClient(baseURL string, logger *utils.Logger) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid ollama server url %q: %w", baseURL, err)
	}
	return &Client{
		api:    ollama.NewClient(parsed, &http.Client{}),
		logger: logger,
	}, nil
}

// Generate sends a prompt to the model and returns the full response text.
func (c *Client) Generate(ctx context.Context, prompt, model string, temperature float64, maxTokens int) (string, error) {
	// Request hashes make repeated prompts easy to spot in the log.
	c.logger.Logf("Calling LLM: %s (temp=%.2f, max_tokens=%d, request %s)",
		model, temperature, maxTokens, utils.GenerateRequestHash(prompt)[:12])
	start := time.Now()

	stream := false
	req := &ollama.GenerateRequest{
		Model:  model,
		Prompt: prompt,
		Stream: &stream,
		Options: map[string]interface{}{
			"temperature": temperature,
			"num_predict": maxTokens,
		},
	}

	var response strings.Builder
	err := c.api.Generate(ctx, req, func(res ollama.GenerateResponse) error {
		response.WriteString(res.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("llm request failed: %w", err)
	}

	c.logger.Logf("LLM response: %d chars in %v", response.Len(), time.Since(start))
	return response.String(), nil
}

// CheckConnection reports whether the Ollama server is reachable.
func (c *Client) CheckConnection(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return c.api.Heartbeat(ctx) == nil
}

// ListModels returns the names of the models available on the server.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	resp, err := c.api.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	names := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		names = append(names, m.Name)
	}
	return names, nil
}
