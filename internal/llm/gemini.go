package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"google.golang.org/genai"

	"poflow/internal"
	"poflow/internal/config"
)

// Client wraps Gemini in JSON mode for document structuring. Callers pass a
// prompt plus the target value to unmarshal into; the model is told to reply
// with a single JSON object.
type Client struct {
	genai   *genai.Client
	model   string
	timeout time.Duration
}

func NewClient(cfg config.Config) (*Client, error) {
	if err := cfg.Require("GEMINI_API_KEY", cfg.GeminiAPIKey); err != nil {
		return nil, fmt.Errorf("%w: %v", internal.ErrConfigurationMissing, err)
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: cfg.GeminiAPIKey,
	})
	if err != nil {
		return nil, err
	}

	return &Client{
		genai:   client,
		model:   cfg.GeminiModel,
		timeout: time.Duration(cfg.GeminiTimeout) * time.Millisecond,
	}, nil
}

// StructureJSON sends the prompt and unmarshals the model's JSON reply into
// out. Transient failures retry with exponential backoff; a reply that is not
// valid JSON for out is a schema violation, not a retryable error.
func (c *Client) StructureJSON(ctx context.Context, prompt string, out any) error {
	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: prompt}},
		Role:  "user",
	}}
	genCfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		resp, err := c.genai.Models.GenerateContent(callCtx, c.model, contents, genCfg)
		cancel()
		if err != nil {
			lastErr = err
			if attempt < 3 {
				backoff := time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond
				time.Sleep(backoff)
				continue
			}
			return fmt.Errorf("%w: gemini: %v", internal.ErrExternalCall, err)
		}

		text := extractText(resp)
		if strings.TrimSpace(text) == "" {
			lastErr = errors.New("empty gemini response")
			continue
		}

		if err := json.Unmarshal([]byte(stripFences(text)), out); err != nil {
			return fmt.Errorf("%w: gemini reply is not valid JSON: %v", internal.ErrSchemaViolation, err)
		}
		return nil
	}

	if lastErr == nil {
		lastErr = errors.New("gemini request failed")
	}
	return fmt.Errorf("%w: gemini: %v", internal.ErrExternalCall, lastErr)
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part != nil && part.Text != "" {
				b.WriteString(part.Text)
			}
		}
	}
	return b.String()
}

// stripFences tolerates models that wrap JSON in a markdown code block even
// in JSON mode.
func stripFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
