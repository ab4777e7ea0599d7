// Package gemini wraps the Google generative AI client for structured
// JSON generation and text embeddings.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"dailydigest/internal/logger"
	"dailydigest/internal/retry"
	"dailydigest/internal/textutil"
)

const embedMaxChars = 1200

type Client struct {
	client         *genai.Client
	modelName      string
	embeddingModel string
}

func NewClient(ctx context.Context, apiKey, modelName, embeddingModel string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is empty")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{
		client:         client,
		modelName:      modelName,
		embeddingModel: embeddingModel,
	}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// GenerateJSON sends a prompt and decodes the JSON object the model
// returns. Code fences and trailing prose around the object are
// tolerated.
func (c *Client) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string) (map[string]interface{}, error) {
	model := c.client.GenerativeModel(c.modelName)
	model.SetTemperature(0.2)
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}

	var resp *genai.GenerateContentResponse
	cfg := retry.Config{
		MaxAttempts: 3,
		Delay:       1500 * time.Millisecond,
		Backoff:     2,
		IsRetryable: retryableAPIError,
	}
	err := retry.WithRetry(ctx, cfg, "gemini generate", func() error {
		var err error
		resp, err = model.GenerateContent(ctx, genai.Text(userPrompt))
		return err
	})
	if err != nil {
		return nil, err
	}

	text := extractText(resp)
	parsed := parseJSONObject(text)
	if parsed == nil {
		return nil, fmt.Errorf("gemini response is not a JSON object")
	}
	return parsed, nil
}

// Embed returns the embedding vector for the given text, truncated to
// the provider's useful input length. Empty input returns nil.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	cleaned := textutil.CleanText(text)
	if cleaned == "" {
		return nil, nil
	}
	runes := []rune(cleaned)
	if len(runes) > embedMaxChars {
		cleaned = string(runes[:embedMaxChars])
	}

	em := c.client.EmbeddingModel(c.embeddingModel)
	res, err := em.EmbedContent(ctx, genai.Text(cleaned))
	if err != nil {
		return nil, err
	}
	if res == nil || res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("gemini returned empty embedding")
	}
	return res.Embedding.Values, nil
}

// retryableAPIError treats transport errors as transient and API errors
// as transient only for throttling and server-side statuses.
func retryableAPIError(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return retry.RetryableStatus(apiErr.Code)
	}
	return true
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	content := resp.Candidates[0].Content
	if content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String()
}

func parseJSONObject(text string) map[string]interface{} {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.ReplaceAll(trimmed, "```json", "")
	trimmed = strings.ReplaceAll(trimmed, "```", "")
	trimmed = strings.TrimSpace(trimmed)
	if trimmed == "" {
		return nil
	}

	var direct map[string]interface{}
	if err := json.Unmarshal([]byte(trimmed), &direct); err == nil {
		return direct
	}

	block := extractJSONBlock(trimmed)
	if block == "" {
		return nil
	}
	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(block), &parsed); err == nil {
		return parsed
	}
	logger.Debug("gemini JSON parse failed", "snippet", truncate(trimmed, 120))
	return nil
}

// extractJSONBlock finds the first balanced {...} block in the text.
func extractJSONBlock(value string) string {
	start := strings.IndexByte(value, '{')
	if start == -1 {
		return ""
	}
	depth := 0
	for i := start; i < len(value); i++ {
		switch value[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return value[start : i+1]
			}
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
