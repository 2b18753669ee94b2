package summary

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultOpenAIBase = "https://api.openai.com/v1"

// OpenAI calls the OpenAI (or compatible) chat-completions API.
type OpenAI struct {
	Model   string
	APIKey  string // #nosec G117 -- APIKey is an intentional field name for the OpenAI authentication token
	BaseURL string
	client  *http.Client
}

// NewOpenAI returns an OpenAI provider. baseURL defaults to the OpenAI endpoint.
func NewOpenAI(model, apiKey, baseURL string) *OpenAI {
	if baseURL == "" {
		baseURL = defaultOpenAIBase
	}
	return &OpenAI{
		Model:   model,
		APIKey:  apiKey,
		BaseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Summarize condenses the message texts into a short summary.
func (o *OpenAI) Summarize(ctx context.Context, texts []string) (string, error) {
	reqBody := map[string]any{
		"model": o.Model,
		"messages": []map[string]any{{
			"role":    "user",
			"content": summaryPrompt + strings.Join(texts, " "),
		}},
	}
	headers := map[string]string{
		"Authorization": "Bearer " + o.APIKey,
	}

	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := doJSON(ctx, o.client, http.MethodPost, o.BaseURL+"/chat/completions", headers, reqBody, &resp); err != nil {
		return "", fmt.Errorf("openai summarize: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai summarize: empty choices in response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
