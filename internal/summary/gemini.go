package summary

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultGeminiBase = "https://generativelanguage.googleapis.com/v1beta"

const summaryPrompt = "Here is the conversation between the users, I want that to summarize in 2 to 3 lines, "

// Gemini calls the generateContent API.
type Gemini struct {
	Model   string
	APIKey  string // #nosec G117 -- APIKey is an intentional field name for the Gemini authentication token
	BaseURL string
	client  *http.Client
}

// NewGemini returns a Gemini provider. baseURL defaults to the public endpoint.
func NewGemini(model, apiKey, baseURL string) *Gemini {
	if baseURL == "" {
		baseURL = defaultGeminiBase
	}
	return &Gemini{
		Model:   model,
		APIKey:  apiKey,
		BaseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Summarize condenses the message texts into a short summary.
func (g *Gemini) Summarize(ctx context.Context, texts []string) (string, error) {
	reqBody := map[string]any{
		"contents": []map[string]any{{
			"parts": []map[string]any{{
				"text": summaryPrompt + strings.Join(texts, " "),
			}},
		}},
	}

	var resp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.BaseURL, g.Model, g.APIKey)
	if err := doJSON(ctx, g.client, http.MethodPost, url, nil, reqBody, &resp); err != nil {
		return "", fmt.Errorf("gemini summarize: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini summarize: empty response")
	}
	return strings.TrimSpace(resp.Candidates[0].Content.Parts[0].Text), nil
}
