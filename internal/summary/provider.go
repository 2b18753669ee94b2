// Package summary provides an interface and implementations for the
// external text-summarization endpoint. The endpoint is opaque and
// best-effort: a failure is reported to the caller, never retried.
package summary

import (
	"context"
	"fmt"

	"github.com/go-ports/teamflow/internal/config"
)

// Provider is the interface for summarization backends.
type Provider interface {
	// Summarize condenses the given message texts into a short summary.
	Summarize(ctx context.Context, texts []string) (string, error)
}

// NewProvider constructs a Provider from the given config.
// Returns (nil, nil) when the provider is "" or "none".
func NewProvider(cfg *config.TeamflowConfig) (Provider, error) {
	switch cfg.Summarizer.Provider {
	case "gemini":
		return NewGemini(cfg.Summarizer.Model, cfg.Summarizer.APIKey, cfg.Summarizer.BaseURL), nil

	case "openai":
		return NewOpenAI(cfg.Summarizer.Model, cfg.Summarizer.APIKey, cfg.Summarizer.BaseURL), nil

	case "", "none":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown summarizer provider: %s", cfg.Summarizer.Provider)
	}
}
