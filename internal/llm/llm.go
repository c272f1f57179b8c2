// SPDX-License-Identifier: Apache-2.0

// Package llm provides the text-generation collaborator used for planning,
// answer synthesis and guided study.
package llm

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/torahmcp/torah-mcp/internal/config"
)

// ErrNotConfigured is returned when no provider is configured. Callers fall
// back to deterministic output.
var ErrNotConfigured = errors.New("llm not configured")

// ErrEmptyCompletion is returned when a provider answers with no text.
var ErrEmptyCompletion = errors.New("no completion returned")

// Client generates text from a system and a user prompt.
type Client interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Disabled is the Client used when no provider is configured.
type Disabled struct{}

// Complete always returns ErrNotConfigured.
func (Disabled) Complete(context.Context, string, string) (string, error) {
	return "", ErrNotConfigured
}

// New builds the configured provider. model overrides cfg.Model when set.
func New(ctx context.Context, cfg config.LLMConfig, model string, logger *zap.Logger) (Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if model == "" {
		model = cfg.Model
	}
	switch cfg.Provider {
	case config.ProviderOpenRouter:
		c, err := NewOpenRouter(OpenRouterConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   model,
			Referer: cfg.Referer,
			Title:   cfg.Title,
			Timeout: cfg.Timeout,
			Logger:  logger,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.ProviderGemini:
		key := cfg.GeminiKey
		if key == "" {
			key = cfg.APIKey
		}
		c, err := NewGemini(ctx, key, model, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.ProviderNone, "":
		return Disabled{}, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// Func adapts a function to Client.
type Func func(ctx context.Context, system, user string) (string, error)

// Complete calls f.
func (f Func) Complete(ctx context.Context, system, user string) (string, error) {
	return f(ctx, system, user)
}
