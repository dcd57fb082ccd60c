package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/nikhilbhutani/sketchstories/internal/config"
)

type gateway struct {
	providers        map[string]Provider
	defaultProvider  string
	fallbackProvider string
	maxRetries       int
	backoff          time.Duration
	log              zerolog.Logger
}

// NewGateway registers a provider for every configured API key.
func NewGateway(cfg config.LLMConfig, log zerolog.Logger) Gateway {
	var providers []Provider
	if cfg.OpenAIKey != "" {
		providers = append(providers, NewOpenAIProvider(cfg.OpenAIKey))
	}
	if cfg.AnthropicKey != "" {
		providers = append(providers, NewAnthropicProvider(cfg.AnthropicKey))
	}
	return newGateway(cfg, log, providers...)
}

func newGateway(cfg config.LLMConfig, log zerolog.Logger, providers ...Provider) *gateway {
	g := &gateway{
		providers:        make(map[string]Provider, len(providers)),
		defaultProvider:  cfg.DefaultProvider,
		fallbackProvider: cfg.FallbackProvider,
		maxRetries:       cfg.MaxRetries,
		backoff:          500 * time.Millisecond,
		log:              log.With().Str("component", "llm_gateway").Logger(),
	}
	for _, p := range providers {
		g.providers[p.Name()] = p
	}
	return g
}

func (g *gateway) Provider(name string) (Provider, error) {
	p, ok := g.providers[name]
	if !ok {
		return nil, fmt.Errorf("provider %q not configured", name)
	}
	return p, nil
}

func (g *gateway) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	providerName := req.Provider
	if providerName == "" {
		providerName = g.defaultProvider
	}

	resp, err := g.chatWithRetry(ctx, providerName, req)
	if err != nil && g.fallbackProvider != "" && g.fallbackProvider != providerName {
		g.log.Warn().
			Str("primary", providerName).
			Str("fallback", g.fallbackProvider).
			Err(err).
			Msg("primary provider failed, trying fallback")
		return g.chatWithRetry(ctx, g.fallbackProvider, req)
	}
	return resp, err
}

func (g *gateway) chatWithRetry(ctx context.Context, providerName string, req ChatRequest) (*ChatResponse, error) {
	p, err := g.Provider(providerName)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt*attempt) * g.backoff
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			g.log.Debug().Str("provider", providerName).Int("attempt", attempt).Msg("retrying LLM call")
		}

		resp, err := p.ChatCompletion(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("all retries exhausted for %s: %w", providerName, lastErr)
}

func (g *gateway) ListModels() []ModelInfo {
	var models []ModelInfo
	for _, p := range g.providers {
		for _, m := range p.Models() {
			models = append(models, ModelInfo{Provider: p.Name(), Model: m})
		}
	}
	return models
}
