package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/sketchstories/internal/config"
)

type fakeProvider struct {
	name  string
	fails int
	calls int
}

func (p *fakeProvider) Name() string     { return p.name }
func (p *fakeProvider) Models() []string { return []string{p.name + "-small"} }

func (p *fakeProvider) ChatCompletion(_ context.Context, req ChatRequest) (*ChatResponse, error) {
	p.calls++
	if p.calls <= p.fails {
		return nil, errors.New("upstream unavailable")
	}
	return &ChatResponse{Provider: p.name, Model: req.Model, Content: "ok"}, nil
}

func testGateway(cfg config.LLMConfig, providers ...Provider) *gateway {
	g := newGateway(cfg, zerolog.Nop(), providers...)
	g.backoff = time.Millisecond
	return g
}

func TestGatewayRetries(t *testing.T) {
	p := &fakeProvider{name: "openai", fails: 2}
	g := testGateway(config.LLMConfig{DefaultProvider: "openai", MaxRetries: 2}, p)

	resp, err := g.Chat(context.Background(), ChatRequest{Model: "gpt-4o-mini"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, 3, p.calls)
}

func TestGatewayFallsBack(t *testing.T) {
	primary := &fakeProvider{name: "openai", fails: 10}
	secondary := &fakeProvider{name: "anthropic"}
	g := testGateway(config.LLMConfig{DefaultProvider: "openai", FallbackProvider: "anthropic", MaxRetries: 1}, primary, secondary)

	resp, err := g.Chat(context.Background(), ChatRequest{Model: "any"})
	require.NoError(t, err)
	assert.Equal(t, "anthropic", resp.Provider)
	assert.Equal(t, 2, primary.calls)
	assert.Equal(t, 1, secondary.calls)
}

func TestGatewayExhausted(t *testing.T) {
	p := &fakeProvider{name: "openai", fails: 10}
	g := testGateway(config.LLMConfig{DefaultProvider: "openai"}, p)

	_, err := g.Chat(context.Background(), ChatRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all retries exhausted for openai")
}

func TestGatewayUnknownProvider(t *testing.T) {
	g := testGateway(config.LLMConfig{DefaultProvider: "openai"})

	_, err := g.Chat(context.Background(), ChatRequest{Provider: "mistral"})
	assert.ErrorContains(t, err, `provider "mistral" not configured`)
}

func TestGatewayHonoursCancellation(t *testing.T) {
	p := &fakeProvider{name: "openai", fails: 10}
	g := newGateway(config.LLMConfig{DefaultProvider: "openai", MaxRetries: 3}, zerolog.Nop(), p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.Chat(ctx, ChatRequest{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, p.calls)
}

func TestGatewayListModels(t *testing.T) {
	g := testGateway(config.LLMConfig{}, &fakeProvider{name: "openai"}, &fakeProvider{name: "anthropic"})

	assert.ElementsMatch(t, []ModelInfo{
		{Provider: "openai", Model: "openai-small"},
		{Provider: "anthropic", Model: "anthropic-small"},
	}, g.ListModels())
}

func TestCalculateCost(t *testing.T) {
	assert.Zero(t, CalculateCost("unknown-model", 1000, 1000))
	assert.Greater(t, CalculateCost("gpt-4o", 1000, 1000), CalculateCost("gpt-4o-mini", 1000, 1000))
}

func TestToOpenAIMessagesWithImages(t *testing.T) {
	msgs := toOpenAIMessages([]Message{
		{Role: "system", Content: "describe"},
		{Role: "user", Content: "what is this?", Images: []Image{{Data: []byte("png"), MimeType: "image/png"}}},
	})

	require.Len(t, msgs, 2)
	assert.Equal(t, "describe", msgs[0].Content)
	require.Len(t, msgs[1].MultiContent, 2)
	assert.Equal(t, "data:image/png;base64,cG5n", msgs[1].MultiContent[1].ImageURL.URL)
}
