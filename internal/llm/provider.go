package llm

import (
	"context"
)

//go:generate mockgen -destination=mocks/gateway_mock.go -package=mocks . Gateway,Provider

// Provider abstracts a chat model vendor.
type Provider interface {
	ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	Name() string
	Models() []string
}

// Gateway routes chat calls to providers with retry and fallback.
type Gateway interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	Provider(name string) (Provider, error)
	ListModels() []ModelInfo
}

// Image is an inline picture attached to a user message.
type Image struct {
	Data     []byte `json:"-"`
	MimeType string `json:"mime_type"`
}

// Message represents a single chat message.
type Message struct {
	Role    string  `json:"role"` // system, user, assistant
	Content string  `json:"content"`
	Images  []Image `json:"images,omitempty"`
}

// ChatRequest is the input for chat completions.
type ChatRequest struct {
	Provider    string    `json:"provider,omitempty"`
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	JSON        bool      `json:"json,omitempty"` // ask for a JSON object reply
}

// ChatResponse is the output from chat completions.
type ChatResponse struct {
	ID           string  `json:"id"`
	Provider     string  `json:"provider"`
	Model        string  `json:"model"`
	Content      string  `json:"content"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	TotalTokens  int     `json:"total_tokens"`
	CostUSD      float64 `json:"cost_usd"`
	LatencyMs    int64   `json:"latency_ms"`
}

// ModelInfo describes an available model.
type ModelInfo struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}
