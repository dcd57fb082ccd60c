package storygen

import (
	"context"
	"fmt"
	"strings"

	"github.com/nikhilbhutani/sketchstories/internal/config"
	"github.com/nikhilbhutani/sketchstories/internal/guardrails"
	"github.com/nikhilbhutani/sketchstories/internal/llm"
	"github.com/nikhilbhutani/sketchstories/internal/vision"
)

// LLMGenerator asks a chat model for a JSON story and falls back to
// structuring the reply itself when the model answers in prose.
type LLMGenerator struct {
	gateway     llm.Gateway
	provider    string
	model       string
	temperature float64
	maxTokens   int
}

func NewLLMGenerator(gw llm.Gateway, cfg config.StoryConfig) *LLMGenerator {
	g := &LLMGenerator{
		gateway:     gw,
		provider:    cfg.Provider,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
	if g.model == "" {
		g.model = "gpt-4o-mini"
	}
	if g.maxTokens <= 0 {
		g.maxTokens = 600
	}
	return g
}

func (g *LLMGenerator) Name() string { return "llm" }

func (g *LLMGenerator) Generate(ctx context.Context, req Request) (guardrails.Draft, error) {
	text, err := storyPrompt.Render(promptVars(req))
	if err != nil {
		return guardrails.Draft{}, err
	}

	resp, err := g.gateway.Chat(ctx, llm.ChatRequest{
		Provider: g.provider,
		Model:    g.model,
		Messages: []llm.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: text},
		},
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
		JSON:        true,
	})
	if err != nil {
		return guardrails.Draft{}, fmt.Errorf("generate story: %w", err)
	}

	return parseStory(resp.Content, req.Analysis)
}

// parseStory accepts a JSON draft, with or without a code fence. Text that
// does not decode as JSON is treated as prose. Missing effect lists are filled with
// suggestions.
func parseStory(content string, a *vision.Analysis) (guardrails.Draft, error) {
	body := stripFences(content)
	if strings.HasPrefix(body, "{") {
		if d, err := guardrails.ParseDraft([]byte(body)); err == nil {
			if len(d.Narrative) == 0 {
				return guardrails.Draft{}, ErrEmptyStory
			}
			if d.SoundEffects == nil || d.Animations == nil {
				sounds, anims := SuggestEffects(draftText(d), a)
				if d.SoundEffects == nil {
					d.SoundEffects = sounds
				}
				if d.Animations == nil {
					d.Animations = anims
				}
			}
			return d, nil
		}
	}
	return Structure(content, a)
}

func draftText(d guardrails.Draft) string {
	var parts []string
	for _, s := range d.Narrative {
		if s.Content != nil {
			parts = append(parts, *s.Content)
		}
	}
	return strings.Join(parts, " ")
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
