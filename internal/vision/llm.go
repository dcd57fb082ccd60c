package vision

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nikhilbhutani/sketchstories/internal/llm"
)

const detectPrompt = `You look at drawings made by young children.
List the things you can see and the kind of place the drawing shows.
Reply with a JSON object only, in this shape:
{"objects":[{"name":"cat","confidence":0.9,"box":{"x":0.1,"y":0.2,"width":0.3,"height":0.3}}],
 "scene":"garden","scene_confidence":0.8}
Names are single lowercase nouns. Box coordinates are fractions of the
image width and height, measured from the top-left corner.`

// LLMDetector asks a vision-capable chat model to describe the drawing.
type LLMDetector struct {
	gateway llm.Gateway
	model   string
}

func NewLLMDetector(gw llm.Gateway, model string) *LLMDetector {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &LLMDetector{gateway: gw, model: model}
}

func (d *LLMDetector) Name() string { return "llm" }

func (d *LLMDetector) Detect(ctx context.Context, img []byte, mimeType string) (*Detection, error) {
	resp, err := d.gateway.Chat(ctx, llm.ChatRequest{
		Model: d.model,
		Messages: []llm.Message{
			{Role: "system", Content: detectPrompt},
			{
				Role:    "user",
				Content: "What is in this drawing?",
				Images:  []llm.Image{{Data: img, MimeType: mimeType}},
			},
		},
		Temperature: 0.1,
		MaxTokens:   800,
		JSON:        true,
	})
	if err != nil {
		return nil, fmt.Errorf("vision detect: %w", err)
	}
	return parseDetection(resp.Content)
}

func parseDetection(content string) (*Detection, error) {
	var det Detection
	if err := json.Unmarshal([]byte(stripFences(content)), &det); err != nil {
		return nil, fmt.Errorf("parse detection: %w", err)
	}
	if det.Objects == nil {
		det.Objects = []Object{}
	}
	for i := range det.Objects {
		o := &det.Objects[i]
		o.Name = strings.ToLower(strings.TrimSpace(o.Name))
		o.Confidence = clamp01(o.Confidence)
		o.Box = Box{
			X:      clamp01(o.Box.X),
			Y:      clamp01(o.Box.Y),
			Width:  clamp01(o.Box.Width),
			Height: clamp01(o.Box.Height),
		}
	}
	det.Scene = strings.ToLower(strings.TrimSpace(det.Scene))
	return &det, nil
}

// stripFences removes a markdown code fence around a JSON reply.
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

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
