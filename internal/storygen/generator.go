// Package storygen turns a drawing analysis into a validated children's
// story.
package storygen

import (
	"context"
	"errors"
	"strings"

	"github.com/nikhilbhutani/sketchstories/internal/guardrails"
	"github.com/nikhilbhutani/sketchstories/internal/vision"
)

//go:generate mockgen -destination=mocks/generator_mock.go -package=mocks . Generator,Narrator

// ErrEmptyStory is returned when a generator produced no narrative text.
var ErrEmptyStory = errors.New("generator returned no story text")

// Request describes the story to write. Analysis may be nil when the
// story is built from an idea alone.
type Request struct {
	StoryID  string              `json:"story_id,omitempty"`
	Analysis *vision.Analysis    `json:"analysis,omitempty"`
	AgeGroup guardrails.AgeGroup `json:"age_group"`
	Idea     string              `json:"idea,omitempty"`
	Style    string              `json:"style,omitempty"`
}

// Generator writes an unvalidated draft story.
type Generator interface {
	Name() string
	Generate(ctx context.Context, req Request) (guardrails.Draft, error)
}

// Narrator records a story as audio and returns where it is stored.
type Narrator interface {
	Narrate(ctx context.Context, storyID string, story guardrails.Story) (string, error)
}

func sceneOf(a *vision.Analysis) string {
	if a == nil || a.Scene.Type == "" {
		return vision.SceneGeneral
	}
	return a.Scene.Type
}

func objectsOf(a *vision.Analysis) []string {
	if a == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, n := range vision.Names(a.Objects) {
		n = strings.TrimSpace(n)
		if _, dup := seen[n]; dup || n == "" {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// colorsOf skips the neutral colours that are usually just paper.
func colorsOf(a *vision.Analysis) []string {
	if a == nil {
		return nil
	}
	var out []string
	for _, c := range a.Colors.Dominant {
		switch c.Name {
		case "white", "black", "gray", "beige":
			continue
		}
		out = append(out, c.Name)
	}
	return out
}

func moodOf(a *vision.Analysis) string {
	if a == nil || a.Colors.Mood.Mood == "" {
		return "balanced"
	}
	return a.Colors.Mood.Mood
}
