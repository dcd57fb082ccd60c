package storygen

import (
	"strings"

	"github.com/nikhilbhutani/sketchstories/internal/guardrails"
	"github.com/nikhilbhutani/sketchstories/internal/vision"
)

type cue struct {
	keywords    []string
	kind        string
	description string
	timing      string
}

var soundCues = []cue{
	{[]string{"bird", "tweet"}, "ambient", "birds chirping", "throughout"},
	{[]string{"rain"}, "ambient", "soft rain", "throughout"},
	{[]string{"wind", "breeze"}, "ambient", "gentle breeze", "throughout"},
	{[]string{"river", "water", "sea", "splash"}, "ambient", "water splashing softly", "middle"},
	{[]string{"laugh", "giggl"}, "event", "children giggling", "middle"},
	{[]string{"night", "moon", "star", "sleep"}, "background", "soft lullaby", "end"},
}

var animationCues = []cue{
	{[]string{"fly", "flew", "butterfly", "bird"}, "character", "floating across the sky", "middle"},
	{[]string{"sun", "morning"}, "scene", "sun slowly rising", "start"},
	{[]string{"star", "magic", "sparkl"}, "effect", "twinkling sparkles", "end"},
	{[]string{"danc"}, "character", "happy dance", "middle"},
	{[]string{"rainbow"}, "scene", "rainbow fading in", "end"},
}

// SuggestEffects proposes sound and animation cues from keywords in the
// story text and the drawing's scene. Every story gets gentle background
// music and gentle character movement.
func SuggestEffects(text string, a *vision.Analysis) (sounds, animations []guardrails.DraftEffect) {
	lower := strings.ToLower(text)
	heard := lower
	if sceneOf(a) == vision.SceneNature {
		heard += " bird breeze"
	}

	sounds = []guardrails.DraftEffect{guardrails.NewDraftEffect("background", "gentle music", "throughout")}
	animations = []guardrails.DraftEffect{guardrails.NewDraftEffect("character", "gentle movement", "continuous")}
	sounds = appendCues(sounds, soundCues, heard)
	animations = appendCues(animations, animationCues, lower)
	if moodOf(a) == "cheerful" {
		animations = appendUnique(animations, guardrails.NewDraftEffect("effect", "twinkling sparkles", "end"))
	}
	return sounds, animations
}

func appendCues(out []guardrails.DraftEffect, cues []cue, text string) []guardrails.DraftEffect {
	for _, c := range cues {
		for _, kw := range c.keywords {
			if strings.Contains(text, kw) {
				out = appendUnique(out, guardrails.NewDraftEffect(c.kind, c.description, c.timing))
				break
			}
		}
	}
	return out
}

func appendUnique(out []guardrails.DraftEffect, e guardrails.DraftEffect) []guardrails.DraftEffect {
	for _, have := range out {
		if *have.Description == *e.Description {
			return out
		}
	}
	return append(out, e)
}
