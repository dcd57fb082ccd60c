package storygen

import (
	"strings"

	"github.com/nikhilbhutani/sketchstories/internal/prompt"
)

const (
	defaultStyle = "bedtime"
	systemPrompt = "You are a gentle storyteller who writes short stories for young children."
)

var storyPrompt = prompt.New("story", `Write a {{style}} story for a child aged {{age_group}} years, inspired by their drawing.

Scene: {{scene}}
Things in the drawing: {{objects}}
Main colours: {{colors}} ({{mood}} mood)
The child's idea: {{idea}}

Rules:
- Keep the story positive and uplifting.
- Teach a simple lesson about friendship, kindness, sharing, helping, learning, nature or adventure.
- Nothing scary, violent or sad.
- Use simple words a {{age_group}} year old understands.
- Add gentle humour where it fits.
- Write three short paragraphs: an introduction, the main part and a conclusion.

Reply with a JSON object in exactly this shape:
{"narrative":[{"type":"introduction","content":"..."},{"type":"main","content":"..."},{"type":"conclusion","content":"..."}],
"sound_effects":[{"type":"background","description":"...","timing":"throughout"}],
"animations":[{"type":"character","description":"...","timing":"continuous"}]}`)

func promptVars(req Request) map[string]string {
	style := req.Style
	if style == "" {
		style = defaultStyle
	}
	idea := strings.TrimSpace(req.Idea)
	if idea == "" {
		idea = "none, surprise them"
	}
	return map[string]string{
		"style":     style,
		"age_group": req.AgeGroup.String(),
		"scene":     sceneOf(req.Analysis),
		"objects":   listOrNone(objectsOf(req.Analysis)),
		"colors":    listOrNone(colorsOf(req.Analysis)),
		"mood":      moodOf(req.Analysis),
		"idea":      idea,
	}
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
