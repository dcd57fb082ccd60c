package storygen

import (
	"context"
	"fmt"
	"strings"

	"github.com/nikhilbhutani/sketchstories/internal/guardrails"
	"github.com/nikhilbhutani/sketchstories/internal/vision"
)

var settings = map[string]string{
	vision.SceneNature:  "sunny meadow",
	vision.SceneIndoor:  "cozy little house",
	vision.SceneGeneral: "faraway land",
}

// TemplateGenerator writes the same story for the same analysis without
// calling a model. It is used when no provider is configured and as the
// fallback when the model fails.
type TemplateGenerator struct{}

func NewTemplateGenerator() *TemplateGenerator { return &TemplateGenerator{} }

func (g *TemplateGenerator) Name() string { return "template" }

func (g *TemplateGenerator) Generate(_ context.Context, req Request) (guardrails.Draft, error) {
	objects := objectsOf(req.Analysis)
	hero, friend := "bunny", "friendly bird"
	if len(objects) > 0 {
		hero = objects[0]
	}
	if len(objects) > 1 {
		friend = objects[1]
	}
	if colors := colorsOf(req.Analysis); len(colors) > 0 {
		hero = colors[0] + " " + hero
	}

	setting, ok := settings[sceneOf(req.Analysis)]
	if !ok {
		setting = sceneOf(req.Analysis)
	}

	main := fmt.Sprintf("One day, the %s met a %s, and they went on a journey of discovery together, sharing everything they found.", hero, friend)
	if idea := strings.TrimRight(strings.TrimSpace(req.Idea), ".!? "); idea != "" {
		main += fmt.Sprintf(" On the way they imagined %s.", idea)
	}

	d := guardrails.Draft{
		Narrative: []guardrails.DraftSection{
			guardrails.NewDraftSection("introduction",
				fmt.Sprintf("Once upon a time, in a %s, there lived a kind %s who loved adventure.", setting, hero)),
			guardrails.NewDraftSection("main", main),
			guardrails.NewDraftSection("conclusion",
				fmt.Sprintf("At the end of the day, the %s and the %s were happy, because friendship is the best treasure.", hero, friend)),
		},
	}
	d.SoundEffects, d.Animations = SuggestEffects(draftText(d), req.Analysis)
	return d, nil
}
