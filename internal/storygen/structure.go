package storygen

import (
	"github.com/nikhilbhutani/sketchstories/internal/guardrails"
	"github.com/nikhilbhutani/sketchstories/internal/vision"
	"github.com/nikhilbhutani/sketchstories/pkg/chunker"
)

var sectionNames = map[int][]string{
	1: {"main"},
	2: {"introduction", "conclusion"},
	3: {"introduction", "main", "conclusion"},
}

// Structure turns free prose into a draft by splitting its sentences into
// up to three sections and suggesting effects from the text.
func Structure(text string, a *vision.Analysis) (guardrails.Draft, error) {
	parts := chunker.Parts(chunker.Sentences(text), 3)
	if len(parts) == 0 {
		return guardrails.Draft{}, ErrEmptyStory
	}

	names := sectionNames[len(parts)]
	d := guardrails.Draft{Narrative: make([]guardrails.DraftSection, len(parts))}
	for i, p := range parts {
		d.Narrative[i] = guardrails.NewDraftSection(names[i], p)
	}
	d.SoundEffects, d.Animations = SuggestEffects(text, a)
	return d, nil
}
