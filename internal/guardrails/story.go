package guardrails

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Section is one part of a validated narrative.
type Section struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// Effect is a sound or animation cue attached to a story.
type Effect struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Timing      string `json:"timing"`
}

// Story is a story that is safe to show to a child.
type Story struct {
	Narrative    []Section `json:"narrative"`
	SoundEffects []Effect  `json:"sound_effects"`
	Animations   []Effect  `json:"animations"`
}

// Text joins the narrative sections with single spaces.
func (s Story) Text() string {
	parts := make([]string, len(s.Narrative))
	for i, sec := range s.Narrative {
		parts[i] = sec.Content
	}
	return strings.Join(parts, " ")
}

func (s Story) clone() Story {
	out := Story{
		Narrative:    make([]Section, len(s.Narrative)),
		SoundEffects: make([]Effect, len(s.SoundEffects)),
		Animations:   make([]Effect, len(s.Animations)),
	}
	copy(out.Narrative, s.Narrative)
	copy(out.SoundEffects, s.SoundEffects)
	copy(out.Animations, s.Animations)
	return out
}

// DraftSection is a narrative section as produced by a generator. Content
// is a pointer so that a missing field survives decoding.
type DraftSection struct {
	Type    string  `json:"type"`
	Content *string `json:"content"`
}

// DraftEffect is an unvalidated effect suggestion.
type DraftEffect struct {
	Type        string  `json:"type"`
	Description *string `json:"description"`
	Timing      string  `json:"timing"`
}

// Draft is an unvalidated story.
type Draft struct {
	Narrative    []DraftSection `json:"narrative"`
	SoundEffects []DraftEffect  `json:"sound_effects"`
	Animations   []DraftEffect  `json:"animations"`
}

// ParseDraft decodes a JSON draft story. Shape problems such as a missing
// section content are left for ValidateStory to report.
func ParseDraft(data []byte) (Draft, error) {
	var d Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return Draft{}, fmt.Errorf("decode draft story: %w", err)
	}
	return d, nil
}

// DraftOf converts a complete story back into draft form.
func DraftOf(s Story) Draft {
	d := Draft{
		Narrative:    make([]DraftSection, len(s.Narrative)),
		SoundEffects: make([]DraftEffect, len(s.SoundEffects)),
		Animations:   make([]DraftEffect, len(s.Animations)),
	}
	for i, sec := range s.Narrative {
		d.Narrative[i] = NewDraftSection(sec.Type, sec.Content)
	}
	for i, e := range s.SoundEffects {
		d.SoundEffects[i] = NewDraftEffect(e.Type, e.Description, e.Timing)
	}
	for i, e := range s.Animations {
		d.Animations[i] = NewDraftEffect(e.Type, e.Description, e.Timing)
	}
	return d
}

func NewDraftSection(kind, content string) DraftSection {
	return DraftSection{Type: kind, Content: &content}
}

func NewDraftEffect(kind, description, timing string) DraftEffect {
	return DraftEffect{Type: kind, Description: &description, Timing: timing}
}

// ValidationResult is produced fresh by every ValidateStory call.
type ValidationResult struct {
	IsSafe          bool     `json:"is_safe"`
	Issues          []string `json:"issues"`
	ModifiedContent Story    `json:"modified_content"`
}
