package guardrails

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/xeipuuv/gojsonschema"
)

// ErrMalformedDraft wraps shape problems found in a draft story.
var ErrMalformedDraft = errors.New("malformed draft story")

// draftSchema is the shape every draft must have before filtering.
// Effect lists may be null; narrative may not.
func draftSchema() map[string]any {
	effect := map[string]any{
		"type":     "object",
		"required": []string{"description"},
		"properties": map[string]any{
			"type":        map[string]any{"type": "string"},
			"description": map[string]any{"type": "string"},
			"timing":      map[string]any{"type": "string"},
		},
	}
	return map[string]any{
		"type":     "object",
		"required": []string{"narrative"},
		"properties": map[string]any{
			"narrative": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":     "object",
					"required": []string{"type", "content"},
					"properties": map[string]any{
						"type":    map[string]any{"type": "string"},
						"content": map[string]any{"type": "string"},
					},
				},
			},
			"sound_effects": map[string]any{"type": []string{"array", "null"}, "items": effect},
			"animations":    map[string]any{"type": []string{"array", "null"}, "items": effect},
		},
	}
}

// StoryValidator filters every part of a draft story. Validation is all or
// nothing: any fault yields the lexicon's fallback story.
type StoryValidator struct {
	filter   *ContentFilter
	schema   *gojsonschema.Schema
	log      zerolog.Logger
	recorder Recorder
}

func NewStoryValidator(filter *ContentFilter) (*StoryValidator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(draftSchema()))
	if err != nil {
		return nil, fmt.Errorf("compile draft schema: %w", err)
	}
	return &StoryValidator{
		filter:   filter,
		schema:   schema,
		log:      filter.log.With().Str("component", "story_validator").Logger(),
		recorder: filter.recorder,
	}, nil
}

// ValidateStory never fails; problems are reported through Issues.
func (v *StoryValidator) ValidateStory(draft Draft, age AgeGroup) (result ValidationResult) {
	defer func() {
		if r := recover(); r != nil {
			result = v.faulted(fmt.Sprintf("%s: panic: %v", RejectFault, r))
		}
		v.recorder.StoryValidated(result.IsSafe)
	}()

	if err := v.checkShape(draft); err != nil {
		return v.faulted(fmt.Sprintf("%s: %v", RejectMalformed, err))
	}
	if !age.Valid() {
		return v.faulted(fmt.Sprintf("%s: %v: %q", RejectFault, ErrUnknownAgeGroup, string(age)))
	}

	lex := v.filter.Lexicon()
	out := Story{
		Narrative:    make([]Section, 0, len(draft.Narrative)),
		SoundEffects: make([]Effect, 0, len(draft.SoundEffects)),
		Animations:   make([]Effect, 0, len(draft.Animations)),
	}

	for _, sec := range draft.Narrative {
		out.Narrative = append(out.Narrative, Section{
			Type:    sec.Type,
			Content: v.filter.FilterContent(*sec.Content, age),
		})
	}
	out.SoundEffects = v.keepEffects(draft.SoundEffects, lex.unsafeSounds, "sound")
	out.Animations = v.keepEffects(draft.Animations, lex.unsafeAnimations, "animation")

	return ValidationResult{IsSafe: true, Issues: []string{}, ModifiedContent: out}
}

func (v *StoryValidator) checkShape(draft Draft) error {
	res, err := v.schema.Validate(gojsonschema.NewGoLoader(draft))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedDraft, err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrMalformedDraft, strings.Join(msgs, "; "))
}

// keepEffects drops, never edits, effects whose description contains a
// forbidden keyword.
func (v *StoryValidator) keepEffects(effects []DraftEffect, forbidden []string, kind string) []Effect {
	kept := make([]Effect, 0, len(effects))
	for _, e := range effects {
		desc := *e.Description
		if kw, bad := containsAny(strings.ToLower(desc), forbidden); bad {
			v.log.Debug().Str("kind", kind).Str("keyword", kw).Msg("effect dropped")
			v.recorder.EffectDropped(kind)
			continue
		}
		kept = append(kept, Effect{Type: e.Type, Description: desc, Timing: e.Timing})
	}
	return kept
}

func (v *StoryValidator) faulted(issue string) ValidationResult {
	v.log.Warn().Str("issue", issue).Msg("story replaced with fallback")
	return ValidationResult{
		IsSafe:          false,
		Issues:          []string{issue},
		ModifiedContent: v.filter.Lexicon().FallbackStory(),
	}
}

func containsAny(s string, keywords []string) (string, bool) {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return kw, true
		}
	}
	return "", false
}
