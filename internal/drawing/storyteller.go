package drawing

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/sketchstories/internal/guardrails"
	"github.com/nikhilbhutani/sketchstories/internal/models"
	"github.com/nikhilbhutani/sketchstories/internal/storygen"
	"github.com/nikhilbhutani/sketchstories/internal/vision"
)

type Analyzer interface {
	Analyze(ctx context.Context, img []byte) (*vision.Analysis, error)
}

type StoryCreator interface {
	Create(ctx context.Context, req storygen.Request) (*storygen.Result, error)
}

// TellRequest overrides the drawing's age group when AgeGroup is set.
type TellRequest struct {
	AgeGroup guardrails.AgeGroup `json:"age_group,omitempty"`
	Idea     string              `json:"idea,omitempty"`
	Style    string              `json:"style,omitempty"`
}

// Storyteller runs a stored drawing through analysis and story
// generation. The API handlers and the queue worker share it.
type Storyteller struct {
	drawings *Service
	analyzer Analyzer
	stories  StoryCreator
}

func NewStoryteller(drawings *Service, analyzer Analyzer, stories StoryCreator) *Storyteller {
	return &Storyteller{drawings: drawings, analyzer: analyzer, stories: stories}
}

// Analyze returns the stored analysis, analysing the image first when
// there is none.
func (t *Storyteller) Analyze(ctx context.Context, d *models.Drawing) (*vision.Analysis, error) {
	if a, err := t.drawings.Analysis(d); err != nil || a != nil {
		return a, err
	}

	img, err := t.drawings.Image(ctx, d)
	if err != nil {
		return nil, err
	}
	a, err := t.analyzer.Analyze(ctx, img)
	if err != nil {
		if ferr := t.drawings.MarkFailed(ctx, d); ferr != nil {
			t.drawings.log.Warn().Err(ferr).Str("drawing_id", d.ID.String()).Msg("status not updated")
		}
		return nil, fmt.Errorf("analyze drawing: %w", err)
	}
	if err := t.drawings.SaveAnalysis(ctx, d, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Tell writes, validates and stores a new story for the drawing.
func (t *Storyteller) Tell(ctx context.Context, id uuid.UUID, req TellRequest) (*models.Story, error) {
	d, err := t.drawings.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	age := req.AgeGroup
	if age == "" {
		age = guardrails.AgeGroup(d.AgeGroup)
	}
	if !age.Valid() {
		return nil, fmt.Errorf("%w: %q", guardrails.ErrUnknownAgeGroup, age.String())
	}

	a, err := t.Analyze(ctx, d)
	if err != nil {
		return nil, err
	}

	res, err := t.stories.Create(ctx, storygen.Request{
		StoryID:  uuid.NewString(),
		Analysis: a,
		AgeGroup: age,
		Idea:     req.Idea,
		Style:    req.Style,
	})
	if err != nil {
		return nil, fmt.Errorf("create story: %w", err)
	}
	return t.drawings.AddStory(ctx, d, age, res)
}
