package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/nikhilbhutani/sketchstories/internal/auth"
	"github.com/nikhilbhutani/sketchstories/internal/drawing"
	"github.com/nikhilbhutani/sketchstories/internal/guardrails"
	"github.com/nikhilbhutani/sketchstories/internal/models"
	"github.com/nikhilbhutani/sketchstories/internal/queue"
)

type Teller interface {
	Tell(ctx context.Context, id uuid.UUID, req drawing.TellRequest) (*models.Story, error)
}

type StoryWorker struct {
	teller Teller
	log    zerolog.Logger
}

func NewStoryWorker(teller Teller, log zerolog.Logger) *StoryWorker {
	return &StoryWorker{teller: teller, log: log.With().Str("worker", queue.TypeStoryGenerate).Logger()}
}

func (w *StoryWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p queue.StoryGeneratePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	drawingID, ownerID, err := parseIDs(p.DrawingID, p.OwnerID)
	if err != nil {
		return err
	}

	ctx = auth.WithAccountID(ctx, ownerID)
	st, err := w.teller.Tell(ctx, drawingID, drawing.TellRequest{
		AgeGroup: guardrails.AgeGroup(p.AgeGroup),
		Idea:     p.Idea,
		Style:    p.Style,
	})
	if err != nil {
		return permanent(err)
	}

	w.log.Info().
		Str("drawing_id", drawingID.String()).
		Str("story_id", st.ID.String()).
		Bool("is_safe", st.IsSafe).
		Msg("story generated")
	return nil
}

func parseIDs(drawingID, ownerID string) (uuid.UUID, uuid.UUID, error) {
	d, err := uuid.Parse(drawingID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("parse drawing ID: %v: %w", err, asynq.SkipRetry)
	}
	o, err := uuid.Parse(ownerID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("parse owner ID: %v: %w", err, asynq.SkipRetry)
	}
	return d, o, nil
}

// permanent marks errors that a retry cannot fix.
func permanent(err error) error {
	if errors.Is(err, drawing.ErrNotFound) ||
		errors.Is(err, guardrails.ErrUnknownAgeGroup) ||
		errors.Is(err, drawing.ErrInvalidImage) {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	return err
}
