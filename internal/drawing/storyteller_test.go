package drawing

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/sketchstories/internal/guardrails"
	"github.com/nikhilbhutani/sketchstories/internal/models"
	"github.com/nikhilbhutani/sketchstories/internal/storygen"
	"github.com/nikhilbhutani/sketchstories/internal/vision"
)

type countingAnalyzer struct {
	calls int
	err   error
}

func (a *countingAnalyzer) Analyze(context.Context, []byte) (*vision.Analysis, error) {
	a.calls++
	if a.err != nil {
		return nil, a.err
	}
	return &vision.Analysis{
		Objects: []vision.Object{{Name: "cat", Confidence: 0.9}},
		Scene:   vision.SceneInfo{Type: vision.SceneNature},
		Backend: "llm",
	}, nil
}

type recordingCreator struct{ reqs []storygen.Request }

func (c *recordingCreator) Create(_ context.Context, req storygen.Request) (*storygen.Result, error) {
	c.reqs = append(c.reqs, req)
	return &storygen.Result{StoryID: req.StoryID, IsSafe: true, Issues: []string{}, Generator: "template"}, nil
}

func TestStorytellerTell(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := asOwner(uuid.New())
	d, err := svc.Create(ctx, CreateRequest{AgeGroup: guardrails.AgeEarly, Image: pngBytes(t)})
	require.NoError(t, err)

	analyzer, creator := &countingAnalyzer{}, &recordingCreator{}
	teller := NewStoryteller(svc, analyzer, creator)

	st, err := teller.Tell(ctx, d.ID, TellRequest{Idea: "a picnic"})
	require.NoError(t, err)
	assert.Equal(t, "6-8", st.AgeGroup)
	assert.Equal(t, d.ID, st.DrawingID)

	st, err = teller.Tell(ctx, d.ID, TellRequest{AgeGroup: guardrails.AgeMiddle})
	require.NoError(t, err)
	assert.Equal(t, "9-12", st.AgeGroup)

	assert.Equal(t, 1, analyzer.calls, "stored analysis is reused")
	require.Len(t, creator.reqs, 2)
	assert.Equal(t, "a picnic", creator.reqs[0].Idea)
	assert.Equal(t, []string{"cat"}, vision.Names(creator.reqs[1].Analysis.Objects))
	assert.Equal(t, st.ID.String(), creator.reqs[1].StoryID)

	stored := repo.drawings[d.ID]
	assert.Equal(t, models.DrawingStatusAnalyzed, stored.Status)
	assert.Len(t, repo.stories, 2)
}

func TestStorytellerErrors(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := asOwner(uuid.New())
	d, err := svc.Create(ctx, CreateRequest{AgeGroup: guardrails.AgeEarly, Image: pngBytes(t)})
	require.NoError(t, err)

	teller := NewStoryteller(svc, &countingAnalyzer{err: errors.New("vision down")}, &recordingCreator{})

	_, err = teller.Tell(ctx, d.ID, TellRequest{})
	assert.EqualError(t, err, "analyze drawing: vision down")
	assert.Equal(t, models.DrawingStatusFailed, repo.drawings[d.ID].Status)

	_, err = teller.Tell(ctx, d.ID, TellRequest{AgeGroup: "teen"})
	assert.ErrorIs(t, err, guardrails.ErrUnknownAgeGroup)

	_, err = teller.Tell(ctx, uuid.New(), TellRequest{})
	assert.ErrorIs(t, err, ErrNotFound)
}
