package queue

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTasks(t *testing.T) {
	task, err := NewStoryGenerateTask(StoryGeneratePayload{DrawingID: "d1", OwnerID: "o1", Idea: "a kite"})
	require.NoError(t, err)
	assert.Equal(t, "story:generate", task.Type())
	assert.JSONEq(t, `{"drawing_id":"d1","owner_id":"o1","idea":"a kite"}`, string(task.Payload()))

	task, err = NewThumbnailRenderTask(ThumbnailRenderPayload{DrawingID: "d1", OwnerID: "o1"})
	require.NoError(t, err)
	assert.Equal(t, "drawing:thumbnail", task.Type())
	assert.JSONEq(t, `{"drawing_id":"d1","owner_id":"o1"}`, string(task.Payload()))
}

func TestRegistryRoutesAndLogs(t *testing.T) {
	var buf bytes.Buffer
	reg := NewHandlersRegistry(zerolog.New(&buf))

	var got []string
	reg.Register(TypeStoryGenerate, asynq.HandlerFunc(func(_ context.Context, t *asynq.Task) error {
		got = append(got, t.Type())
		return nil
	}))
	reg.Register(TypeThumbnailRender, asynq.HandlerFunc(func(context.Context, *asynq.Task) error {
		return errors.New("no image")
	}))

	ctx := context.Background()
	require.NoError(t, reg.Mux().ProcessTask(ctx, asynq.NewTask(TypeStoryGenerate, nil)))
	assert.EqualError(t, reg.Mux().ProcessTask(ctx, asynq.NewTask(TypeThumbnailRender, nil)), "no image")
	assert.Equal(t, []string{TypeStoryGenerate}, got)

	out := buf.String()
	assert.Contains(t, out, `"task":"story:generate"`)
	assert.Contains(t, out, `"level":"error"`)
	assert.Contains(t, out, `"error":"no image"`)
}

func TestQueues(t *testing.T) {
	q := Queues()
	assert.Greater(t, q["default"], q["low"])
}
