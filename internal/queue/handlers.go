package queue

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

type HandlersRegistry struct {
	mux *asynq.ServeMux
}

// NewHandlersRegistry logs every task with its type, duration and
// outcome.
func NewHandlersRegistry(log zerolog.Logger) *HandlersRegistry {
	mux := asynq.NewServeMux()
	mux.Use(loggingMiddleware(log))
	return &HandlersRegistry{mux: mux}
}

func (r *HandlersRegistry) Register(taskType string, handler asynq.Handler) {
	r.mux.Handle(taskType, handler)
}

func (r *HandlersRegistry) Mux() *asynq.ServeMux {
	return r.mux
}

// Queues weights the worker's queues; thumbnails wait behind stories.
func Queues() map[string]int {
	return map[string]int{"default": 6, "low": 1}
}

func loggingMiddleware(log zerolog.Logger) asynq.MiddlewareFunc {
	return func(next asynq.Handler) asynq.Handler {
		return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
			start := time.Now()
			err := next.ProcessTask(ctx, t)
			ev := log.Info()
			if err != nil {
				ev = log.Error().Err(err)
			}
			ev.Str("task", t.Type()).Dur("duration", time.Since(start)).Msg("task processed")
			return err
		})
	}
}
