package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/sketchstories/internal/config"
)

type Client struct {
	client *asynq.Client
}

func NewClient(cfg config.RedisConfig) *Client {
	return &Client{
		client: asynq.NewClient(RedisOpt(cfg)),
	}
}

// RedisOpt is shared by the client and the worker server.
func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueStoryGenerate returns the task id.
func (c *Client) EnqueueStoryGenerate(ctx context.Context, p StoryGeneratePayload) (string, error) {
	task, err := NewStoryGenerateTask(p)
	if err != nil {
		return "", err
	}
	return c.enqueue(ctx, task, asynq.MaxRetry(3), asynq.Timeout(2*time.Minute))
}

func (c *Client) EnqueueThumbnailRender(ctx context.Context, p ThumbnailRenderPayload) (string, error) {
	task, err := NewThumbnailRenderTask(p)
	if err != nil {
		return "", err
	}
	return c.enqueue(ctx, task, asynq.MaxRetry(5), asynq.Timeout(30*time.Second), asynq.Queue("low"))
}

func (c *Client) enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (string, error) {
	info, err := c.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return "", fmt.Errorf("enqueue %s: %w", task.Type(), err)
	}
	return info.ID, nil
}
