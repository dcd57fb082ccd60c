package queue

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	TypeStoryGenerate   = "story:generate"
	TypeThumbnailRender = "drawing:thumbnail"
)

// StoryGeneratePayload asks for a new story about a stored drawing.
type StoryGeneratePayload struct {
	DrawingID string `json:"drawing_id"`
	OwnerID   string `json:"owner_id"`
	AgeGroup  string `json:"age_group,omitempty"`
	Idea      string `json:"idea,omitempty"`
	Style     string `json:"style,omitempty"`
}

type ThumbnailRenderPayload struct {
	DrawingID string `json:"drawing_id"`
	OwnerID   string `json:"owner_id"`
}

func NewStoryGenerateTask(p StoryGeneratePayload) (*asynq.Task, error) {
	return newTask(TypeStoryGenerate, p)
}

func NewThumbnailRenderTask(p ThumbnailRenderPayload) (*asynq.Task, error) {
	return newTask(TypeThumbnailRender, p)
}

func newTask(taskType string, payload any) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return asynq.NewTask(taskType, data), nil
}
