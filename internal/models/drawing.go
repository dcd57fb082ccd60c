package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Drawing struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	OwnerID      uuid.UUID       `json:"owner_id" db:"owner_id"`
	Title        string          `json:"title" db:"title"`
	AgeGroup     string          `json:"age_group" db:"age_group"`
	ImagePath    string          `json:"image_path" db:"image_path"`
	ImageType    string          `json:"image_type" db:"image_type"`
	ThumbnailURL string          `json:"thumbnail_url,omitempty" db:"thumbnail_url"`
	Status       string          `json:"status" db:"status"`
	Analysis     json.RawMessage `json:"analysis,omitempty" db:"analysis"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

const (
	DrawingStatusNew      = "new"
	DrawingStatusAnalyzed = "analyzed"
	DrawingStatusFailed   = "failed"
)
