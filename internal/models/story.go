package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Story struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	DrawingID      uuid.UUID       `json:"drawing_id" db:"drawing_id"`
	OwnerID        uuid.UUID       `json:"owner_id" db:"owner_id"`
	AgeGroup       string          `json:"age_group" db:"age_group"`
	Content        json.RawMessage `json:"content" db:"content"`
	IsSafe         bool            `json:"is_safe" db:"is_safe"`
	Issues         []string        `json:"issues" db:"issues"`
	Generator      string          `json:"generator" db:"generator"`
	VoiceNarration string          `json:"voice_narration,omitempty" db:"voice_narration"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}
