package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/sketchstories/internal/auth"
	"github.com/nikhilbhutani/sketchstories/internal/drawing"
	"github.com/nikhilbhutani/sketchstories/internal/guardrails"
	"github.com/nikhilbhutani/sketchstories/internal/models"
	"github.com/nikhilbhutani/sketchstories/internal/queue"
)

// Teller writes a story about a stored drawing.
type Teller interface {
	Tell(ctx context.Context, id uuid.UUID, req drawing.TellRequest) (*models.Story, error)
}

type StoryHandler struct {
	drawings Drawings
	teller   Teller
	queue    Enqueuer
}

func NewStoryHandler(drawings Drawings, teller Teller, q Enqueuer) *StoryHandler {
	return &StoryHandler{drawings: drawings, teller: teller, queue: q}
}

type tellRequest struct {
	AgeGroup string `json:"age_group"`
	Idea     string `json:"idea"`
	Style    string `json:"style"`
}

// Create tells a story synchronously, or with ?async=true queues it and
// answers 202 with the task id.
func (h *StoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var body tellRequest
	if err := decodeJSON(w, r, &body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	age, err := ageParam(body.AgeGroup, "")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if r.URL.Query().Get("async") == "true" {
		h.enqueue(w, r, id, age, body)
		return
	}

	story, err := h.teller.Tell(r.Context(), id, drawing.TellRequest{
		AgeGroup: age,
		Idea:     body.Idea,
		Style:    body.Style,
	})
	if err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, story)
}

func (h *StoryHandler) enqueue(w http.ResponseWriter, r *http.Request, id uuid.UUID, age guardrails.AgeGroup, body tellRequest) {
	if h.queue == nil {
		writeError(w, http.StatusServiceUnavailable, "background generation is not available")
		return
	}
	// fail fast on drawings the caller cannot see
	d, err := h.drawings.Get(r.Context(), id)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	taskID, err := h.queue.EnqueueStoryGenerate(r.Context(), queue.StoryGeneratePayload{
		DrawingID: d.ID.String(),
		OwnerID:   auth.AccountIDFromContext(r.Context()).String(),
		AgeGroup:  age.String(),
		Idea:      body.Idea,
		Style:     body.Style,
	})
	if err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"task_id": taskID, "status": "queued"})
}

func (h *StoryHandler) List(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	stories, err := h.drawings.ListStories(r.Context(), id)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stories": stories})
}
