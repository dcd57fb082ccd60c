package handlers

import (
	"context"
	"fmt"
	"mime"
	"net/http"

	"github.com/nikhilbhutani/sketchstories/internal/guardrails"
	"github.com/nikhilbhutani/sketchstories/internal/render"
	"github.com/nikhilbhutani/sketchstories/internal/storygen"
	"github.com/nikhilbhutani/sketchstories/internal/vision"
)

type Analyzer interface {
	Analyze(ctx context.Context, img []byte) (*vision.Analysis, error)
}

type StoryCreator interface {
	Create(ctx context.Context, req storygen.Request) (*storygen.Result, error)
}

// ProcessHandler serves the stateless analysis and generation endpoints.
// Nothing is stored.
type ProcessHandler struct {
	analyzer   Analyzer
	stories    StoryCreator
	defaultAge guardrails.AgeGroup
}

func NewProcessHandler(analyzer Analyzer, stories StoryCreator, defaultAge guardrails.AgeGroup) *ProcessHandler {
	return &ProcessHandler{analyzer: analyzer, stories: stories, defaultAge: defaultAge}
}

// ProcessDrawing analyses an uploaded image or a JSON vector drawing.
func (h *ProcessHandler) ProcessDrawing(w http.ResponseWriter, r *http.Request) {
	img, err := readImage(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	a, err := h.analyzer.Analyze(r.Context(), img)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func readImage(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		img, _, err := readUpload(w, r)
		return img, err
	}

	var body struct {
		Vector *render.VectorDrawing `json:"vector"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		return nil, err
	}
	if body.Vector == nil {
		return nil, fmt.Errorf("image file or vector drawing is required")
	}
	return render.Rasterize(*body.Vector)
}

type generateRequest struct {
	Analysis *vision.Analysis `json:"analysis"`
	AgeGroup string           `json:"age_group"`
	Idea     string           `json:"idea"`
	Style    string           `json:"style"`
}

// GenerateStory writes and validates a story for an analysis the client
// already holds.
func (h *ProcessHandler) GenerateStory(w http.ResponseWriter, r *http.Request) {
	var body generateRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.Analysis == nil {
		writeError(w, http.StatusBadRequest, "analysis is required")
		return
	}
	age, err := ageParam(body.AgeGroup, h.defaultAge)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.stories.Create(r.Context(), storygen.Request{
		Analysis: body.Analysis,
		AgeGroup: age,
		Idea:     body.Idea,
		Style:    body.Style,
	})
	if err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
