package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/nikhilbhutani/sketchstories/internal/guardrails"
)

type SafetyHandler struct {
	filter     *guardrails.ContentFilter
	validator  *guardrails.StoryValidator
	defaultAge guardrails.AgeGroup
}

func NewSafetyHandler(filter *guardrails.ContentFilter, validator *guardrails.StoryValidator, defaultAge guardrails.AgeGroup) *SafetyHandler {
	return &SafetyHandler{filter: filter, validator: validator, defaultAge: defaultAge}
}

type filterRequest struct {
	Text     string `json:"text"`
	AgeGroup string `json:"age_group"`
}

// Filter runs one text through the content filter and reports the stage
// that decided it.
func (h *SafetyHandler) Filter(w http.ResponseWriter, r *http.Request) {
	var body filterRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	age, err := ageParam(body.AgeGroup, h.defaultAge)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.filter.Evaluate(body.Text, age))
}

type validateRequest struct {
	Story    json.RawMessage `json:"story"`
	AgeGroup string          `json:"age_group"`
}

// Validate filters every part of a draft story. A draft of the wrong
// shape is still answered with 200 and the fallback story.
func (h *SafetyHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var body validateRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	age, err := ageParam(body.AgeGroup, h.defaultAge)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(body.Story) == 0 {
		writeError(w, http.StatusBadRequest, "story is required")
		return
	}
	draft, err := guardrails.ParseDraft(body.Story)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.validator.ValidateStory(draft, age))
}
