// Package handlers serves the drawing, story and safety endpoints.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nikhilbhutani/sketchstories/internal/drawing"
	"github.com/nikhilbhutani/sketchstories/internal/guardrails"
	"github.com/nikhilbhutani/sketchstories/internal/render"
	"github.com/nikhilbhutani/sketchstories/internal/vision"
)

const (
	maxJSONBody  = 1 << 20
	maxImageBody = 10 << 20
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// respondErr maps domain errors to status codes. Internal errors are
// logged and hidden from the client.
func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		writeError(w, status, http.StatusText(status))
		return
	}
	writeError(w, status, err.Error())
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, drawing.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, drawing.ErrNoOwner):
		return http.StatusUnauthorized
	case errors.Is(err, guardrails.ErrUnknownAgeGroup),
		errors.Is(err, guardrails.ErrMalformedDraft),
		errors.Is(err, drawing.ErrInvalidImage),
		errors.Is(err, render.ErrInvalidDrawing),
		errors.Is(err, vision.ErrUnsupportedImage):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func idParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id: %w", err)
	}
	return id, nil
}

// ageParam parses an optional age group, using def when s is empty.
func ageParam(s string, def guardrails.AgeGroup) (guardrails.AgeGroup, error) {
	if s == "" {
		return def, nil
	}
	return guardrails.ParseAgeGroup(s)
}

func intQuery(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return def
	}
	return v
}
