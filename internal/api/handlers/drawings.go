package handlers

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nikhilbhutani/sketchstories/internal/drawing"
	"github.com/nikhilbhutani/sketchstories/internal/guardrails"
	"github.com/nikhilbhutani/sketchstories/internal/models"
	"github.com/nikhilbhutani/sketchstories/internal/queue"
	"github.com/nikhilbhutani/sketchstories/internal/render"
)

// Drawings is the owner-scoped drawing store.
type Drawings interface {
	Create(ctx context.Context, req drawing.CreateRequest) (*models.Drawing, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Drawing, error)
	List(ctx context.Context, limit, offset int) ([]models.Drawing, error)
	Update(ctx context.Context, id uuid.UUID, req drawing.UpdateRequest) (*models.Drawing, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListStories(ctx context.Context, drawingID uuid.UUID) ([]models.Story, error)
}

// Enqueuer hands slow work to the background worker.
type Enqueuer interface {
	EnqueueStoryGenerate(ctx context.Context, p queue.StoryGeneratePayload) (string, error)
	EnqueueThumbnailRender(ctx context.Context, p queue.ThumbnailRenderPayload) (string, error)
}

type DrawingHandler struct {
	drawings   Drawings
	queue      Enqueuer
	defaultAge guardrails.AgeGroup
}

// NewDrawingHandler builds the handler. q may be nil, in which case no
// thumbnails are rendered.
func NewDrawingHandler(drawings Drawings, q Enqueuer, defaultAge guardrails.AgeGroup) *DrawingHandler {
	return &DrawingHandler{drawings: drawings, queue: q, defaultAge: defaultAge}
}

type createDrawingRequest struct {
	Title    string                `json:"title"`
	AgeGroup string                `json:"age_group"`
	Vector   *render.VectorDrawing `json:"vector"`
}

// Create accepts either a multipart upload with an "image" file or a JSON
// body carrying a vector drawing.
func (h *DrawingHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, err := h.readCreate(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	d, err := h.drawings.Create(r.Context(), req)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	if h.queue != nil {
		_, err := h.queue.EnqueueThumbnailRender(r.Context(), queue.ThumbnailRenderPayload{
			DrawingID: d.ID.String(),
			OwnerID:   d.OwnerID.String(),
		})
		if err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Str("drawing_id", d.ID.String()).Msg("thumbnail not enqueued")
		}
	}

	writeJSON(w, http.StatusCreated, d)
}

func (h *DrawingHandler) readCreate(w http.ResponseWriter, r *http.Request) (drawing.CreateRequest, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		img, fields, err := readUpload(w, r)
		if err != nil {
			return drawing.CreateRequest{}, err
		}
		age, err := ageParam(fields["age_group"], h.defaultAge)
		if err != nil {
			return drawing.CreateRequest{}, err
		}
		return drawing.CreateRequest{Title: fields["title"], AgeGroup: age, Image: img}, nil
	}

	var body createDrawingRequest
	if err := decodeJSON(w, r, &body); err != nil {
		return drawing.CreateRequest{}, err
	}
	if body.Vector == nil {
		return drawing.CreateRequest{}, fmt.Errorf("vector drawing is required")
	}
	age, err := ageParam(body.AgeGroup, h.defaultAge)
	if err != nil {
		return drawing.CreateRequest{}, err
	}
	return drawing.CreateRequest{Title: body.Title, AgeGroup: age, Vector: body.Vector}, nil
}

// readUpload returns the "image" file of a multipart form and its plain
// text fields.
func readUpload(w http.ResponseWriter, r *http.Request) ([]byte, map[string]string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBody)
	if err := r.ParseMultipartForm(maxImageBody); err != nil {
		return nil, nil, fmt.Errorf("invalid multipart form: %w", err)
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		return nil, nil, fmt.Errorf("image file is required")
	}
	defer file.Close()

	img, err := io.ReadAll(file)
	if err != nil {
		return nil, nil, fmt.Errorf("read image: %w", err)
	}
	fields := map[string]string{}
	for k, v := range r.MultipartForm.Value {
		if len(v) > 0 {
			fields[k] = v[0]
		}
	}
	return img, fields, nil
}

func (h *DrawingHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.drawings.List(r.Context(), intQuery(r, "limit", 0), intQuery(r, "offset", 0))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"drawings": list})
}

func (h *DrawingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	d, err := h.drawings.Get(r.Context(), id)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *DrawingHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req drawing.UpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	d, err := h.drawings.Update(r.Context(), id, req)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *DrawingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.drawings.Delete(r.Context(), id); err != nil {
		respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
