package handlers

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/sketchstories/internal/drawing"
	"github.com/nikhilbhutani/sketchstories/internal/guardrails"
	"github.com/nikhilbhutani/sketchstories/internal/models"
	"github.com/nikhilbhutani/sketchstories/internal/storygen"
)

func drawingRoutes(h *DrawingHandler, s *StoryHandler) func(r chi.Router) {
	return func(r chi.Router) {
		r.Post("/drawings", h.Create)
		r.Get("/drawings", h.List)
		r.Get("/drawings/{id}", h.Get)
		r.Patch("/drawings/{id}", h.Update)
		r.Delete("/drawings/{id}", h.Delete)
		if s != nil {
			r.Post("/drawings/{id}/stories", s.Create)
			r.Get("/drawings/{id}/stories", s.List)
		}
	}
}

func TestCreateDrawingMultipart(t *testing.T) {
	store := newFakeDrawings()
	q := &fakeQueue{}
	h := NewDrawingHandler(store, q, guardrails.AgeEarly)
	img := pngBytes(t)

	rec := serve(t, drawingRoutes(h, nil), multipartRequest(t, "/drawings", img, map[string]string{
		"title":     "My cat",
		"age_group": "3-5",
	}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var d models.Drawing
	decodeBody(t, rec, &d)
	assert.Equal(t, "My cat", d.Title)
	assert.Equal(t, "3-5", d.AgeGroup)

	require.Len(t, store.created, 1)
	assert.Equal(t, img, store.created[0].Image)
	assert.Nil(t, store.created[0].Vector)
	require.Len(t, q.thumbnails, 1)
	assert.Equal(t, d.ID.String(), q.thumbnails[0].DrawingID)
}

func TestCreateDrawingVector(t *testing.T) {
	store := newFakeDrawings()
	h := NewDrawingHandler(store, nil, guardrails.AgeEarly)

	body := `{"title":"Sun","vector":{"width":100,"height":100,"paths":[{"tool":"pen","color":"#ffcc00","strokeWidth":4,"points":[{"x":1,"y":1},{"x":50,"y":50}]}]}}`
	rec := serve(t, drawingRoutes(h, nil), jsonRequest(http.MethodPost, "/drawings", body))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	require.Len(t, store.created, 1)
	req := store.created[0]
	assert.Equal(t, guardrails.AgeEarly, req.AgeGroup, "default age applies")
	require.NotNil(t, req.Vector)
	assert.Len(t, req.Vector.Paths, 1)
}

func TestCreateDrawingRejects(t *testing.T) {
	tests := []struct {
		name string
		req  func(t *testing.T) *http.Request
		want int
	}{
		{"unknown age", func(t *testing.T) *http.Request {
			return multipartRequest(t, "/drawings", pngBytes(t), map[string]string{"age_group": "13-17"})
		}, http.StatusBadRequest},
		{"missing file", func(t *testing.T) *http.Request {
			return multipartRequest(t, "/drawings", nil, map[string]string{"title": "x"})
		}, http.StatusBadRequest},
		{"missing vector", func(t *testing.T) *http.Request {
			return jsonRequest(http.MethodPost, "/drawings", `{"title":"x"}`)
		}, http.StatusBadRequest},
		{"bad json", func(t *testing.T) *http.Request {
			return jsonRequest(http.MethodPost, "/drawings", `{`)
		}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeDrawings()
			rec := serve(t, drawingRoutes(NewDrawingHandler(store, nil, guardrails.AgeEarly), nil), tt.req(t))
			assert.Equal(t, tt.want, rec.Code)
			assert.Empty(t, store.created)
		})
	}
}

func TestCreateDrawingServiceErrors(t *testing.T) {
	store := newFakeDrawings()
	store.createFn = func(drawing.CreateRequest) error { return drawing.ErrInvalidImage }
	h := NewDrawingHandler(store, nil, guardrails.AgeEarly)

	rec := serve(t, drawingRoutes(h, nil), multipartRequest(t, "/drawings", []byte("not an image"), nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	store.createFn = func(drawing.CreateRequest) error { return errors.New("connection reset") }
	rec = serve(t, drawingRoutes(h, nil), multipartRequest(t, "/drawings", pngBytes(t), nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}

func TestDrawingCRUD(t *testing.T) {
	store := newFakeDrawings()
	d := store.add("6-8")
	routes := drawingRoutes(NewDrawingHandler(store, nil, guardrails.AgeEarly), nil)

	rec := serve(t, routes, jsonRequest(http.MethodGet, "/drawings/"+d.ID.String(), ""))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, routes, jsonRequest(http.MethodGet, "/drawings/not-a-uuid", ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, routes, jsonRequest(http.MethodGet, "/drawings/"+uuid.NewString(), ""))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(t, routes, jsonRequest(http.MethodPatch, "/drawings/"+d.ID.String(), `{"title":"Renamed"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	var updated models.Drawing
	decodeBody(t, rec, &updated)
	assert.Equal(t, "Renamed", updated.Title)

	rec = serve(t, routes, jsonRequest(http.MethodGet, "/drawings?limit=5", ""))
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Drawings []models.Drawing `json:"drawings"`
	}
	decodeBody(t, rec, &list)
	assert.Len(t, list.Drawings, 1)

	rec = serve(t, routes, jsonRequest(http.MethodDelete, "/drawings/"+d.ID.String(), ""))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = serve(t, routes, jsonRequest(http.MethodDelete, "/drawings/"+d.ID.String(), ""))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateStorySync(t *testing.T) {
	store := newFakeDrawings()
	d := store.add("6-8")
	teller := &fakeTeller{}
	routes := drawingRoutes(NewDrawingHandler(store, nil, guardrails.AgeEarly), NewStoryHandler(store, teller, nil))

	rec := serve(t, routes, jsonRequest(http.MethodPost, "/drawings/"+d.ID.String()+"/stories", `{"age_group":"9-12","idea":"a rocket","style":"funny"}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, drawing.TellRequest{AgeGroup: guardrails.AgeMiddle, Idea: "a rocket", Style: "funny"}, teller.got)

	// an empty body keeps the drawing's own age group
	req := jsonRequest(http.MethodPost, "/drawings/"+d.ID.String()+"/stories", "")
	rec = serve(t, routes, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, drawing.TellRequest{}, teller.got)

	rec = serve(t, routes, jsonRequest(http.MethodPost, "/drawings/"+d.ID.String()+"/stories", `{"age_group":"adult"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	teller.err = drawing.ErrNotFound
	rec = serve(t, routes, jsonRequest(http.MethodPost, "/drawings/"+d.ID.String()+"/stories", `{}`))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateStoryAsync(t *testing.T) {
	store := newFakeDrawings()
	d := store.add("6-8")
	q := &fakeQueue{}
	teller := &fakeTeller{}
	routes := drawingRoutes(NewDrawingHandler(store, q, guardrails.AgeEarly), NewStoryHandler(store, teller, q))

	rec := serve(t, routes, jsonRequest(http.MethodPost, "/drawings/"+d.ID.String()+"/stories?async=true", `{"age_group":"3-5","idea":"a dragon friend"}`))
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"task_id":"task-1","status":"queued"}`, rec.Body.String())

	require.Len(t, q.stories, 1)
	p := q.stories[0]
	assert.Equal(t, d.ID.String(), p.DrawingID)
	assert.Equal(t, testOwner.String(), p.OwnerID)
	assert.Equal(t, "3-5", p.AgeGroup)
	assert.Equal(t, "a dragon friend", p.Idea)
	assert.Equal(t, drawing.TellRequest{}, teller.got, "nothing told synchronously")

	rec = serve(t, routes, jsonRequest(http.MethodPost, "/drawings/"+uuid.NewString()+"/stories?async=true", `{}`))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Len(t, q.stories, 1)
}

func TestCreateStoryAsyncWithoutQueue(t *testing.T) {
	store := newFakeDrawings()
	d := store.add("6-8")
	routes := drawingRoutes(NewDrawingHandler(store, nil, guardrails.AgeEarly), NewStoryHandler(store, &fakeTeller{}, nil))

	rec := serve(t, routes, jsonRequest(http.MethodPost, "/drawings/"+d.ID.String()+"/stories?async=true", `{}`))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestListStories(t *testing.T) {
	store := newFakeDrawings()
	d := store.add("6-8")
	store.stories = []models.Story{{ID: uuid.New(), DrawingID: d.ID, IsSafe: true}}
	routes := drawingRoutes(NewDrawingHandler(store, nil, guardrails.AgeEarly), NewStoryHandler(store, &fakeTeller{}, nil))

	rec := serve(t, routes, jsonRequest(http.MethodGet, "/drawings/"+d.ID.String()+"/stories", ""))
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Stories []models.Story `json:"stories"`
	}
	decodeBody(t, rec, &body)
	assert.Len(t, body.Stories, 1)
}

func processRoutes(h *ProcessHandler) func(r chi.Router) {
	return func(r chi.Router) {
		r.Post("/process-drawing", h.ProcessDrawing)
		r.Post("/generate-story", h.GenerateStory)
	}
}

func TestProcessDrawing(t *testing.T) {
	analyzer := &fakeAnalyzer{}
	routes := processRoutes(NewProcessHandler(analyzer, &fakeStories{}, guardrails.AgeEarly))
	img := pngBytes(t)

	rec := serve(t, routes, multipartRequest(t, "/process-drawing", img, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, img, analyzer.img)
	assert.Contains(t, rec.Body.String(), `"scene_type":"nature"`)

	rec = serve(t, routes, jsonRequest(http.MethodPost, "/process-drawing", `{"vector":{"width":64,"height":64,"paths":[]}}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, strings.HasPrefix(string(analyzer.img), "\x89PNG"), "vector drawings are rasterized")

	rec = serve(t, routes, jsonRequest(http.MethodPost, "/process-drawing", `{"vector":{"width":-1,"height":64}}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, routes, jsonRequest(http.MethodPost, "/process-drawing", `{}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateStory(t *testing.T) {
	stories := &fakeStories{}
	routes := processRoutes(NewProcessHandler(&fakeAnalyzer{}, stories, guardrails.AgeEarly))

	rec := serve(t, routes, jsonRequest(http.MethodPost, "/generate-story", `{"analysis":{"scene":{"scene_type":"indoor"}},"age_group":"3-5","idea":"a teddy picnic"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res storygen.Result
	decodeBody(t, rec, &res)
	assert.True(t, res.IsSafe)
	assert.Equal(t, guardrails.AgePreschool, stories.got.AgeGroup)
	assert.Equal(t, "a teddy picnic", stories.got.Idea)
	require.NotNil(t, stories.got.Analysis)
	assert.Equal(t, "indoor", stories.got.Analysis.Scene.Type)

	rec = serve(t, routes, jsonRequest(http.MethodPost, "/generate-story", `{"age_group":"3-5"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, routes, jsonRequest(http.MethodPost, "/generate-story", `{"analysis":{},"age_group":"toddler"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown age group")
}
