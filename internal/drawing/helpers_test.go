package drawing

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/sketchstories/internal/models"
	"github.com/nikhilbhutani/sketchstories/internal/storage"
)

type memRepo struct {
	mu        sync.Mutex
	drawings  map[uuid.UUID]models.Drawing
	stories   []models.Story
	lastLimit int
	createErr error
}

func newMemRepo() *memRepo {
	return &memRepo{drawings: map[uuid.UUID]models.Drawing{}}
}

func (r *memRepo) CreateDrawing(_ context.Context, d *models.Drawing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	d.CreatedAt = time.Now().Add(time.Duration(len(r.drawings)) * time.Second)
	d.UpdatedAt = d.CreatedAt
	r.drawings[d.ID] = *d
	return nil
}

func (r *memRepo) GetDrawing(_ context.Context, owner, id uuid.UUID) (*models.Drawing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.drawings[id]
	if !ok || d.OwnerID != owner {
		return nil, ErrNotFound
	}
	return &d, nil
}

func (r *memRepo) ListDrawings(_ context.Context, owner uuid.UUID, limit, offset int) ([]models.Drawing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastLimit = limit
	out := []models.Drawing{}
	for _, d := range r.drawings {
		if d.OwnerID == owner {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return []models.Drawing{}, nil
	}
	return out[offset:min(len(out), offset+limit)], nil
}

func (r *memRepo) UpdateDrawing(_ context.Context, d *models.Drawing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.drawings[d.ID]
	if !ok || old.OwnerID != d.OwnerID {
		return ErrNotFound
	}
	r.drawings[d.ID] = *d
	return nil
}

func (r *memRepo) DeleteDrawing(_ context.Context, owner, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.drawings[id]
	if !ok || d.OwnerID != owner {
		return ErrNotFound
	}
	delete(r.drawings, id)
	kept := r.stories[:0]
	for _, s := range r.stories {
		if s.DrawingID != id {
			kept = append(kept, s)
		}
	}
	r.stories = kept
	return nil
}

func (r *memRepo) CreateStory(_ context.Context, s *models.Story) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.CreatedAt = time.Now()
	r.stories = append(r.stories, *s)
	return nil
}

func (r *memRepo) ListStories(_ context.Context, owner, drawingID uuid.UUID) ([]models.Story, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Story{}
	for _, s := range r.stories {
		if s.DrawingID == drawingID && s.OwnerID == owner {
			out = append(out, s)
		}
	}
	return out, nil
}

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (s *memStore) Put(_ context.Context, key string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	s.types[key] = contentType
	return nil
}

func (s *memStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return data, nil
}

func (s *memStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.objects, k)
	}
	return nil
}

func (s *memStore) URL(key string) string { return "https://cdn.test/" + key }

func (s *memStore) keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.objects))
	for k := range s.objects {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.Set(4, 4, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
