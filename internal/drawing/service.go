// Package drawing stores children's drawings and the stories told about
// them.
package drawing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nikhilbhutani/sketchstories/internal/auth"
	"github.com/nikhilbhutani/sketchstories/internal/guardrails"
	"github.com/nikhilbhutani/sketchstories/internal/models"
	"github.com/nikhilbhutani/sketchstories/internal/narration"
	"github.com/nikhilbhutani/sketchstories/internal/render"
	"github.com/nikhilbhutani/sketchstories/internal/storage"
	"github.com/nikhilbhutani/sketchstories/internal/storygen"
	"github.com/nikhilbhutani/sketchstories/internal/vision"
)

var (
	ErrNoOwner      = errors.New("no account in context")
	ErrInvalidImage = errors.New("invalid drawing image")
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type Service struct {
	repo  Repository
	store storage.Storage
	log   zerolog.Logger
}

func NewService(repo Repository, store storage.Storage, log zerolog.Logger) *Service {
	return &Service{
		repo:  repo,
		store: store,
		log:   log.With().Str("component", "drawing").Logger(),
	}
}

// CreateRequest carries either raster image bytes or a vector drawing.
type CreateRequest struct {
	Title    string
	AgeGroup guardrails.AgeGroup
	Image    []byte
	Vector   *render.VectorDrawing
}

type UpdateRequest struct {
	Title    *string              `json:"title,omitempty"`
	AgeGroup *guardrails.AgeGroup `json:"age_group,omitempty"`
}

func owner(ctx context.Context) (uuid.UUID, error) {
	id := auth.AccountIDFromContext(ctx)
	if id == uuid.Nil {
		return uuid.Nil, ErrNoOwner
	}
	return id, nil
}

func imageKey(owner, id uuid.UUID, format string) string {
	return fmt.Sprintf("%s/%s.%s", owner, id, format)
}

func thumbnailKey(d *models.Drawing) string {
	return fmt.Sprintf("%s/%s_thumb.png", d.OwnerID, d.ID)
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Drawing, error) {
	ownerID, err := owner(ctx)
	if err != nil {
		return nil, err
	}
	if !req.AgeGroup.Valid() {
		return nil, fmt.Errorf("%w: %q", guardrails.ErrUnknownAgeGroup, req.AgeGroup.String())
	}

	img := req.Image
	if req.Vector != nil {
		if img, err = render.Rasterize(*req.Vector); err != nil {
			return nil, err
		}
	}
	_, format, err := vision.DecodeImage(img)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	req.Image, req.Title = img, truncate(req.Title, 200)
	return s.insert(ctx, ownerID, req, format)
}

func (s *Service) insert(ctx context.Context, ownerID uuid.UUID, req CreateRequest, format string) (*models.Drawing, error) {
	d := &models.Drawing{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Title:     req.Title,
		AgeGroup:  req.AgeGroup.String(),
		ImageType: "image/" + format,
		Status:    models.DrawingStatusNew,
	}
	d.ImagePath = imageKey(ownerID, d.ID, format)

	if err := s.store.Put(ctx, d.ImagePath, req.Image, d.ImageType); err != nil {
		return nil, fmt.Errorf("upload drawing: %w", err)
	}
	if err := s.repo.CreateDrawing(ctx, d); err != nil {
		if derr := s.store.Delete(ctx, d.ImagePath); derr != nil {
			s.log.Warn().Err(derr).Str("path", d.ImagePath).Msg("orphaned drawing image")
		}
		return nil, err
	}

	s.log.Info().Str("drawing_id", d.ID.String()).Str("type", d.ImageType).Msg("drawing created")
	return d, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Drawing, error) {
	ownerID, err := owner(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.GetDrawing(ctx, ownerID, id)
}

// List pages through the account's drawings, newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]models.Drawing, error) {
	ownerID, err := owner(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	limit = min(limit, maxPageSize)
	return s.repo.ListDrawings(ctx, ownerID, limit, max(offset, 0))
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*models.Drawing, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		d.Title = truncate(*req.Title, 200)
	}
	if req.AgeGroup != nil {
		if !req.AgeGroup.Valid() {
			return nil, fmt.Errorf("%w: %q", guardrails.ErrUnknownAgeGroup, req.AgeGroup.String())
		}
		d.AgeGroup = req.AgeGroup.String()
	}
	if err := s.repo.UpdateDrawing(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Delete removes the drawing, its stories and every stored object that
// belongs to them. Storage failures are logged, not returned.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	d, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	stories, err := s.repo.ListStories(ctx, d.OwnerID, d.ID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteDrawing(ctx, d.OwnerID, d.ID); err != nil {
		return err
	}

	keys := []string{d.ImagePath}
	if d.ThumbnailURL != "" {
		keys = append(keys, thumbnailKey(d))
	}
	for _, st := range stories {
		if st.VoiceNarration != "" {
			keys = append(keys, narration.Key(st.ID.String()))
		}
	}
	if err := s.store.Delete(ctx, keys...); err != nil {
		s.log.Warn().Err(err).Strs("keys", keys).Msg("stored objects not deleted")
	}
	return nil
}

// Image returns the stored raster image of a drawing.
func (s *Service) Image(ctx context.Context, d *models.Drawing) ([]byte, error) {
	data, err := s.store.Get(ctx, d.ImagePath)
	if err != nil {
		return nil, fmt.Errorf("load drawing image: %w", err)
	}
	return data, nil
}

// Analysis decodes the stored analysis, or returns nil when the drawing
// has not been analysed yet.
func (s *Service) Analysis(d *models.Drawing) (*vision.Analysis, error) {
	if len(d.Analysis) == 0 || string(d.Analysis) == "null" {
		return nil, nil
	}
	var a vision.Analysis
	if err := json.Unmarshal(d.Analysis, &a); err != nil {
		return nil, fmt.Errorf("decode stored analysis: %w", err)
	}
	return &a, nil
}

func (s *Service) SaveAnalysis(ctx context.Context, d *models.Drawing, a *vision.Analysis) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	d.Analysis = data
	d.Status = models.DrawingStatusAnalyzed
	return s.repo.UpdateDrawing(ctx, d)
}

func (s *Service) MarkFailed(ctx context.Context, d *models.Drawing) error {
	d.Status = models.DrawingStatusFailed
	return s.repo.UpdateDrawing(ctx, d)
}

// SaveThumbnail stores a PNG thumbnail and records its public URL.
func (s *Service) SaveThumbnail(ctx context.Context, d *models.Drawing, png []byte) error {
	key := thumbnailKey(d)
	if err := s.store.Put(ctx, key, png, "image/png"); err != nil {
		return fmt.Errorf("upload thumbnail: %w", err)
	}
	d.ThumbnailURL = s.store.URL(key)
	return s.repo.UpdateDrawing(ctx, d)
}

// AddStory records a generated story against its drawing.
func (s *Service) AddStory(ctx context.Context, d *models.Drawing, age guardrails.AgeGroup, res *storygen.Result) (*models.Story, error) {
	content, err := json.Marshal(res.Story)
	if err != nil {
		return nil, fmt.Errorf("encode story: %w", err)
	}
	id, err := uuid.Parse(res.StoryID)
	if err != nil {
		id = uuid.New()
	}

	st := &models.Story{
		ID:             id,
		DrawingID:      d.ID,
		OwnerID:        d.OwnerID,
		AgeGroup:       age.String(),
		Content:        content,
		IsSafe:         res.IsSafe,
		Issues:         append([]string{}, res.Issues...),
		Generator:      res.Generator,
		VoiceNarration: res.NarrationURL,
	}
	if err := s.repo.CreateStory(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *Service) ListStories(ctx context.Context, drawingID uuid.UUID) ([]models.Story, error) {
	d, err := s.Get(ctx, drawingID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListStories(ctx, d.OwnerID, d.ID)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
