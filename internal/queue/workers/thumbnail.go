package workers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/nikhilbhutani/sketchstories/internal/auth"
	"github.com/nikhilbhutani/sketchstories/internal/models"
	"github.com/nikhilbhutani/sketchstories/internal/queue"
	"github.com/nikhilbhutani/sketchstories/internal/render"
)

const thumbnailSize = 256

type Thumbnails interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Drawing, error)
	Image(ctx context.Context, d *models.Drawing) ([]byte, error)
	SaveThumbnail(ctx context.Context, d *models.Drawing, png []byte) error
}

type ThumbnailWorker struct {
	drawings Thumbnails
	log      zerolog.Logger
}

func NewThumbnailWorker(drawings Thumbnails, log zerolog.Logger) *ThumbnailWorker {
	return &ThumbnailWorker{drawings: drawings, log: log.With().Str("worker", queue.TypeThumbnailRender).Logger()}
}

func (w *ThumbnailWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p queue.ThumbnailRenderPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	drawingID, ownerID, err := parseIDs(p.DrawingID, p.OwnerID)
	if err != nil {
		return err
	}

	ctx = auth.WithAccountID(ctx, ownerID)
	d, err := w.drawings.Get(ctx, drawingID)
	if err != nil {
		return permanent(err)
	}
	img, err := w.drawings.Image(ctx, d)
	if err != nil {
		return err
	}
	thumb, err := render.Thumbnail(img, thumbnailSize)
	if err != nil {
		return fmt.Errorf("render thumbnail: %v: %w", err, asynq.SkipRetry)
	}
	if err := w.drawings.SaveThumbnail(ctx, d, thumb); err != nil {
		return err
	}

	w.log.Debug().Str("drawing_id", drawingID.String()).Int("bytes", len(thumb)).Msg("thumbnail stored")
	return nil
}
