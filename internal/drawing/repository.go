package drawing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nikhilbhutani/sketchstories/internal/models"
)

// ErrNotFound is returned for rows that do not exist or belong to
// another account.
var ErrNotFound = errors.New("not found")

// Repository persists drawings and their stories. Every read and write is
// scoped by owner.
type Repository interface {
	CreateDrawing(ctx context.Context, d *models.Drawing) error
	GetDrawing(ctx context.Context, owner, id uuid.UUID) (*models.Drawing, error)
	ListDrawings(ctx context.Context, owner uuid.UUID, limit, offset int) ([]models.Drawing, error)
	UpdateDrawing(ctx context.Context, d *models.Drawing) error
	DeleteDrawing(ctx context.Context, owner, id uuid.UUID) error
	CreateStory(ctx context.Context, s *models.Story) error
	ListStories(ctx context.Context, owner, drawingID uuid.UUID) ([]models.Story, error)
}

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const drawingColumns = `id, owner_id, title, age_group, image_path, image_type, thumbnail_url, status, analysis, created_at, updated_at`

func scanDrawing(row pgx.Row) (*models.Drawing, error) {
	var d models.Drawing
	err := row.Scan(&d.ID, &d.OwnerID, &d.Title, &d.AgeGroup, &d.ImagePath, &d.ImageType,
		&d.ThumbnailURL, &d.Status, &d.Analysis, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *PostgresRepository) CreateDrawing(ctx context.Context, d *models.Drawing) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO drawings (id, owner_id, title, age_group, image_path, image_type, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at, updated_at`,
		d.ID, d.OwnerID, d.Title, d.AgeGroup, d.ImagePath, d.ImageType, d.Status,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert drawing: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetDrawing(ctx context.Context, owner, id uuid.UUID) (*models.Drawing, error) {
	d, err := scanDrawing(r.db.QueryRow(ctx,
		`SELECT `+drawingColumns+` FROM drawings WHERE id = $1 AND owner_id = $2`, id, owner))
	if err != nil {
		return nil, fmt.Errorf("get drawing: %w", err)
	}
	return d, nil
}

func (r *PostgresRepository) ListDrawings(ctx context.Context, owner uuid.UUID, limit, offset int) ([]models.Drawing, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+drawingColumns+` FROM drawings WHERE owner_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		owner, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list drawings: %w", err)
	}
	defer rows.Close()

	drawings := []models.Drawing{}
	for rows.Next() {
		d, err := scanDrawing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan drawing: %w", err)
		}
		drawings = append(drawings, *d)
	}
	return drawings, rows.Err()
}

func (r *PostgresRepository) UpdateDrawing(ctx context.Context, d *models.Drawing) error {
	err := r.db.QueryRow(ctx,
		`UPDATE drawings
		 SET title = $3, age_group = $4, thumbnail_url = $5, status = $6, analysis = $7, updated_at = now()
		 WHERE id = $1 AND owner_id = $2
		 RETURNING updated_at`,
		d.ID, d.OwnerID, d.Title, d.AgeGroup, d.ThumbnailURL, d.Status, d.Analysis,
	).Scan(&d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("update drawing: %w", ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update drawing: %w", err)
	}
	return nil
}

// DeleteDrawing also removes the drawing's stories through the foreign
// key cascade.
func (r *PostgresRepository) DeleteDrawing(ctx context.Context, owner, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM drawings WHERE id = $1 AND owner_id = $2`, id, owner)
	if err != nil {
		return fmt.Errorf("delete drawing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete drawing: %w", ErrNotFound)
	}
	return nil
}

func (r *PostgresRepository) CreateStory(ctx context.Context, s *models.Story) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO stories (id, drawing_id, owner_id, age_group, content, is_safe, issues, generator, voice_narration)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING created_at`,
		s.ID, s.DrawingID, s.OwnerID, s.AgeGroup, s.Content, s.IsSafe, s.Issues, s.Generator, s.VoiceNarration,
	).Scan(&s.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert story: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListStories(ctx context.Context, owner, drawingID uuid.UUID) ([]models.Story, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, drawing_id, owner_id, age_group, content, is_safe, issues, generator, voice_narration, created_at
		 FROM stories WHERE drawing_id = $1 AND owner_id = $2 ORDER BY created_at DESC`,
		drawingID, owner,
	)
	if err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	defer rows.Close()

	stories := []models.Story{}
	for rows.Next() {
		var s models.Story
		if err := rows.Scan(&s.ID, &s.DrawingID, &s.OwnerID, &s.AgeGroup, &s.Content, &s.IsSafe,
			&s.Issues, &s.Generator, &s.VoiceNarration, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan story: %w", err)
		}
		stories = append(stories, s)
	}
	return stories, rows.Err()
}
