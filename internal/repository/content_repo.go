package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"sessionhub-backend/internal/models"
)

type ContentRepo struct {
	pool *pgxpool.Pool
}

func NewContentRepo(pool *pgxpool.Pool) *ContentRepo {
	return &ContentRepo{pool: pool}
}

func (r *ContentRepo) Create(ctx context.Context, c *models.ContentRecord) error {
	c.ID = uuid.New()
	if c.Status == "" {
		c.Status = "pending"
	}

	assetsJSON, err := marshalOrEmptyArray(c.Assets)
	if err != nil {
		return fmt.Errorf("failed to marshal assets: %w", err)
	}
	presentersJSON, err := marshalOrEmptyArray(c.Presenters)
	if err != nil {
		return fmt.Errorf("failed to marshal presenters: %w", err)
	}

	query := `INSERT INTO content
		(id, title, session_id, status, tags, job_roles, areas_of_interest, presenters, assets,
		 presentation_slides_url, recap_slides_url, drive_link, video_youtube_url, processing_state)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		c.ID, c.Title, c.SessionID, c.Status, c.Tags, c.JobRoles, c.AreasOfInterest,
		presentersJSON, assetsJSON,
		c.PresentationSlidesURL, c.RecapSlidesURL, c.DriveLink, c.VideoYoutubeURL,
		c.ProcessingState,
	).Scan(&c.CreatedAt)
}

func (r *ContentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ContentRecord, error) {
	c := &models.ContentRecord{}
	var presentersJSON, assetsJSON []byte

	query := `SELECT id, title, session_id, status, tags, job_roles, areas_of_interest,
		presenters, assets, presentation_slides_url, recap_slides_url, drive_link,
		video_youtube_url, processing_state, created_at
		FROM content WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Title, &c.SessionID, &c.Status, &c.Tags, &c.JobRoles, &c.AreasOfInterest,
		&presentersJSON, &assetsJSON,
		&c.PresentationSlidesURL, &c.RecapSlidesURL, &c.DriveLink, &c.VideoYoutubeURL,
		&c.ProcessingState, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(presentersJSON, &c.Presenters); err != nil {
		return nil, fmt.Errorf("failed to unmarshal presenters for %s: %w", id, err)
	}
	if err := json.Unmarshal(assetsJSON, &c.Assets); err != nil {
		return nil, fmt.Errorf("failed to unmarshal assets for %s: %w", id, err)
	}
	return c, nil
}

func (r *ContentRepo) GetBySessionID(ctx context.Context, sessionID string) (*models.ContentRecord, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, "SELECT id FROM content WHERE session_id = $1", sessionID).Scan(&id)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// UpdateAssets rewrites the asset collection and the legacy scalar URL
// columns in one statement.
func (r *ContentRepo) UpdateAssets(ctx context.Context, c *models.ContentRecord) error {
	assetsJSON, err := marshalOrEmptyArray(c.Assets)
	if err != nil {
		return fmt.Errorf("failed to marshal assets: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`UPDATE content SET assets = $1, presentation_slides_url = $2, recap_slides_url = $3,
		 drive_link = $4, video_youtube_url = $5 WHERE id = $6`,
		assetsJSON, c.PresentationSlidesURL, c.RecapSlidesURL,
		c.DriveLink, c.VideoYoutubeURL, c.ID,
	)
	return err
}

func (r *ContentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.pool.Exec(ctx, "UPDATE content SET status = $1 WHERE id = $2", status, id)
	return err
}

func (r *ContentRepo) List(ctx context.Context, limit, offset int) ([]*models.ContentRecord, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM content").Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, title, session_id, status, tags, job_roles, areas_of_interest,
		 presenters, assets, presentation_slides_url, recap_slides_url, drive_link,
		 video_youtube_url, processing_state, created_at
		 FROM content ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var records []*models.ContentRecord
	for rows.Next() {
		c := &models.ContentRecord{}
		var presentersJSON, assetsJSON []byte
		err := rows.Scan(
			&c.ID, &c.Title, &c.SessionID, &c.Status, &c.Tags, &c.JobRoles, &c.AreasOfInterest,
			&presentersJSON, &assetsJSON,
			&c.PresentationSlidesURL, &c.RecapSlidesURL, &c.DriveLink, &c.VideoYoutubeURL,
			&c.ProcessingState, &c.CreatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		if err := json.Unmarshal(presentersJSON, &c.Presenters); err != nil {
			return nil, 0, err
		}
		if err := json.Unmarshal(assetsJSON, &c.Assets); err != nil {
			return nil, 0, err
		}
		records = append(records, c)
	}
	return records, total, nil
}

func (r *ContentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM content WHERE id = $1", id)
	return err
}

func marshalOrEmptyArray(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(data) == "null" {
		return []byte("[]"), nil
	}
	return data, nil
}
