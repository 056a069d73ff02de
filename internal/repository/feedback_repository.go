package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/aquago/aquago-api/internal/models"
)

const feedbackColumns = `id, user_email, point_id, rating, comment, image_key, created_at`

// FeedbackRepository provides database access for point feedback.
type FeedbackRepository struct {
	db *sqlx.DB
}

// NewFeedbackRepository creates a new instance of FeedbackRepository.
func NewFeedbackRepository(db *sqlx.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Create inserts a feedback entry.
func (r *FeedbackRepository) Create(ctx context.Context, fb *models.Feedback) error {
	if fb.ID == "" {
		fb.ID = uuid.NewString()
	}
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO feedback (id, user_email, point_id, rating, comment, image_key, created_at) VALUES (:id, :user_email, :point_id, :rating, :comment, :image_key, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, fb); err != nil {
		return fmt.Errorf("create feedback: %w", err)
	}
	return nil
}

// List returns every feedback entry, newest first.
func (r *FeedbackRepository) List(ctx context.Context) ([]models.Feedback, error) {
	query := `SELECT ` + feedbackColumns + ` FROM feedback ORDER BY created_at DESC`
	var items []models.Feedback
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	return items, nil
}

// ListByPoint returns the feedback left on one point, newest first.
func (r *FeedbackRepository) ListByPoint(ctx context.Context, pointID string) ([]models.Feedback, error) {
	query := `SELECT ` + feedbackColumns + ` FROM feedback WHERE point_id = $1 ORDER BY created_at DESC`
	var items []models.Feedback
	if err := r.db.SelectContext(ctx, &items, query, pointID); err != nil {
		return nil, fmt.Errorf("list feedback by point: %w", err)
	}
	return items, nil
}

// DeleteByUserAndPoint removes the latest feedback email left on pointID
// and returns it. No match yields sql.ErrNoRows.
func (r *FeedbackRepository) DeleteByUserAndPoint(ctx context.Context, email, pointID string) (*models.Feedback, error) {
	query := `DELETE FROM feedback WHERE id = (
SELECT id FROM feedback WHERE user_email = $1 AND point_id = $2 ORDER BY created_at DESC LIMIT 1
) RETURNING ` + feedbackColumns
	var fb models.Feedback
	if err := r.db.GetContext(ctx, &fb, query, email, pointID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("delete feedback: %w", err)
	}
	return &fb, nil
}
