package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/openmunicipal/civic-api/internal/models"
)

// FeedbackRepository persists citizen feedback. Feedback has no update or
// delete path; records are immutable after creation.
type FeedbackRepository struct {
	db *sqlx.DB
}

// NewFeedbackRepository creates a new instance of FeedbackRepository.
func NewFeedbackRepository(db *sqlx.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Create inserts a feedback record.
func (r *FeedbackRepository) Create(ctx context.Context, feedback *models.Feedback) error {
	if feedback.ID == "" {
		feedback.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	feedback.CreatedAt = now
	feedback.UpdatedAt = now

	const query = `INSERT INTO feedback (id, user_id, department_id, municipality_id, rating, comment, created_at, updated_at) VALUES (:id, :user_id, :department_id, :municipality_id, :rating, :comment, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, feedback); err != nil {
		return fmt.Errorf("create feedback: %w", err)
	}
	return nil
}

// ListByUser returns feedback submitted by a single citizen, newest first.
func (r *FeedbackRepository) ListByUser(ctx context.Context, userID string) ([]models.Feedback, error) {
	const query = `SELECT id, user_id, department_id, municipality_id, rating, comment, created_at, updated_at FROM feedback WHERE user_id = $1 ORDER BY created_at DESC`
	var items []models.Feedback
	if err := r.db.SelectContext(ctx, &items, query, userID); err != nil {
		return nil, fmt.Errorf("list feedback by user: %w", err)
	}
	return items, nil
}
