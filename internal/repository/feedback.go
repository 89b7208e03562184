package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/astroconsult/consult-server-go/internal/model"
)

type FeedbackRepository interface {
	// Upsert stores feedback for a session, replacing any earlier submission.
	Upsert(ctx context.Context, fb model.Feedback) (*model.Feedback, error)
	FindByMobile(ctx context.Context, mobile string) ([]model.Feedback, error)
	AverageRating(ctx context.Context) (float64, error)
}

type feedbackRepo struct {
	db sqlxDB
}

func NewFeedbackRepository(db *sqlx.DB) FeedbackRepository {
	return &feedbackRepo{db: db}
}

func (r *feedbackRepo) Upsert(ctx context.Context, fb model.Feedback) (*model.Feedback, error) {
	var saved model.Feedback
	err := r.db.GetContext(ctx, &saved, `
		INSERT INTO feedback (session_id, mobile, rating, comment)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_id) DO UPDATE SET
			rating = EXCLUDED.rating,
			comment = EXCLUDED.comment,
			updated_at = NOW()
		RETURNING *
	`, fb.SessionID, fb.Mobile, fb.Rating, fb.Comment)
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *feedbackRepo) FindByMobile(ctx context.Context, mobile string) ([]model.Feedback, error) {
	var items []model.Feedback
	err := r.db.SelectContext(ctx, &items, `
		SELECT * FROM feedback WHERE mobile = $1 ORDER BY created_at DESC
	`, mobile)
	return HandleList(items, err)
}

func (r *feedbackRepo) AverageRating(ctx context.Context) (float64, error) {
	var avg float64
	err := r.db.GetContext(ctx, &avg, `SELECT COALESCE(AVG(rating), 0) FROM feedback`)
	return avg, err
}
