package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/astroconsult/consult-server-go/internal/model"
)

type UserRepository interface {
	FindByMobile(ctx context.Context, mobile string) (*model.User, error)
	// EnsureExists inserts a user stub for mobile if none exists and returns the row.
	EnsureExists(ctx context.Context, mobile string) (*model.User, error)
	CompleteProfile(ctx context.Context, mobile, name, email string) (*model.User, error)
	UpdateStatus(ctx context.Context, mobile string, status model.UserStatus) error
	FindByStatus(ctx context.Context, status model.UserStatus, limit int) ([]model.User, error)
	FindAll(ctx context.Context, limit, offset int) ([]model.UserSummary, error)
	Count(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context, status model.UserStatus) (int, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) UserRepository
}

type userRepo struct {
	db sqlxDB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) WithTx(tx *sqlx.Tx) UserRepository {
	return &userRepo{db: tx}
}

func (r *userRepo) FindByMobile(ctx context.Context, mobile string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		SELECT * FROM users WHERE mobile = $1
	`, mobile)
	return HandleNotFound(&user, err)
}

func (r *userRepo) EnsureExists(ctx context.Context, mobile string) (*model.User, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (mobile) VALUES ($1)
		ON CONFLICT (mobile) DO NOTHING
	`, mobile)
	if err != nil {
		return nil, err
	}
	var user model.User
	if err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE mobile = $1`, mobile); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) CompleteProfile(ctx context.Context, mobile, name, email string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		UPDATE users SET
			name = $2,
			email = $3,
			status = $4,
			profile_complete = TRUE,
			updated_at = $5
		WHERE mobile = $1
		RETURNING *
	`, mobile, name, email, model.UserStatusProcessing, time.Now())
	return HandleNotFound(&user, err)
}

func (r *userRepo) UpdateStatus(ctx context.Context, mobile string, status model.UserStatus) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET status = $2, updated_at = $3 WHERE mobile = $1
	`, mobile, status, time.Now())
	return err
}

func (r *userRepo) FindByStatus(ctx context.Context, status model.UserStatus, limit int) ([]model.User, error) {
	var users []model.User
	err := r.db.SelectContext(ctx, &users, `
		SELECT * FROM users
		WHERE status = $1
		ORDER BY updated_at ASC
		LIMIT $2
	`, status, limit)
	return HandleList(users, err)
}

func (r *userRepo) FindAll(ctx context.Context, limit, offset int) ([]model.UserSummary, error) {
	var users []model.UserSummary
	err := r.db.SelectContext(ctx, &users, `
		SELECT u.*,
			COALESCE(w.balance, 0) AS balance,
			(SELECT COUNT(*) FROM chat_sessions s WHERE s.mobile = u.mobile) AS session_count
		FROM users u
		LEFT JOIN wallets w ON w.mobile = u.mobile
		ORDER BY u.created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	return HandleList(users, err)
}

func (r *userRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users`)
	return count, err
}

func (r *userRepo) CountByStatus(ctx context.Context, status model.UserStatus) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users WHERE status = $1`, status)
	return count, err
}
