package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/astroconsult/consult-server-go/internal/model"
)

type TokenRepository interface {
	Create(ctx context.Context, tokenHash, mobile string, expiresAt time.Time) error
	FindValid(ctx context.Context, tokenHash string) (*model.AuthToken, error)
	DeleteByMobile(ctx context.Context, mobile string) error
	DeleteExpired(ctx context.Context) (int64, error)
	WithTx(tx *sqlx.Tx) TokenRepository
}

type tokenRepo struct {
	db sqlxDB
}

func NewTokenRepository(db *sqlx.DB) TokenRepository {
	return &tokenRepo{db: db}
}

func (r *tokenRepo) WithTx(tx *sqlx.Tx) TokenRepository {
	return &tokenRepo{db: tx}
}

func (r *tokenRepo) Create(ctx context.Context, tokenHash, mobile string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO auth_tokens (token_hash, mobile, expires_at)
		VALUES ($1, $2, $3)
	`, tokenHash, mobile, expiresAt)
	return err
}

func (r *tokenRepo) FindValid(ctx context.Context, tokenHash string) (*model.AuthToken, error) {
	var token model.AuthToken
	err := r.db.GetContext(ctx, &token, `
		SELECT * FROM auth_tokens
		WHERE token_hash = $1 AND expires_at > NOW()
	`, tokenHash)
	return HandleNotFound(&token, err)
}

func (r *tokenRepo) DeleteByMobile(ctx context.Context, mobile string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM auth_tokens WHERE mobile = $1`, mobile)
	return err
}

func (r *tokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM auth_tokens WHERE expires_at < NOW()`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
