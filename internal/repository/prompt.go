package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/astroconsult/consult-server-go/internal/model"
)

type PromptRepository interface {
	FindAll(ctx context.Context) ([]model.Prompt, error)
	FindByName(ctx context.Context, name string) (*model.Prompt, error)
	Upsert(ctx context.Context, name, content string) (*model.Prompt, error)
}

type promptRepo struct {
	db sqlxDB
}

func NewPromptRepository(db *sqlx.DB) PromptRepository {
	return &promptRepo{db: db}
}

func (r *promptRepo) FindAll(ctx context.Context) ([]model.Prompt, error) {
	var prompts []model.Prompt
	err := r.db.SelectContext(ctx, &prompts, `SELECT * FROM prompts ORDER BY name`)
	return HandleList(prompts, err)
}

func (r *promptRepo) FindByName(ctx context.Context, name string) (*model.Prompt, error) {
	var prompt model.Prompt
	err := r.db.GetContext(ctx, &prompt, `SELECT * FROM prompts WHERE name = $1`, name)
	return HandleNotFound(&prompt, err)
}

func (r *promptRepo) Upsert(ctx context.Context, name, content string) (*model.Prompt, error) {
	var prompt model.Prompt
	err := r.db.GetContext(ctx, &prompt, `
		INSERT INTO prompts (name, content) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET content = EXCLUDED.content, updated_at = NOW()
		RETURNING *
	`, name, content)
	if err != nil {
		return nil, err
	}
	return &prompt, nil
}
