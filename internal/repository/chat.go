package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/astroconsult/consult-server-go/internal/model"
)

type ChatRepository interface {
	FindSession(ctx context.Context, sessionID string) (*model.ChatSession, error)
	// EnsureSession creates the session on first use. An existing session
	// belonging to the same mobile is returned unchanged.
	EnsureSession(ctx context.Context, sessionID, mobile, topic string) (*model.ChatSession, error)
	AddMessage(ctx context.Context, msg model.ChatMessage) (*model.ChatMessage, error)
	FindMessages(ctx context.Context, sessionID string) ([]model.ChatMessage, error)
	FindSessionsByMobile(ctx context.Context, mobile string, limit int) ([]model.ChatSession, error)
	MarkSummarized(ctx context.Context, sessionID, summary string) error
	CountSessions(ctx context.Context) (int, error)
	CountMessages(ctx context.Context) (int, error)
	WithTx(tx *sqlx.Tx) ChatRepository
}

type chatRepo struct {
	db sqlxDB
}

func NewChatRepository(db *sqlx.DB) ChatRepository {
	return &chatRepo{db: db}
}

func (r *chatRepo) WithTx(tx *sqlx.Tx) ChatRepository {
	return &chatRepo{db: tx}
}

func (r *chatRepo) FindSession(ctx context.Context, sessionID string) (*model.ChatSession, error) {
	var session model.ChatSession
	err := r.db.GetContext(ctx, &session, `
		SELECT * FROM chat_sessions WHERE session_id = $1
	`, sessionID)
	return HandleNotFound(&session, err)
}

func (r *chatRepo) EnsureSession(ctx context.Context, sessionID, mobile, topic string) (*model.ChatSession, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO chat_sessions (session_id, mobile, topic)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_id) DO NOTHING
	`, sessionID, mobile, topic)
	if err != nil {
		return nil, err
	}
	var session model.ChatSession
	if err := r.db.GetContext(ctx, &session, `SELECT * FROM chat_sessions WHERE session_id = $1`, sessionID); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *chatRepo) AddMessage(ctx context.Context, msg model.ChatMessage) (*model.ChatMessage, error) {
	var created model.ChatMessage
	err := r.db.GetContext(ctx, &created, `
		INSERT INTO chat_messages (session_id, role, assistant, content, amount)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *
	`, msg.SessionID, msg.Role, msg.Assistant, msg.Content, msg.Amount)
	if err != nil {
		return nil, err
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE chat_sessions SET updated_at = $2 WHERE session_id = $1
	`, msg.SessionID, time.Now())
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *chatRepo) FindMessages(ctx context.Context, sessionID string) ([]model.ChatMessage, error) {
	var messages []model.ChatMessage
	err := r.db.SelectContext(ctx, &messages, `
		SELECT * FROM chat_messages
		WHERE session_id = $1
		ORDER BY id ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *chatRepo) FindSessionsByMobile(ctx context.Context, mobile string, limit int) ([]model.ChatSession, error) {
	var sessions []model.ChatSession
	err := r.db.SelectContext(ctx, &sessions, `
		SELECT * FROM chat_sessions
		WHERE mobile = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, mobile, limit)
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *chatRepo) MarkSummarized(ctx context.Context, sessionID, summary string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE chat_sessions SET
			status = $2,
			summary = $3,
			updated_at = $4
		WHERE session_id = $1
	`, sessionID, model.SessionStatusSummarized, summary, time.Now())
	return err
}

func (r *chatRepo) CountSessions(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM chat_sessions`)
	return count, err
}

func (r *chatRepo) CountMessages(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM chat_messages`)
	return count, err
}
