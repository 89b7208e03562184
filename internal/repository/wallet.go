package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/astroconsult/consult-server-go/internal/model"
)

type WalletRepository interface {
	Balance(ctx context.Context, mobile string) (float64, error)
	Credit(ctx context.Context, mobile string, amount float64) (float64, error)
	// Debit subtracts amount only when the balance covers it. ok is false
	// and nothing changes otherwise.
	Debit(ctx context.Context, mobile string, amount float64) (balance float64, ok bool, err error)
	AddTransaction(ctx context.Context, params model.CreateTransactionParams) (*model.WalletTransaction, error)
	History(ctx context.Context, mobile string, limit int) ([]model.WalletTransaction, error)
	TotalCredits(ctx context.Context) (float64, error)
	WithTx(tx *sqlx.Tx) WalletRepository
}

type walletRepo struct {
	db sqlxDB
}

func NewWalletRepository(db *sqlx.DB) WalletRepository {
	return &walletRepo{db: db}
}

func (r *walletRepo) WithTx(tx *sqlx.Tx) WalletRepository {
	return &walletRepo{db: tx}
}

func (r *walletRepo) Balance(ctx context.Context, mobile string) (float64, error) {
	var balance float64
	err := r.db.GetContext(ctx, &balance, `SELECT balance FROM wallets WHERE mobile = $1`, mobile)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return balance, err
}

func (r *walletRepo) Credit(ctx context.Context, mobile string, amount float64) (float64, error) {
	var balance float64
	err := r.db.GetContext(ctx, &balance, `
		INSERT INTO wallets (mobile, balance) VALUES ($1, $2)
		ON CONFLICT (mobile) DO UPDATE SET balance = wallets.balance + EXCLUDED.balance
		RETURNING balance
	`, mobile, amount)
	return balance, err
}

func (r *walletRepo) Debit(ctx context.Context, mobile string, amount float64) (float64, bool, error) {
	var balance float64
	err := r.db.GetContext(ctx, &balance, `
		UPDATE wallets SET balance = balance - $2
		WHERE mobile = $1 AND balance >= $2
		RETURNING balance
	`, mobile, amount)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return balance, true, nil
}

func (r *walletRepo) AddTransaction(ctx context.Context, params model.CreateTransactionParams) (*model.WalletTransaction, error) {
	var txn model.WalletTransaction
	err := r.db.GetContext(ctx, &txn, `
		INSERT INTO wallet_transactions (mobile, type, amount, description, status, reference)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING *
	`, params.Mobile, params.Type, params.Amount, params.Description, model.TransactionSuccess, params.Reference)
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *walletRepo) History(ctx context.Context, mobile string, limit int) ([]model.WalletTransaction, error) {
	var history []model.WalletTransaction
	err := r.db.SelectContext(ctx, &history, `
		SELECT * FROM wallet_transactions
		WHERE mobile = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, mobile, limit)
	if err != nil {
		return nil, err
	}
	return history, nil
}

func (r *walletRepo) TotalCredits(ctx context.Context) (float64, error) {
	var total float64
	err := r.db.GetContext(ctx, &total, `
		SELECT COALESCE(SUM(amount), 0) FROM wallet_transactions
		WHERE type = $1 AND reference <> 'signup'
	`, model.TransactionCredit)
	return total, err
}
