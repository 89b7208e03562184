package model

import (
	"math"
	"time"
)

type TransactionType string

const (
	TransactionCredit TransactionType = "credit"
	TransactionDebit  TransactionType = "debit"
)

type TransactionStatus string

const (
	TransactionSuccess TransactionStatus = "success"
	TransactionPending TransactionStatus = "pending"
)

type Wallet struct {
	Mobile  string  `db:"mobile" json:"mobile"`
	Balance float64 `db:"balance" json:"balance"`
}

type WalletTransaction struct {
	ID          int64             `db:"id" json:"-"`
	Mobile      string            `db:"mobile" json:"-"`
	Type        TransactionType   `db:"type" json:"type"`
	Amount      float64           `db:"amount" json:"amount"`
	Description string            `db:"description" json:"description"`
	Status      TransactionStatus `db:"status" json:"status"`
	Reference   string            `db:"reference" json:"reference,omitempty"`
	CreatedAt   time.Time         `db:"created_at" json:"timestamp"`
}

type CreateTransactionParams struct {
	Mobile      string
	Type        TransactionType
	Amount      float64
	Description string
	Reference   string
}

// RoundMoney rounds to the two decimals stored in NUMERIC(12,2) columns.
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
