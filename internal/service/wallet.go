package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/astroconsult/consult-server-go/internal/database"
	apperrors "github.com/astroconsult/consult-server-go/internal/errors"
	"github.com/astroconsult/consult-server-go/internal/model"
	"github.com/astroconsult/consult-server-go/internal/repository"
	"github.com/astroconsult/consult-server-go/internal/sse"
	"github.com/astroconsult/consult-server-go/internal/util"
)

const walletHistoryLimit = 100

type WalletService struct {
	tx          database.Transactor
	users       repository.UserRepository
	wallets     repository.WalletRepository
	events      EventPublisher
	maxRecharge float64
}

func NewWalletService(
	tx database.Transactor,
	users repository.UserRepository,
	wallets repository.WalletRepository,
	events EventPublisher,
	maxRecharge float64,
) *WalletService {
	return &WalletService{
		tx:          tx,
		users:       users,
		wallets:     wallets,
		events:      events,
		maxRecharge: maxRecharge,
	}
}

type RechargeResult struct {
	Status    model.TransactionStatus `json:"status"`
	Balance   float64                 `json:"balance"`
	Reference string                  `json:"reference"`
}

func (s *WalletService) Balance(ctx context.Context, mobile string) (float64, error) {
	balance, err := s.wallets.Balance(ctx, mobile)
	if err != nil {
		return 0, apperrors.Database(err)
	}
	return balance, nil
}

// History lists transactions newest first.
func (s *WalletService) History(ctx context.Context, mobile string) ([]model.WalletTransaction, error) {
	history, err := s.wallets.History(ctx, mobile, walletHistoryLimit)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if history == nil {
		history = []model.WalletTransaction{}
	}
	return history, nil
}

func (s *WalletService) Recharge(ctx context.Context, mobile string, amount float64) (*RechargeResult, error) {
	return s.credit(ctx, mobile, amount, "Wallet recharge")
}

// Dakshina is a voluntary contribution. It follows the recharge flow.
func (s *WalletService) Dakshina(ctx context.Context, mobile string, amount float64) (*RechargeResult, error) {
	return s.credit(ctx, mobile, amount, "Dakshina")
}

func (s *WalletService) credit(ctx context.Context, mobile string, amount float64, description string) (*RechargeResult, error) {
	amount = model.RoundMoney(amount)
	if amount <= 0 {
		return nil, apperrors.InvalidFields(apperrors.Field("amount", "Amount must be greater than zero"))
	}
	if amount > s.maxRecharge {
		return nil, apperrors.InvalidFields(apperrors.Field("amount", "Amount exceeds the maximum allowed"))
	}

	user, err := s.users.FindByMobile(ctx, mobile)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if user == nil {
		return nil, apperrors.NotFound("User")
	}

	reference := uuid.NewString()
	var balance float64
	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		wallets := s.wallets.WithTx(tx)
		newBalance, err := wallets.Credit(ctx, mobile, amount)
		if err != nil {
			return apperrors.Database(err)
		}
		balance = newBalance
		if _, err := wallets.AddTransaction(ctx, model.CreateTransactionParams{
			Mobile:      mobile,
			Type:        model.TransactionCredit,
			Amount:      amount,
			Description: description,
			Reference:   reference,
		}); err != nil {
			return apperrors.Database(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.events, mobile, sse.EventWallet, map[string]float64{"balance": balance})
	log.Info().
		Str("mobile", util.MaskMobile(mobile)).
		Float64("amount", amount).
		Str("description", description).
		Msg("wallet credited")

	return &RechargeResult{Status: model.TransactionSuccess, Balance: balance, Reference: reference}, nil
}
