package consult

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/astroconsult/consult-server-go/internal/client"
)

func TestWallet_ApplyReplaces(t *testing.T) {
	w := NewWallet()
	var changes []float64
	w.OnChange(func(v float64) { changes = append(changes, v) })

	w.apply(ptr(100))
	w.apply(nil)
	w.apply(ptr(95))

	balance, ok := w.Balance()
	require.True(t, ok)
	assert.Equal(t, 95.0, balance)
	assert.Equal(t, []float64{100, 95}, changes)
}

func TestLedger_Refresh(t *testing.T) {
	ctx := context.Background()
	api := new(mockWalletAPI)
	history := []client.Transaction{
		{Type: "credit", Amount: 500, Status: "success"},
		{Type: "debit", Amount: 5, Status: "success"},
	}
	api.On("WalletBalance", ctx, testMobile).Return(120.0, nil)
	api.On("WalletHistory", ctx, testMobile).Return(history, nil)

	l := NewLedger(api, newTestSession(), NewWallet())
	require.NoError(t, l.Refresh(ctx))

	balance, _ := l.Balance()
	assert.Equal(t, 120.0, balance, "balance comes from the server, not from summing history")
	assert.Equal(t, history, l.History())
}

func TestLedger_Recharge(t *testing.T) {
	ctx := context.Background()

	t.Run("success refetches", func(t *testing.T) {
		api := new(mockWalletAPI)
		api.On("Recharge", ctx, testMobile, 200.0).
			Return(&client.RechargeResponse{Status: client.RechargeSuccess, Balance: ptr(999)}, nil)
		api.On("WalletBalance", ctx, testMobile).Return(300.0, nil)
		api.On("WalletHistory", ctx, testMobile).Return([]client.Transaction{}, nil)

		wallet := NewWallet()
		wallet.apply(ptr(100))
		l := NewLedger(api, newTestSession(), wallet)

		_, err := l.Recharge(ctx, 200)
		require.NoError(t, err)
		balance, _ := wallet.Balance()
		assert.Equal(t, 300.0, balance)
		api.AssertCalled(t, "WalletBalance", ctx, testMobile)
	})

	t.Run("non-positive amount is never sent", func(t *testing.T) {
		api := new(mockWalletAPI)
		l := NewLedger(api, newTestSession(), NewWallet())

		for _, amount := range []float64{0, -10} {
			_, err := l.Recharge(ctx, amount)
			assert.True(t, client.IsValidation(err))
		}
		_, err := l.Dakshina(ctx, 0)
		assert.True(t, client.IsValidation(err))
		api.AssertNotCalled(t, "Recharge", mock.Anything, mock.Anything, mock.Anything)
		api.AssertNotCalled(t, "Dakshina", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("dakshina follows the same flow", func(t *testing.T) {
		api := new(mockWalletAPI)
		api.On("Dakshina", ctx, testMobile, 51.0).Return(&client.RechargeResponse{Status: client.RechargeSuccess}, nil)
		api.On("WalletBalance", ctx, testMobile).Return(151.0, nil)
		api.On("WalletHistory", ctx, testMobile).Return([]client.Transaction{}, nil)

		l := NewLedger(api, newTestSession(), NewWallet())
		_, err := l.Dakshina(ctx, 51)
		require.NoError(t, err)
		balance, _ := l.Balance()
		assert.Equal(t, 151.0, balance)
	})
}
