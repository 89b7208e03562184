package consult

import (
	"context"
	"slices"
	"sync"

	"github.com/astroconsult/consult-server-go/internal/client"
	"github.com/astroconsult/consult-server-go/internal/identity"
)

// Wallet mirrors the server's balance. It only changes when a server
// response carries a balance; it is never computed locally.
type Wallet struct {
	mu        sync.RWMutex
	balance   float64
	known     bool
	observers []func(float64)
}

func NewWallet() *Wallet {
	return &Wallet{}
}

// Balance returns the last server-reported balance, if any.
func (w *Wallet) Balance() (float64, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.balance, w.known
}

func (w *Wallet) OnChange(fn func(float64)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.observers = append(w.observers, fn)
}

// apply replaces the mirror with a server value; nil leaves it as is.
func (w *Wallet) apply(balance *float64) {
	if balance == nil {
		return
	}

	w.mu.Lock()
	w.balance = *balance
	w.known = true
	observers := slices.Clone(w.observers)
	w.mu.Unlock()

	for _, fn := range observers {
		fn(*balance)
	}
}

// Ledger is the wallet view: balance and history are pure reads, and
// credits re-read the balance instead of adding to it.
type Ledger struct {
	api     WalletAPI
	session *identity.Session
	wallet  *Wallet

	mu      sync.RWMutex
	history []client.Transaction
}

func NewLedger(api WalletAPI, session *identity.Session, wallet *Wallet) *Ledger {
	return &Ledger{api: api, session: session, wallet: wallet}
}

// Refresh re-reads the authoritative balance and the transaction history.
func (l *Ledger) Refresh(ctx context.Context) error {
	mobile := l.session.Mobile()
	if mobile == "" {
		return ErrNotAuthenticated
	}

	balance, err := l.api.WalletBalance(ctx, mobile)
	if err != nil {
		return err
	}
	l.wallet.apply(&balance)

	history, err := l.api.WalletHistory(ctx, mobile)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.history = history
	l.mu.Unlock()
	return nil
}

func (l *Ledger) History() []client.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]client.Transaction(nil), l.history...)
}

func (l *Ledger) Balance() (float64, bool) {
	return l.wallet.Balance()
}

func (l *Ledger) Recharge(ctx context.Context, amount float64) (*client.RechargeResponse, error) {
	return l.credit(ctx, amount, l.api.Recharge)
}

func (l *Ledger) Dakshina(ctx context.Context, amount float64) (*client.RechargeResponse, error) {
	return l.credit(ctx, amount, l.api.Dakshina)
}

func (l *Ledger) credit(
	ctx context.Context,
	amount float64,
	call func(context.Context, string, float64) (*client.RechargeResponse, error),
) (*client.RechargeResponse, error) {
	if err := client.ValidateAmount(amount); err != nil {
		return nil, err
	}
	mobile := l.session.Mobile()
	if mobile == "" {
		return nil, ErrNotAuthenticated
	}

	resp, err := call(ctx, mobile, amount)
	if err != nil {
		return nil, err
	}
	if resp.Status == client.RechargeSuccess {
		if err := l.Refresh(ctx); err != nil {
			return resp, err
		}
	}
	return resp, nil
}
