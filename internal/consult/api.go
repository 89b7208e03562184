// Package consult holds the client-side state machines of a consultation:
// OTP login, registration, readiness polling, chat sessions and the
// wallet mirror. None of it renders anything; front-ends drive these types
// and read their state.
package consult

import (
	"context"
	"errors"

	"github.com/astroconsult/consult-server-go/internal/client"
)

var (
	// ErrNotReady rejects a send before the user's context is prepared.
	ErrNotReady = errors.New("consultation is still being prepared")
	// ErrBusy rejects a send while another is in flight.
	ErrBusy = errors.New("a message is already being sent")
	// ErrInvalidState rejects an action the current state does not allow.
	ErrInvalidState = errors.New("action not allowed in the current state")
	// ErrNotAuthenticated is returned when no identity is held.
	ErrNotAuthenticated = errors.New("not logged in")
)

// The interfaces below are the API surface each component needs;
// *client.Client satisfies all of them.

type OTPAPI interface {
	SendOTP(ctx context.Context, mobile string) (*client.SendOTPResponse, error)
	VerifyOTP(ctx context.Context, mobile, otp string) (*client.VerifyResponse, error)
}

type RegisterAPI interface {
	Register(ctx context.Context, p client.Profile) (*client.RegisterResponse, error)
}

type StatusAPI interface {
	UserStatus(ctx context.Context, mobile string) (*client.StatusResponse, error)
}

type ChatAPI interface {
	Chat(ctx context.Context, req client.ChatRequest) (*client.ChatResponse, error)
	EndChat(ctx context.Context, mobile string, history []client.Turn, sessionID string) (*client.EndChatResponse, error)
	History(ctx context.Context, mobile string) ([]client.StoredSession, error)
	SubmitFeedback(ctx context.Context, req client.FeedbackRequest) error
}

type WalletAPI interface {
	WalletBalance(ctx context.Context, mobile string) (float64, error)
	WalletHistory(ctx context.Context, mobile string) ([]client.Transaction, error)
	Recharge(ctx context.Context, mobile string, amount float64) (*client.RechargeResponse, error)
	Dakshina(ctx context.Context, mobile string, amount float64) (*client.RechargeResponse, error)
}

var (
	_ OTPAPI      = (*client.Client)(nil)
	_ RegisterAPI = (*client.Client)(nil)
	_ StatusAPI   = (*client.Client)(nil)
	_ ChatAPI     = (*client.Client)(nil)
	_ WalletAPI   = (*client.Client)(nil)
)
