package consult

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/astroconsult/consult-server-go/internal/client"
	"github.com/astroconsult/consult-server-go/internal/identity"
)

const testMobile = "9876543210"

func ptr(v float64) *float64 { return &v }

func newTestSession() *identity.Session {
	s := identity.NewSession(identity.NewMemoryStore())
	_ = s.Begin(testMobile, "tok-"+testMobile)
	return s
}

type mockOTPAPI struct {
	mock.Mock
}

func (m *mockOTPAPI) SendOTP(ctx context.Context, mobile string) (*client.SendOTPResponse, error) {
	args := m.Called(ctx, mobile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*client.SendOTPResponse), args.Error(1)
}

func (m *mockOTPAPI) VerifyOTP(ctx context.Context, mobile, otp string) (*client.VerifyResponse, error) {
	args := m.Called(ctx, mobile, otp)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*client.VerifyResponse), args.Error(1)
}

type mockRegisterAPI struct {
	mock.Mock
}

func (m *mockRegisterAPI) Register(ctx context.Context, p client.Profile) (*client.RegisterResponse, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*client.RegisterResponse), args.Error(1)
}

type mockChatAPI struct {
	mock.Mock
}

func (m *mockChatAPI) Chat(ctx context.Context, req client.ChatRequest) (*client.ChatResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*client.ChatResponse), args.Error(1)
}

func (m *mockChatAPI) EndChat(ctx context.Context, mobile string, history []client.Turn, sessionID string) (*client.EndChatResponse, error) {
	args := m.Called(ctx, mobile, history, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*client.EndChatResponse), args.Error(1)
}

func (m *mockChatAPI) History(ctx context.Context, mobile string) ([]client.StoredSession, error) {
	args := m.Called(ctx, mobile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]client.StoredSession), args.Error(1)
}

func (m *mockChatAPI) SubmitFeedback(ctx context.Context, req client.FeedbackRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

type mockWalletAPI struct {
	mock.Mock
}

func (m *mockWalletAPI) WalletBalance(ctx context.Context, mobile string) (float64, error) {
	args := m.Called(ctx, mobile)
	return args.Get(0).(float64), args.Error(1)
}

func (m *mockWalletAPI) WalletHistory(ctx context.Context, mobile string) ([]client.Transaction, error) {
	args := m.Called(ctx, mobile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]client.Transaction), args.Error(1)
}

func (m *mockWalletAPI) Recharge(ctx context.Context, mobile string, amount float64) (*client.RechargeResponse, error) {
	args := m.Called(ctx, mobile, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*client.RechargeResponse), args.Error(1)
}

func (m *mockWalletAPI) Dakshina(ctx context.Context, mobile string, amount float64) (*client.RechargeResponse, error) {
	args := m.Called(ctx, mobile, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*client.RechargeResponse), args.Error(1)
}

// statusSequence answers status polls from a script, repeating the last
// entry once the script runs out.
type statusSequence struct {
	mock.Mock
}

func (s *statusSequence) UserStatus(ctx context.Context, mobile string) (*client.StatusResponse, error) {
	args := s.Called(ctx, mobile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*client.StatusResponse), args.Error(1)
}

type readyFlag bool

func (r readyFlag) Ready() bool { return bool(r) }
