package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/stretchr/testify/mock"

	apperrors "github.com/astroconsult/consult-server-go/internal/errors"
	"github.com/astroconsult/consult-server-go/internal/middleware"
	"github.com/astroconsult/consult-server-go/internal/model"
	"github.com/astroconsult/consult-server-go/internal/rag"
	"github.com/astroconsult/consult-server-go/internal/service"
	"github.com/astroconsult/consult-server-go/internal/sse"
)

type mockAuthAPI struct {
	mock.Mock
}

func (m *mockAuthAPI) SendOTP(ctx context.Context, mobile string) (string, error) {
	args := m.Called(ctx, mobile)
	return args.String(0), args.Error(1)
}

func (m *mockAuthAPI) VerifyOTP(ctx context.Context, mobile, otp string) (*service.VerifyResult, error) {
	args := m.Called(ctx, mobile, otp)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.VerifyResult), args.Error(1)
}

func (m *mockAuthAPI) Logout(ctx context.Context, mobile string) error {
	args := m.Called(ctx, mobile)
	return args.Error(0)
}

type mockUserAPI struct {
	mock.Mock
}

func (m *mockUserAPI) Register(ctx context.Context, p model.RegisterParams) (string, error) {
	args := m.Called(ctx, p)
	return args.String(0), args.Error(1)
}

func (m *mockUserAPI) Status(ctx context.Context, mobile string) (*service.StatusResult, error) {
	args := m.Called(ctx, mobile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.StatusResult), args.Error(1)
}

type mockChatAPI struct {
	mock.Mock
}

func (m *mockChatAPI) Chat(ctx context.Context, in service.ChatInput) (*service.ChatResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ChatResult), args.Error(1)
}

func (m *mockChatAPI) EndChat(ctx context.Context, mobile, sessionID string, history []model.HistoryTurn) (string, error) {
	args := m.Called(ctx, mobile, sessionID, history)
	return args.String(0), args.Error(1)
}

func (m *mockChatAPI) History(ctx context.Context, mobile string) ([]model.SessionWithMessages, error) {
	args := m.Called(ctx, mobile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SessionWithMessages), args.Error(1)
}

func (m *mockChatAPI) SubmitFeedback(ctx context.Context, fb model.Feedback) (*model.Feedback, error) {
	args := m.Called(ctx, fb)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Feedback), args.Error(1)
}

type mockWalletAPI struct {
	mock.Mock
}

func (m *mockWalletAPI) Balance(ctx context.Context, mobile string) (float64, error) {
	args := m.Called(ctx, mobile)
	return args.Get(0).(float64), args.Error(1)
}

func (m *mockWalletAPI) History(ctx context.Context, mobile string) ([]model.WalletTransaction, error) {
	args := m.Called(ctx, mobile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.WalletTransaction), args.Error(1)
}

func (m *mockWalletAPI) Recharge(ctx context.Context, mobile string, amount float64) (*service.RechargeResult, error) {
	args := m.Called(ctx, mobile, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RechargeResult), args.Error(1)
}

func (m *mockWalletAPI) Dakshina(ctx context.Context, mobile string, amount float64) (*service.RechargeResult, error) {
	args := m.Called(ctx, mobile, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RechargeResult), args.Error(1)
}

type mockAdminAPI struct {
	mock.Mock
}

func (m *mockAdminAPI) Login(ctx context.Context, username, password string) (*service.AdminLoginResult, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AdminLoginResult), args.Error(1)
}

func (m *mockAdminAPI) Logout(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *mockAdminAPI) Stats(ctx context.Context) (*model.AdminStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AdminStats), args.Error(1)
}

func (m *mockAdminAPI) Users(ctx context.Context, limit, offset int) ([]model.UserSummary, int, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]model.UserSummary), args.Int(1), args.Error(2)
}

func (m *mockAdminAPI) UserDetail(ctx context.Context, mobile string) (*model.UserDetail, error) {
	args := m.Called(ctx, mobile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserDetail), args.Error(1)
}

type mockPromptAPI struct {
	mock.Mock
}

func (m *mockPromptAPI) List(ctx context.Context) ([]model.Prompt, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Prompt), args.Error(1)
}

func (m *mockPromptAPI) Update(ctx context.Context, name, content string) (*model.Prompt, error) {
	args := m.Called(ctx, name, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Prompt), args.Error(1)
}

// tokenAuth accepts tokens of the form "tok-<mobile>".
type tokenAuth struct{}

func (tokenAuth) Authenticate(_ context.Context, token string) (string, error) {
	if mobile, ok := strings.CutPrefix(token, "tok-"); ok {
		return mobile, nil
	}
	return "", apperrors.InvalidToken("Invalid or expired token")
}

// adminTokens accepts a single admin session token.
type adminTokens string

func (a adminTokens) ValidateSession(_ context.Context, token string) bool {
	return token != "" && token == string(a)
}

type stubAnswerer struct{}

func (stubAnswerer) Answer(_ context.Context, question string, passages []string) (string, error) {
	return "answer to " + question, nil
}

// fakeSubscriber hands out one client preloaded with events.
type fakeSubscriber struct {
	events       []sse.Event
	unsubscribed bool
}

func (f *fakeSubscriber) Subscribe(mobile string) *sse.Client {
	c := &sse.Client{Mobile: mobile, Events: make(chan sse.Event, len(f.events)), Done: make(chan struct{})}
	for _, e := range f.events {
		c.Events <- e
	}
	return c
}

func (f *fakeSubscriber) Unsubscribe(*sse.Client) {
	f.unsubscribed = true
}

type testAPI struct {
	auth    *mockAuthAPI
	users   *mockUserAPI
	chats   *mockChatAPI
	wallets *mockWalletAPI
	admin   *mockAdminAPI
	prompts *mockPromptAPI
	rag     *rag.Tester
	events  *fakeSubscriber
	router  http.Handler
}

const adminToken = "admin-token"

func newTestAPI() *testAPI {
	api := &testAPI{
		auth:    new(mockAuthAPI),
		users:   new(mockUserAPI),
		chats:   new(mockChatAPI),
		wallets: new(mockWalletAPI),
		admin:   new(mockAdminAPI),
		prompts: new(mockPromptAPI),
		rag:     rag.NewTester(rag.NewHashingEmbedder(), stubAnswerer{}, 0),
		events:  &fakeSubscriber{},
	}
	adminSessions := middleware.NewAdminSessionMiddleware(adminTokens(adminToken), true)
	api.router = NewRouter(RouterConfig{
		Auth:    NewAuthHandler(api.auth, api.users),
		Chat:    NewChatHandler(api.chats),
		Wallet:  NewWalletHandler(api.wallets),
		Admin:   NewAdminHandler(api.admin, api.prompts, api.rag, adminSessions.Handler, false),
		Events:  NewEventsHandler(api.events, api.users),
		Protect: middleware.NewAuthMiddleware(tokenAuth{}).Handler,
	})
	return api
}
