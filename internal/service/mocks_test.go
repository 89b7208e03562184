package service

import (
	"context"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"github.com/astroconsult/consult-server-go/internal/database"
	"github.com/astroconsult/consult-server-go/internal/model"
	"github.com/astroconsult/consult-server-go/internal/oracle"
	"github.com/astroconsult/consult-server-go/internal/repository"
	"github.com/astroconsult/consult-server-go/internal/sse"
)

// fakeTx runs the function without a real transaction. Mock repositories
// return themselves from WithTx, so a nil *sqlx.Tx is never dereferenced.
type fakeTx struct{}

func (fakeTx) WithTx(_ context.Context, fn database.TxFunc) error {
	return fn(nil)
}

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) FindByMobile(ctx context.Context, mobile string) (*model.User, error) {
	args := m.Called(ctx, mobile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) EnsureExists(ctx context.Context, mobile string) (*model.User, error) {
	args := m.Called(ctx, mobile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) CompleteProfile(ctx context.Context, mobile, name, email string) (*model.User, error) {
	args := m.Called(ctx, mobile, name, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) UpdateStatus(ctx context.Context, mobile string, status model.UserStatus) error {
	args := m.Called(ctx, mobile, status)
	return args.Error(0)
}

func (m *mockUserRepo) FindByStatus(ctx context.Context, status model.UserStatus, limit int) ([]model.User, error) {
	args := m.Called(ctx, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *mockUserRepo) FindAll(ctx context.Context, limit, offset int) ([]model.UserSummary, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.UserSummary), args.Error(1)
}

func (m *mockUserRepo) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockUserRepo) CountByStatus(ctx context.Context, status model.UserStatus) (int, error) {
	args := m.Called(ctx, status)
	return args.Int(0), args.Error(1)
}

func (m *mockUserRepo) WithTx(_ *sqlx.Tx) repository.UserRepository { return m }

type mockProfileRepo struct {
	mock.Mock
}

func (m *mockProfileRepo) FindByMobile(ctx context.Context, mobile string) (*model.Profile, error) {
	args := m.Called(ctx, mobile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *mockProfileRepo) Upsert(ctx context.Context, profile model.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *mockProfileRepo) UpdateContext(ctx context.Context, mobile, contextText string) error {
	args := m.Called(ctx, mobile, contextText)
	return args.Error(0)
}

func (m *mockProfileRepo) WithTx(_ *sqlx.Tx) repository.ProfileRepository { return m }

type mockTokenRepo struct {
	mock.Mock
}

func (m *mockTokenRepo) Create(ctx context.Context, tokenHash, mobile string, expiresAt time.Time) error {
	args := m.Called(ctx, tokenHash, mobile, expiresAt)
	return args.Error(0)
}

func (m *mockTokenRepo) FindValid(ctx context.Context, tokenHash string) (*model.AuthToken, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AuthToken), args.Error(1)
}

func (m *mockTokenRepo) DeleteByMobile(ctx context.Context, mobile string) error {
	args := m.Called(ctx, mobile)
	return args.Error(0)
}

func (m *mockTokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockTokenRepo) WithTx(_ *sqlx.Tx) repository.TokenRepository { return m }

type mockChatRepo struct {
	mock.Mock
}

func (m *mockChatRepo) FindSession(ctx context.Context, sessionID string) (*model.ChatSession, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ChatSession), args.Error(1)
}

func (m *mockChatRepo) EnsureSession(ctx context.Context, sessionID, mobile, topic string) (*model.ChatSession, error) {
	args := m.Called(ctx, sessionID, mobile, topic)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ChatSession), args.Error(1)
}

func (m *mockChatRepo) AddMessage(ctx context.Context, msg model.ChatMessage) (*model.ChatMessage, error) {
	args := m.Called(ctx, msg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ChatMessage), args.Error(1)
}

func (m *mockChatRepo) FindMessages(ctx context.Context, sessionID string) ([]model.ChatMessage, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ChatMessage), args.Error(1)
}

func (m *mockChatRepo) FindSessionsByMobile(ctx context.Context, mobile string, limit int) ([]model.ChatSession, error) {
	args := m.Called(ctx, mobile, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ChatSession), args.Error(1)
}

func (m *mockChatRepo) MarkSummarized(ctx context.Context, sessionID, summary string) error {
	args := m.Called(ctx, sessionID, summary)
	return args.Error(0)
}

func (m *mockChatRepo) CountSessions(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockChatRepo) CountMessages(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockChatRepo) WithTx(_ *sqlx.Tx) repository.ChatRepository { return m }

type mockWalletRepo struct {
	mock.Mock
}

func (m *mockWalletRepo) Balance(ctx context.Context, mobile string) (float64, error) {
	args := m.Called(ctx, mobile)
	return args.Get(0).(float64), args.Error(1)
}

func (m *mockWalletRepo) Credit(ctx context.Context, mobile string, amount float64) (float64, error) {
	args := m.Called(ctx, mobile, amount)
	return args.Get(0).(float64), args.Error(1)
}

func (m *mockWalletRepo) Debit(ctx context.Context, mobile string, amount float64) (float64, bool, error) {
	args := m.Called(ctx, mobile, amount)
	return args.Get(0).(float64), args.Bool(1), args.Error(2)
}

func (m *mockWalletRepo) AddTransaction(ctx context.Context, params model.CreateTransactionParams) (*model.WalletTransaction, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WalletTransaction), args.Error(1)
}

func (m *mockWalletRepo) History(ctx context.Context, mobile string, limit int) ([]model.WalletTransaction, error) {
	args := m.Called(ctx, mobile, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.WalletTransaction), args.Error(1)
}

func (m *mockWalletRepo) TotalCredits(ctx context.Context) (float64, error) {
	args := m.Called(ctx)
	return args.Get(0).(float64), args.Error(1)
}

func (m *mockWalletRepo) WithTx(_ *sqlx.Tx) repository.WalletRepository { return m }

type mockFeedbackRepo struct {
	mock.Mock
}

func (m *mockFeedbackRepo) Upsert(ctx context.Context, fb model.Feedback) (*model.Feedback, error) {
	args := m.Called(ctx, fb)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Feedback), args.Error(1)
}

func (m *mockFeedbackRepo) FindByMobile(ctx context.Context, mobile string) ([]model.Feedback, error) {
	args := m.Called(ctx, mobile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Feedback), args.Error(1)
}

func (m *mockFeedbackRepo) AverageRating(ctx context.Context) (float64, error) {
	args := m.Called(ctx)
	return args.Get(0).(float64), args.Error(1)
}

type mockPromptRepo struct {
	mock.Mock
}

func (m *mockPromptRepo) FindAll(ctx context.Context) ([]model.Prompt, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Prompt), args.Error(1)
}

func (m *mockPromptRepo) FindByName(ctx context.Context, name string) (*model.Prompt, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Prompt), args.Error(1)
}

func (m *mockPromptRepo) Upsert(ctx context.Context, name, content string) (*model.Prompt, error) {
	args := m.Called(ctx, name, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Prompt), args.Error(1)
}

type mockAdminSessionRepo struct {
	mock.Mock
}

func (m *mockAdminSessionRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.AdminSession, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AdminSession), args.Error(1)
}

func (m *mockAdminSessionRepo) Create(ctx context.Context, params model.CreateAdminSessionParams) (*model.AdminSession, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AdminSession), args.Error(1)
}

func (m *mockAdminSessionRepo) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}

func (m *mockAdminSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockResponder struct {
	mock.Mock
}

func (m *mockResponder) Reply(ctx context.Context, turn oracle.Turn) (*oracle.Answer, error) {
	args := m.Called(ctx, turn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*oracle.Answer), args.Error(1)
}

func (m *mockResponder) Summarize(ctx context.Context, history []model.HistoryTurn) (string, error) {
	args := m.Called(ctx, history)
	return args.String(0), args.Error(1)
}

func (m *mockResponder) PrepareContext(ctx context.Context, name string, profile model.Profile) (string, error) {
	args := m.Called(ctx, name, profile)
	return args.String(0), args.Error(1)
}

func (m *mockResponder) Answer(ctx context.Context, question string, passages []string) (string, error) {
	args := m.Called(ctx, question, passages)
	return args.String(0), args.Error(1)
}

// memoryOTPStore is an in-process OTPStore.
type memoryOTPStore struct {
	mu       sync.Mutex
	codes    map[string]string
	attempts map[string]int64
}

func newMemoryOTPStore() *memoryOTPStore {
	return &memoryOTPStore{codes: map[string]string{}, attempts: map[string]int64{}}
}

func (s *memoryOTPStore) Save(_ context.Context, mobile, code string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[mobile] = code
	delete(s.attempts, mobile)
	return nil
}

func (s *memoryOTPStore) Get(_ context.Context, mobile string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codes[mobile], nil
}

func (s *memoryOTPStore) IncrAttempts(_ context.Context, mobile string, _ time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[mobile]++
	return s.attempts[mobile], nil
}

func (s *memoryOTPStore) Delete(_ context.Context, mobile string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, mobile)
	delete(s.attempts, mobile)
	return nil
}

// countingLimiter allows the first limit calls per key.
type countingLimiter struct {
	mu    sync.Mutex
	calls map[string]int
}

func newCountingLimiter() *countingLimiter {
	return &countingLimiter{calls: map[string]int{}}
}

func (l *countingLimiter) CheckLimit(_ context.Context, key string, limit int, window time.Duration) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls[key]++
	return l.calls[key] <= limit, time.Now().Add(window)
}

type recordingSender struct {
	mu    sync.Mutex
	codes map[string]string
}

func (s *recordingSender) Send(_ context.Context, mobile, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.codes == nil {
		s.codes = map[string]string{}
	}
	s.codes[mobile] = code
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []sse.Event
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, event sse.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}
