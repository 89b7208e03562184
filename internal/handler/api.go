package handler

import (
	"context"

	"github.com/astroconsult/consult-server-go/internal/model"
	"github.com/astroconsult/consult-server-go/internal/rag"
	"github.com/astroconsult/consult-server-go/internal/service"
)

// The interfaces below are the service surface each handler needs.

type AuthAPI interface {
	SendOTP(ctx context.Context, mobile string) (string, error)
	VerifyOTP(ctx context.Context, mobile, otp string) (*service.VerifyResult, error)
	Logout(ctx context.Context, mobile string) error
}

type UserAPI interface {
	Register(ctx context.Context, p model.RegisterParams) (string, error)
	Status(ctx context.Context, mobile string) (*service.StatusResult, error)
}

type ChatAPI interface {
	Chat(ctx context.Context, in service.ChatInput) (*service.ChatResult, error)
	EndChat(ctx context.Context, mobile, sessionID string, history []model.HistoryTurn) (string, error)
	History(ctx context.Context, mobile string) ([]model.SessionWithMessages, error)
	SubmitFeedback(ctx context.Context, fb model.Feedback) (*model.Feedback, error)
}

type WalletAPI interface {
	Balance(ctx context.Context, mobile string) (float64, error)
	History(ctx context.Context, mobile string) ([]model.WalletTransaction, error)
	Recharge(ctx context.Context, mobile string, amount float64) (*service.RechargeResult, error)
	Dakshina(ctx context.Context, mobile string, amount float64) (*service.RechargeResult, error)
}

type AdminAPI interface {
	Login(ctx context.Context, username, password string) (*service.AdminLoginResult, error)
	Logout(ctx context.Context, token string) error
	Stats(ctx context.Context) (*model.AdminStats, error)
	Users(ctx context.Context, limit, offset int) ([]model.UserSummary, int, error)
	UserDetail(ctx context.Context, mobile string) (*model.UserDetail, error)
}

type PromptAPI interface {
	List(ctx context.Context) ([]model.Prompt, error)
	Update(ctx context.Context, name, content string) (*model.Prompt, error)
}

type RAGAPI interface {
	Upload(filename string, data []byte) (*rag.Document, error)
	Process(ctx context.Context, id string) (*rag.Document, error)
	Chat(ctx context.Context, id, question string) (*rag.ChatResult, error)
}

var (
	_ AuthAPI   = (*service.AuthService)(nil)
	_ UserAPI   = (*service.UserService)(nil)
	_ ChatAPI   = (*service.ChatService)(nil)
	_ WalletAPI = (*service.WalletService)(nil)
	_ AdminAPI  = (*service.AdminService)(nil)
	_ PromptAPI = (*service.PromptService)(nil)
	_ RAGAPI    = (*rag.Tester)(nil)
)
