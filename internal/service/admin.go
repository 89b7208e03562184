package service

import (
	"context"
	"time"

	apperrors "github.com/astroconsult/consult-server-go/internal/errors"
	"github.com/astroconsult/consult-server-go/internal/model"
	"github.com/astroconsult/consult-server-go/internal/repository"
	"github.com/astroconsult/consult-server-go/internal/util"
)

const adminSessionTTL = 24 * time.Hour

type AdminService struct {
	sessionRepo   repository.AdminSessionRepository
	users         repository.UserRepository
	chats         repository.ChatRepository
	wallets       repository.WalletRepository
	feedback      repository.FeedbackRepository
	profiles      ProfileReader
	history       *ChatService
	username      string
	passwordHash  string
	sessionSecret string
	liveClients   func() int
}

type AdminConfig struct {
	Username      string
	PasswordHash  string
	SessionSecret string
	// LiveClients reports connected event streams for the stats page.
	LiveClients func() int
}

func NewAdminService(
	sessionRepo repository.AdminSessionRepository,
	users repository.UserRepository,
	chats repository.ChatRepository,
	wallets repository.WalletRepository,
	feedback repository.FeedbackRepository,
	profiles ProfileReader,
	history *ChatService,
	cfg AdminConfig,
) *AdminService {
	return &AdminService{
		sessionRepo:   sessionRepo,
		users:         users,
		chats:         chats,
		wallets:       wallets,
		feedback:      feedback,
		profiles:      profiles,
		history:       history,
		username:      cfg.Username,
		passwordHash:  cfg.PasswordHash,
		sessionSecret: cfg.SessionSecret,
		liveClients:   cfg.LiveClients,
	}
}

type AdminLoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *AdminService) Login(ctx context.Context, username, password string) (*AdminLoginResult, error) {
	if s.passwordHash == "" {
		return nil, apperrors.Forbidden("Admin login is disabled")
	}
	userOK := util.ConstantTimeEqual(username, s.username)
	passOK := util.CheckPasswordHash(password, s.passwordHash)
	if !userOK || !passOK {
		return nil, apperrors.Unauthorized("Invalid credentials")
	}

	token, err := util.GenerateToken()
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().Add(adminSessionTTL)
	_, err = s.sessionRepo.Create(ctx, model.CreateAdminSessionParams{
		TokenHash: util.HmacSHA256(s.sessionSecret, token),
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}

	return &AdminLoginResult{Token: token, ExpiresAt: expiresAt}, nil
}

func (s *AdminService) Logout(ctx context.Context, token string) error {
	return s.sessionRepo.DeleteByTokenHash(ctx, util.HmacSHA256(s.sessionSecret, token))
}

func (s *AdminService) ValidateSession(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}
	session, err := s.sessionRepo.FindByTokenHash(ctx, util.HmacSHA256(s.sessionSecret, token))
	return err == nil && session != nil
}

func (s *AdminService) Stats(ctx context.Context) (*model.AdminStats, error) {
	stats := &model.AdminStats{}
	var err error

	if stats.Users, err = s.users.Count(ctx); err != nil {
		return nil, apperrors.Database(err)
	}
	if stats.ReadyUsers, err = s.users.CountByStatus(ctx, model.UserStatusReady); err != nil {
		return nil, apperrors.Database(err)
	}
	if stats.Sessions, err = s.chats.CountSessions(ctx); err != nil {
		return nil, apperrors.Database(err)
	}
	if stats.Messages, err = s.chats.CountMessages(ctx); err != nil {
		return nil, apperrors.Database(err)
	}
	if stats.Revenue, err = s.wallets.TotalCredits(ctx); err != nil {
		return nil, apperrors.Database(err)
	}
	if stats.AvgRating, err = s.feedback.AverageRating(ctx); err != nil {
		return nil, apperrors.Database(err)
	}
	if s.liveClients != nil {
		stats.SSEConnected = s.liveClients()
	}
	return stats, nil
}

func (s *AdminService) Users(ctx context.Context, limit, offset int) ([]model.UserSummary, int, error) {
	users, err := s.users.FindAll(ctx, limit, offset)
	if err != nil {
		return nil, 0, apperrors.Database(err)
	}
	total, err := s.users.Count(ctx)
	if err != nil {
		return nil, 0, apperrors.Database(err)
	}
	if users == nil {
		users = []model.UserSummary{}
	}
	return users, total, nil
}

func (s *AdminService) UserDetail(ctx context.Context, mobile string) (*model.UserDetail, error) {
	user, err := s.users.FindByMobile(ctx, mobile)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if user == nil {
		return nil, apperrors.NotFound("User")
	}

	detail := &model.UserDetail{User: *user}
	if detail.Profile, err = s.profiles.Profile(ctx, mobile); err != nil {
		return nil, err
	}
	if detail.Balance, err = s.wallets.Balance(ctx, mobile); err != nil {
		return nil, apperrors.Database(err)
	}
	if detail.Sessions, err = s.history.History(ctx, mobile); err != nil {
		return nil, err
	}
	if detail.Feedback, err = s.feedback.FindByMobile(ctx, mobile); err != nil {
		return nil, apperrors.Database(err)
	}
	if detail.Feedback == nil {
		detail.Feedback = []model.Feedback{}
	}
	return detail, nil
}
