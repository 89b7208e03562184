package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/astroconsult/consult-server-go/internal/config"
	apperrors "github.com/astroconsult/consult-server-go/internal/errors"
	"github.com/astroconsult/consult-server-go/internal/repository"
	"github.com/astroconsult/consult-server-go/internal/util"
)

type AuthService struct {
	users   repository.UserRepository
	tokens  repository.TokenRepository
	otps    OTPStore
	limiter Limiter
	sender  OTPSender
	otpTTL  time.Duration
	devEcho bool
}

type AuthOptions struct {
	OTPTTL time.Duration
	// DevEcho returns the generated code from SendOTP for local testing.
	DevEcho bool
}

func NewAuthService(
	users repository.UserRepository,
	tokens repository.TokenRepository,
	otps OTPStore,
	limiter Limiter,
	sender OTPSender,
	opts AuthOptions,
) *AuthService {
	if opts.OTPTTL <= 0 {
		opts.OTPTTL = 5 * time.Minute
	}
	return &AuthService{
		users:   users,
		tokens:  tokens,
		otps:    otps,
		limiter: limiter,
		sender:  sender,
		otpTTL:  opts.OTPTTL,
		devEcho: opts.DevEcho,
	}
}

type VerifyResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	IsNewUser   bool   `json:"is_new_user"`
}

// SendOTP issues a fresh code for mobile. The code is returned only when
// dev echo is enabled.
func (s *AuthService) SendOTP(ctx context.Context, mobile string) (string, error) {
	if !util.IsValidMobile(mobile) {
		return "", apperrors.InvalidFields(apperrors.Field("mobile", "Mobile number must be exactly 10 digits"))
	}

	if allowed, _ := s.limiter.CheckLimit(ctx, OTPMobileLimitKey(mobile), config.OTPSendPerMobileMin, time.Minute); !allowed {
		return "", apperrors.RateLimitExceeded()
	}

	code, err := util.GenerateOTP(config.OTPLength)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}

	if err := s.otps.Save(ctx, mobile, code, s.otpTTL); err != nil {
		return "", apperrors.Internal("Failed to store OTP").WithCause(err)
	}

	if err := s.sender.Send(ctx, mobile, code); err != nil {
		return "", apperrors.External("otp delivery", err)
	}

	if s.devEcho {
		return code, nil
	}
	return "", nil
}

func (s *AuthService) VerifyOTP(ctx context.Context, mobile, otp string) (*VerifyResult, error) {
	var fields []apperrors.FieldError
	if !util.IsValidMobile(mobile) {
		fields = append(fields, apperrors.Field("mobile", "Mobile number must be exactly 10 digits"))
	}
	if !util.IsValidOTP(otp) {
		fields = append(fields, apperrors.Field("otp", "OTP must be exactly 4 digits"))
	}
	if len(fields) > 0 {
		return nil, apperrors.InvalidFields(fields...)
	}

	stored, err := s.otps.Get(ctx, mobile)
	if err != nil {
		return nil, apperrors.Internal("Failed to read OTP").WithCause(err)
	}
	if stored == "" {
		return nil, apperrors.OTPExpired()
	}

	attempts, err := s.otps.IncrAttempts(ctx, mobile, s.otpTTL)
	if err != nil {
		return nil, apperrors.Internal("Failed to read OTP").WithCause(err)
	}
	if attempts > config.OTPMaxAttempts {
		if err := s.otps.Delete(ctx, mobile); err != nil {
			log.Warn().Err(err).Msg("failed to delete exhausted otp")
		}
		return nil, apperrors.New(apperrors.ErrCodeRateLimitExceeded, "Too many incorrect attempts. Please request a new OTP")
	}

	if !util.ConstantTimeEqual(stored, otp) {
		return nil, apperrors.InvalidOTP()
	}

	if err := s.otps.Delete(ctx, mobile); err != nil {
		log.Warn().Err(err).Msg("failed to delete used otp")
	}

	user, err := s.users.EnsureExists(ctx, mobile)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	token, err := s.IssueToken(ctx, mobile)
	if err != nil {
		return nil, err
	}

	return &VerifyResult{
		AccessToken: token,
		TokenType:   "bearer",
		IsNewUser:   !user.ProfileComplete,
	}, nil
}

// IssueToken mints a bearer token for mobile; only its hash is stored.
func (s *AuthService) IssueToken(ctx context.Context, mobile string) (string, error) {
	token, err := util.GenerateToken()
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	if err := s.tokens.Create(ctx, util.HashToken(token), mobile, time.Now().Add(config.AuthTokenTTL)); err != nil {
		return "", apperrors.Database(err)
	}
	return token, nil
}

// Authenticate resolves a bearer token to its mobile.
func (s *AuthService) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", apperrors.Unauthorized("Missing bearer token")
	}
	found, err := s.tokens.FindValid(ctx, util.HashToken(token))
	if err != nil {
		return "", apperrors.Database(err)
	}
	if found == nil {
		return "", apperrors.InvalidToken("Invalid or expired token")
	}
	return found.Mobile, nil
}

// Logout revokes every token of mobile.
func (s *AuthService) Logout(ctx context.Context, mobile string) error {
	if err := s.tokens.DeleteByMobile(ctx, mobile); err != nil {
		return apperrors.Database(err)
	}
	return nil
}
