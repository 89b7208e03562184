package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/astroconsult/consult-server-go/internal/database"
	apperrors "github.com/astroconsult/consult-server-go/internal/errors"
	"github.com/astroconsult/consult-server-go/internal/model"
	"github.com/astroconsult/consult-server-go/internal/oracle"
	"github.com/astroconsult/consult-server-go/internal/repository"
	"github.com/astroconsult/consult-server-go/internal/sse"
	"github.com/astroconsult/consult-server-go/internal/util"
)

type UserService struct {
	tx           database.Transactor
	users        repository.UserRepository
	profiles     repository.ProfileRepository
	wallets      repository.WalletRepository
	auth         *AuthService
	cipher       *util.FieldCipher
	responder    oracle.Responder
	events       EventPublisher
	signupCredit float64
}

func NewUserService(
	tx database.Transactor,
	users repository.UserRepository,
	profiles repository.ProfileRepository,
	wallets repository.WalletRepository,
	auth *AuthService,
	cipher *util.FieldCipher,
	responder oracle.Responder,
	events EventPublisher,
	signupCredit float64,
) *UserService {
	return &UserService{
		tx:           tx,
		users:        users,
		profiles:     profiles,
		wallets:      wallets,
		auth:         auth,
		cipher:       cipher,
		responder:    responder,
		events:       events,
		signupCredit: signupCredit,
	}
}

// UserProfile is the profile as returned by the status endpoint.
type UserProfile struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	model.Profile
}

type StatusResult struct {
	Status        model.UserStatus `json:"status"`
	WalletBalance *float64         `json:"wallet_balance,omitempty"`
	UserProfile   *UserProfile     `json:"user_profile,omitempty"`
}

// ValidateProfile reports every invalid field of a registration.
func ValidateProfile(p model.RegisterParams) []apperrors.FieldError {
	var fields []apperrors.FieldError
	add := func(field, msg string) {
		fields = append(fields, apperrors.Field(field, msg))
	}

	if !util.IsValidMobile(p.Mobile) {
		add("mobile", "Mobile number must be exactly 10 digits")
	}
	if strings.TrimSpace(p.Name) == "" {
		add("name", "Name is required")
	}
	if !util.IsValidEmail(p.Email) {
		add("email", "Email address is invalid")
	}
	if p.Gender == "" || !util.IsValidEnum(p.Gender, util.Genders) {
		add("gender", "Gender must be Male or Female")
	}
	if !util.IsValidDate(p.DateOfBirth) {
		add("date_of_birth", "Date of birth must be YYYY-MM-DD")
	}
	if !util.IsValidClock(p.TimeOfBirth) {
		add("time_of_birth", "Time of birth must be HH:MM")
	}
	if strings.TrimSpace(p.PlaceOfBirth) == "" {
		add("place_of_birth", "Place of birth is required")
	}
	if p.ChartStyle == "" || !util.IsValidEnum(p.ChartStyle, util.ChartStyles) {
		add("chart_style", "Chart style must be one of South Indian, North Indian, East Indian, Kerala")
	}
	return fields
}

// Register stores the birth profile, credits the signup bonus on first
// completion and returns a fresh token. The user must already exist from
// OTP verification.
func (s *UserService) Register(ctx context.Context, p model.RegisterParams) (string, error) {
	if fields := ValidateProfile(p); len(fields) > 0 {
		return "", apperrors.InvalidFields(fields...)
	}

	profile, err := s.sealProfile(model.Profile{
		Mobile:       p.Mobile,
		Gender:       p.Gender,
		DateOfBirth:  p.DateOfBirth,
		TimeOfBirth:  p.TimeOfBirth,
		PlaceOfBirth: strings.TrimSpace(p.PlaceOfBirth),
		Latitude:     p.Latitude,
		Longitude:    p.Longitude,
		Country:      p.Country,
		State:        p.State,
		ChartStyle:   p.ChartStyle,
	})
	if err != nil {
		return "", apperrors.Internal("Failed to secure profile").WithCause(err)
	}

	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		users := s.users.WithTx(tx)
		user, err := users.FindByMobile(ctx, p.Mobile)
		if err != nil {
			return apperrors.Database(err)
		}
		if user == nil {
			return apperrors.NotFound("User")
		}
		firstCompletion := !user.ProfileComplete

		if _, err := users.CompleteProfile(ctx, p.Mobile, strings.TrimSpace(p.Name), p.Email); err != nil {
			return apperrors.Database(err)
		}
		if err := s.profiles.WithTx(tx).Upsert(ctx, profile); err != nil {
			return apperrors.Database(err)
		}

		if firstCompletion && s.signupCredit > 0 {
			wallets := s.wallets.WithTx(tx)
			if _, err := wallets.Credit(ctx, p.Mobile, s.signupCredit); err != nil {
				return apperrors.Database(err)
			}
			if _, err := wallets.AddTransaction(ctx, model.CreateTransactionParams{
				Mobile:      p.Mobile,
				Type:        model.TransactionCredit,
				Amount:      s.signupCredit,
				Description: "Signup bonus",
				Reference:   "signup",
			}); err != nil {
				return apperrors.Database(err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	token, err := s.auth.IssueToken(ctx, p.Mobile)
	if err != nil {
		return "", err
	}

	publish(ctx, s.events, p.Mobile, sse.EventStatus, map[string]model.UserStatus{"status": model.UserStatusProcessing})
	log.Info().Str("mobile", util.MaskMobile(p.Mobile)).Msg("user registered")
	return token, nil
}

func (s *UserService) Status(ctx context.Context, mobile string) (*StatusResult, error) {
	user, err := s.users.FindByMobile(ctx, mobile)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if user == nil {
		return nil, apperrors.NotFound("User")
	}

	balance, err := s.wallets.Balance(ctx, mobile)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	result := &StatusResult{Status: user.Status, WalletBalance: &balance}

	profile, err := s.Profile(ctx, mobile)
	if err != nil {
		return nil, err
	}
	if profile != nil {
		result.UserProfile = &UserProfile{Name: user.Name, Email: user.Email, Profile: *profile}
	}
	return result, nil
}

// Profile returns the decrypted birth profile, or nil if none is stored.
func (s *UserService) Profile(ctx context.Context, mobile string) (*model.Profile, error) {
	profile, err := s.profiles.FindByMobile(ctx, mobile)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if profile == nil {
		return nil, nil
	}
	opened, err := s.openProfile(*profile)
	if err != nil {
		return nil, apperrors.Internal("Failed to read profile").WithCause(err)
	}
	return &opened, nil
}

// PendingUsers lists users whose context still needs preparing.
func (s *UserService) PendingUsers(ctx context.Context, limit int) ([]model.User, error) {
	return s.users.FindByStatus(ctx, model.UserStatusProcessing, limit)
}

// PrepareContext builds and stores the astrological context for a user and
// moves them to ready, or to failed when the oracle cannot produce one.
func (s *UserService) PrepareContext(ctx context.Context, user model.User) (model.UserStatus, error) {
	profile, err := s.Profile(ctx, user.Mobile)
	if err != nil {
		return "", err
	}

	status := model.UserStatusReady
	if profile == nil {
		status = model.UserStatusFailed
	} else {
		text, err := s.responder.PrepareContext(ctx, user.Name, *profile)
		if err != nil {
			log.Warn().Err(err).Str("mobile", util.MaskMobile(user.Mobile)).Msg("context preparation failed")
			status = model.UserStatusFailed
		} else {
			sealed, err := s.cipher.Seal(text)
			if err != nil {
				return "", fmt.Errorf("seal context: %w", err)
			}
			if err := s.profiles.UpdateContext(ctx, user.Mobile, sealed); err != nil {
				return "", fmt.Errorf("store context: %w", err)
			}
		}
	}

	if err := s.users.UpdateStatus(ctx, user.Mobile, status); err != nil {
		return "", fmt.Errorf("update status: %w", err)
	}

	publish(ctx, s.events, user.Mobile, sse.EventStatus, map[string]model.UserStatus{"status": status})
	return status, nil
}

func (s *UserService) sealProfile(p model.Profile) (model.Profile, error) {
	var err error
	for _, field := range []*string{&p.DateOfBirth, &p.TimeOfBirth, &p.PlaceOfBirth, &p.Latitude, &p.Longitude} {
		if *field, err = s.cipher.Seal(*field); err != nil {
			return p, err
		}
	}
	return p, nil
}

func (s *UserService) openProfile(p model.Profile) (model.Profile, error) {
	var err error
	for _, field := range []*string{&p.DateOfBirth, &p.TimeOfBirth, &p.PlaceOfBirth, &p.Latitude, &p.Longitude, &p.Context} {
		if *field, err = s.cipher.Open(*field); err != nil {
			return p, err
		}
	}
	return p, nil
}
