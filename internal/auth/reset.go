package auth

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/threadline-io/threadline-backend/internal/users"
	"github.com/threadline-io/threadline-backend/pkg/config"
	"github.com/threadline-io/threadline-backend/pkg/db/models"
	pkgerrors "github.com/threadline-io/threadline-backend/pkg/errors"
	"github.com/threadline-io/threadline-backend/pkg/logger"
	"github.com/threadline-io/threadline-backend/pkg/redis"
	"github.com/threadline-io/threadline-backend/pkg/security"
)

const otpPurposeReset = "reset"

type pendingReset struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// PasswordResetService handles the forgot-password OTP flow.
type PasswordResetService interface {
	Start(ctx context.Context, req PasswordResetStartRequest) error
	Confirm(ctx context.Context, req PasswordResetConfirmRequest) error
}

type resetUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

type resetMailer interface {
	SendPasswordResetCode(ctx context.Context, to, name, code string) error
}

// PasswordResetServiceParams packages the dependencies for the reset flow.
type PasswordResetServiceParams struct {
	TxRunner        txRunner
	UserRepoFactory func(tx *gorm.DB) resetUserRepository
	OTPStore        otpStore
	Mailer          resetMailer
	PasswordConfig  config.PasswordConfig
	OTPConfig       config.OTPConfig
	Logger          *logger.Logger
}

type passwordResetService struct {
	tx          txRunner
	userRepos   func(tx *gorm.DB) resetUserRepository
	otp         otpStore
	mailer      resetMailer
	passwordCfg config.PasswordConfig
	otpCfg      config.OTPConfig
	logg        *logger.Logger
}

// DefaultResetUserRepoFactory adapts the users repository for reset wiring.
func DefaultResetUserRepoFactory(tx *gorm.DB) resetUserRepository {
	return users.NewRepository(tx)
}

// NewPasswordResetService builds a reset service with the provided dependencies.
func NewPasswordResetService(params PasswordResetServiceParams) (PasswordResetService, error) {
	if params.TxRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "tx runner required")
	}
	if params.UserRepoFactory == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "user repo factory required")
	}
	if params.OTPStore == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "otp store required")
	}
	if params.Mailer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "mailer required")
	}
	return &passwordResetService{
		tx:          params.TxRunner,
		userRepos:   params.UserRepoFactory,
		otp:         params.OTPStore,
		mailer:      params.Mailer,
		passwordCfg: params.PasswordConfig,
		otpCfg:      params.OTPConfig,
		logg:        params.Logger,
	}, nil
}

// Start emails a reset code when the account exists. It reports success either
// way so the endpoint does not leak which emails are registered.
func (s *passwordResetService) Start(ctx context.Context, req PasswordResetStartRequest) error {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	var user *models.User
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		found, err := s.userRepos(tx).FindByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
		}
		user = found
		return nil
	})
	if err != nil {
		return err
	}
	if user == nil || !user.IsActive {
		return nil
	}

	code, err := security.GenerateOTP(s.otpCfg.Digits)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate code")
	}

	payload, err := json.Marshal(pendingReset{Email: email, Code: code})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal pending reset")
	}

	if err := s.otp.Set(ctx, s.otp.OTPKey(otpPurposeReset, email), payload, s.otpCfg.TTL); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store pending reset")
	}
	if err := s.otp.Del(ctx, s.otp.OTPAttemptsKey(otpPurposeReset, email)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reset attempt counter")
	}

	if err := s.mailer.SendPasswordResetCode(ctx, email, user.Name, code); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send reset email")
	}
	return nil
}

func (s *passwordResetService) Confirm(ctx context.Context, req PasswordResetConfirmRequest) error {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	key := s.otp.OTPKey(otpPurposeReset, email)
	raw, err := s.otp.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "reset code expired or not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load pending reset")
	}

	var pending pendingReset
	if err := json.Unmarshal([]byte(raw), &pending); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode pending reset")
	}

	attemptsKey := s.otp.OTPAttemptsKey(otpPurposeReset, email)
	attempts, err := s.otp.IncrWithTTL(ctx, attemptsKey, s.otpCfg.TTL)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count attempt")
	}
	if attempts > int64(s.otpCfg.MaxAttempts) {
		if delErr := s.otp.Del(ctx, key, attemptsKey); delErr != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", delErr.Error()), "failed to drop exhausted reset entry")
		}
		return pkgerrors.New(pkgerrors.CodeRateLimit, "too many reset attempts, restart the flow")
	}

	if subtle.ConstantTimeCompare([]byte(pending.Code), []byte(strings.TrimSpace(req.Code))) != 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid reset code")
	}

	hash, err := security.HashPassword(req.NewPassword, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := s.userRepos(tx)
		user, err := userRepo.FindByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
		}
		if err := userRepo.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update password")
		}
		return nil
	})
	if err != nil {
		return err
	}

	if delErr := s.otp.Del(ctx, key, attemptsKey); delErr != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", delErr.Error()), "failed to drop consumed reset entry")
	}
	return nil
}
