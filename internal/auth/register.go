package auth

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/threadline-io/threadline-backend/internal/users"
	"github.com/threadline-io/threadline-backend/pkg/config"
	"github.com/threadline-io/threadline-backend/pkg/db/models"
	pkgerrors "github.com/threadline-io/threadline-backend/pkg/errors"
	"github.com/threadline-io/threadline-backend/pkg/logger"
	"github.com/threadline-io/threadline-backend/pkg/redis"
	"github.com/threadline-io/threadline-backend/pkg/security"
)

const otpPurposeRegister = "register"

// pendingRegistration is the JSON payload held in Redis until the emailed
// code is verified. The password is stored only as its argon2id hash.
type pendingRegistration struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
	Code         string `json:"code"`
}

// RegisterService handles the two-step OTP registration flow.
type RegisterService interface {
	Start(ctx context.Context, req RegisterStartRequest) error
	Verify(ctx context.Context, req RegisterVerifyRequest) (*LoginResponse, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type registerUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
}

type otpStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	OTPKey(purpose, email string) string
	OTPAttemptsKey(purpose, email string) string
}

type codeMailer interface {
	SendVerificationCode(ctx context.Context, to, name, code string) error
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	TxRunner        txRunner
	UserRepoFactory func(tx *gorm.DB) registerUserRepository
	OTPStore        otpStore
	Mailer          codeMailer
	Sessions        sessionStore
	PasswordConfig  config.PasswordConfig
	OTPConfig       config.OTPConfig
	JWTConfig       config.JWTConfig
	Logger          *logger.Logger
}

type registerService struct {
	tx          txRunner
	userRepos   func(tx *gorm.DB) registerUserRepository
	otp         otpStore
	mailer      codeMailer
	sessions    sessionStore
	passwordCfg config.PasswordConfig
	otpCfg      config.OTPConfig
	jwtCfg      config.JWTConfig
	logg        *logger.Logger
}

// DefaultUserRepoFactory adapts the users repository for registration wiring.
func DefaultUserRepoFactory(tx *gorm.DB) registerUserRepository {
	return users.NewRepository(tx)
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
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
	if params.Sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session store required")
	}
	return &registerService{
		tx:          params.TxRunner,
		userRepos:   params.UserRepoFactory,
		otp:         params.OTPStore,
		mailer:      params.Mailer,
		sessions:    params.Sessions,
		passwordCfg: params.PasswordConfig,
		otpCfg:      params.OTPConfig,
		jwtCfg:      params.JWTConfig,
		logg:        params.Logger,
	}, nil
}

func (s *registerService) Start(ctx context.Context, req RegisterStartRequest) error {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.userRepos(tx).FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}
		return nil
	})
	if err != nil {
		return err
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	code, err := security.GenerateOTP(s.otpCfg.Digits)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate code")
	}

	payload, err := json.Marshal(pendingRegistration{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Code:         code,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal pending registration")
	}

	// Restarting replaces any pending entry and resets the attempt counter.
	if err := s.otp.Set(ctx, s.otp.OTPKey(otpPurposeRegister, email), payload, s.otpCfg.TTL); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store pending registration")
	}
	if err := s.otp.Del(ctx, s.otp.OTPAttemptsKey(otpPurposeRegister, email)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reset attempt counter")
	}

	if err := s.mailer.SendVerificationCode(ctx, email, name, code); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send verification email")
	}
	return nil
}

func (s *registerService) Verify(ctx context.Context, req RegisterVerifyRequest) (*LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	key := s.otp.OTPKey(otpPurposeRegister, email)
	raw, err := s.otp.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "verification code expired or not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load pending registration")
	}

	var pending pendingRegistration
	if err := json.Unmarshal([]byte(raw), &pending); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode pending registration")
	}

	attemptsKey := s.otp.OTPAttemptsKey(otpPurposeRegister, email)
	attempts, err := s.otp.IncrWithTTL(ctx, attemptsKey, s.otpCfg.TTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count attempt")
	}
	if attempts > int64(s.otpCfg.MaxAttempts) {
		if delErr := s.otp.Del(ctx, key, attemptsKey); delErr != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", delErr.Error()), "failed to drop exhausted registration entry")
		}
		return nil, pkgerrors.New(pkgerrors.CodeRateLimit, "too many verification attempts, restart registration")
	}

	if subtle.ConstantTimeCompare([]byte(pending.Code), []byte(strings.TrimSpace(req.Code))) != 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid verification code")
	}

	var created *users.UserDTO
	var token string
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := s.userRepos(tx)

		if _, err := userRepo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		user, err := userRepo.Create(ctx, users.CreateUserDTO{
			Email:        email,
			PasswordHash: pending.PasswordHash,
			Name:         pending.Name,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}

		token, err = issueSession(ctx, s.sessions, s.jwtCfg, time.Now().UTC(), user)
		if err != nil {
			return err
		}
		created = users.FromModel(user)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if delErr := s.otp.Del(ctx, key, attemptsKey); delErr != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", delErr.Error()), "failed to drop consumed registration entry")
	}

	return &LoginResponse{
		AccessToken: token,
		User:        created,
	}, nil
}
