package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/threadline-io/threadline-backend/internal/users"
	"github.com/threadline-io/threadline-backend/pkg/config"
	pkgmodels "github.com/threadline-io/threadline-backend/pkg/db/models"
	"github.com/threadline-io/threadline-backend/pkg/enums"
	pkgerrors "github.com/threadline-io/threadline-backend/pkg/errors"
	"github.com/threadline-io/threadline-backend/pkg/redis"
)

type stubTxRunner struct{}

func (s stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubUserRepository struct {
	data    map[string]*pkgmodels.User
	created *pkgmodels.User
}

func newStubUserRepository() *stubUserRepository {
	return &stubUserRepository{data: map[string]*pkgmodels.User{}}
}

func (s *stubUserRepository) FindByEmail(ctx context.Context, email string) (*pkgmodels.User, error) {
	if user, ok := s.data[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepository) Create(ctx context.Context, dto users.CreateUserDTO) (*pkgmodels.User, error) {
	user := dto.ToModel()
	user.ID = uuid.New()
	s.data[dto.Email] = user
	s.created = user
	return user, nil
}

func (s *stubUserRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	for _, user := range s.data {
		if user.ID == id {
			user.PasswordHash = hash
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type stubOTPStore struct {
	data     map[string]string
	counters map[string]int64
}

func newStubOTPStore() *stubOTPStore {
	return &stubOTPStore{data: map[string]string{}, counters: map[string]int64{}}
}

func (s *stubOTPStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	switch v := value.(type) {
	case []byte:
		s.data[key] = string(v)
	default:
		s.data[key] = fmt.Sprint(v)
	}
	return nil
}

func (s *stubOTPStore) Get(ctx context.Context, key string) (string, error) {
	v, ok := s.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (s *stubOTPStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.data, key)
		delete(s.counters, key)
	}
	return nil
}

func (s *stubOTPStore) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	s.counters[key]++
	return s.counters[key], nil
}

func (s *stubOTPStore) OTPKey(purpose, email string) string {
	return "otp:" + purpose + ":" + email
}

func (s *stubOTPStore) OTPAttemptsKey(purpose, email string) string {
	return "attempts:" + purpose + ":" + email
}

type stubMailer struct {
	sentTo    []string
	lastCode  string
	resetTo   []string
	resetCode string
}

func (m *stubMailer) SendVerificationCode(ctx context.Context, to, name, code string) error {
	m.sentTo = append(m.sentTo, to)
	m.lastCode = code
	return nil
}

func (m *stubMailer) SendPasswordResetCode(ctx context.Context, to, name, code string) error {
	m.resetTo = append(m.resetTo, to)
	m.resetCode = code
	return nil
}

type registerTestSetup struct {
	service  RegisterService
	userRepo *stubUserRepository
	otp      *stubOTPStore
	mailer   *stubMailer
	sessions *stubSessionStore
}

func newRegisterTestSetup(t *testing.T) *registerTestSetup {
	t.Helper()
	userRepo := newStubUserRepository()
	otp := newStubOTPStore()
	mailer := &stubMailer{}
	sessions := &stubSessionStore{}
	svc, err := NewRegisterService(RegisterServiceParams{
		TxRunner: stubTxRunner{},
		UserRepoFactory: func(tx *gorm.DB) registerUserRepository {
			return userRepo
		},
		OTPStore:       otp,
		Mailer:         mailer,
		Sessions:       sessions,
		PasswordConfig: config.PasswordConfig{},
		OTPConfig:      config.OTPConfig{TTL: 10 * time.Minute, MaxAttempts: 3, Digits: 6},
		JWTConfig:      testJWT(),
	})
	if err != nil {
		t.Fatalf("new register service: %v", err)
	}
	return &registerTestSetup{
		service:  svc,
		userRepo: userRepo,
		otp:      otp,
		mailer:   mailer,
		sessions: sessions,
	}
}

func TestRegisterStartStoresPendingAndEmailsCode(t *testing.T) {
	setup := newRegisterTestSetup(t)

	err := setup.service.Start(context.Background(), RegisterStartRequest{
		Name:     "Jamie Rivera",
		Email:    "Jamie@Example.com",
		Password: "Secret123!",
	})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	if len(setup.mailer.sentTo) != 1 || setup.mailer.sentTo[0] != "jamie@example.com" {
		t.Fatalf("expected code emailed to normalized address, got %v", setup.mailer.sentTo)
	}

	raw, ok := setup.otp.data[setup.otp.OTPKey(otpPurposeRegister, "jamie@example.com")]
	if !ok {
		t.Fatalf("expected pending registration entry")
	}
	var pending pendingRegistration
	if err := json.Unmarshal([]byte(raw), &pending); err != nil {
		t.Fatalf("decode pending: %v", err)
	}
	if pending.Code != setup.mailer.lastCode {
		t.Fatalf("stored code does not match emailed code")
	}
	if pending.PasswordHash == "Secret123!" || pending.PasswordHash == "" {
		t.Fatalf("password must be stored hashed")
	}
	if setup.userRepo.created != nil {
		t.Fatalf("no user should exist before verification")
	}
}

func TestRegisterStartRejectsExistingEmail(t *testing.T) {
	setup := newRegisterTestSetup(t)
	setup.userRepo.data["taken@example.com"] = &pkgmodels.User{ID: uuid.New(), Email: "taken@example.com"}

	err := setup.service.Start(context.Background(), RegisterStartRequest{
		Name:     "Taken",
		Email:    "taken@example.com",
		Password: "Secret123!",
	})
	assertCode(t, err, pkgerrors.CodeConflict)
}

func TestRegisterVerifyCreatesUserAndSession(t *testing.T) {
	setup := newRegisterTestSetup(t)
	ctx := context.Background()

	if err := setup.service.Start(ctx, RegisterStartRequest{
		Name:     "Jamie Rivera",
		Email:    "jamie@example.com",
		Password: "Secret123!",
	}); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	resp, err := setup.service.Verify(ctx, RegisterVerifyRequest{
		Email: "jamie@example.com",
		Code:  setup.mailer.lastCode,
	})
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	if setup.userRepo.created == nil {
		t.Fatalf("expected user to be created")
	}
	if setup.userRepo.created.Role != enums.UserRoleCustomer {
		t.Fatalf("expected customer role, got %s", setup.userRepo.created.Role)
	}
	if resp.AccessToken == "" {
		t.Fatalf("expected access token")
	}
	if len(setup.sessions.stored) != 1 {
		t.Fatalf("expected session stored")
	}
	if _, ok := setup.otp.data[setup.otp.OTPKey(otpPurposeRegister, "jamie@example.com")]; ok {
		t.Fatalf("pending entry should be consumed")
	}
}

func TestRegisterVerifyRejectsWrongCode(t *testing.T) {
	setup := newRegisterTestSetup(t)
	ctx := context.Background()

	if err := setup.service.Start(ctx, RegisterStartRequest{
		Name:     "Jamie Rivera",
		Email:    "jamie@example.com",
		Password: "Secret123!",
	}); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	_, err := setup.service.Verify(ctx, RegisterVerifyRequest{
		Email: "jamie@example.com",
		Code:  wrongCode(setup.mailer.lastCode),
	})
	assertCode(t, err, pkgerrors.CodeValidation)
	if setup.userRepo.created != nil {
		t.Fatalf("no user should be created on wrong code")
	}
}

func wrongCode(actual string) string {
	if actual == "000000" {
		return "111111"
	}
	return "000000"
}

func TestRegisterVerifyExhaustsAttempts(t *testing.T) {
	setup := newRegisterTestSetup(t)
	ctx := context.Background()

	if err := setup.service.Start(ctx, RegisterStartRequest{
		Name:     "Jamie Rivera",
		Email:    "jamie@example.com",
		Password: "Secret123!",
	}); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		_, err := setup.service.Verify(ctx, RegisterVerifyRequest{
			Email: "jamie@example.com",
			Code:  wrongCode(setup.mailer.lastCode),
		})
		assertCode(t, err, pkgerrors.CodeValidation)
	}

	_, err := setup.service.Verify(ctx, RegisterVerifyRequest{
		Email: "jamie@example.com",
		Code:  setup.mailer.lastCode,
	})
	assertCode(t, err, pkgerrors.CodeRateLimit)

	if _, ok := setup.otp.data[setup.otp.OTPKey(otpPurposeRegister, "jamie@example.com")]; ok {
		t.Fatalf("exhausted entry should be dropped")
	}
}

func TestRegisterVerifyExpiredEntry(t *testing.T) {
	setup := newRegisterTestSetup(t)

	_, err := setup.service.Verify(context.Background(), RegisterVerifyRequest{
		Email: "nobody@example.com",
		Code:  "123456",
	})
	assertCode(t, err, pkgerrors.CodeNotFound)
}
