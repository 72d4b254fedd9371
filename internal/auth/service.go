package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/medibook/clinic-platform/internal/notify"
	"github.com/medibook/clinic-platform/pkg/logging"
)

// Notifier is the slice of the notification dispatcher auth depends on.
type Notifier interface {
	SendVerification(ctx context.Context, payload notify.VerificationPayload) error
	SendPasswordReset(ctx context.Context, payload notify.PasswordResetPayload) error
}

// ServiceConfig tunes the auth service.
type ServiceConfig struct {
	JWTSecret  string
	JWTExpiry  time.Duration
	BcryptCost int
	OTPTTL     time.Duration
}

// Service implements registration, login and the password flows.
type Service struct {
	repo     Repository
	otp      OTPStore
	notifier Notifier
	cfg      ServiceConfig
	logger   *logging.Logger
}

// NewService creates the auth service.
func NewService(repo Repository, otp OTPStore, notifier Notifier, cfg ServiceConfig, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.JWTExpiry == 0 {
		cfg.JWTExpiry = 24 * time.Hour
	}
	if cfg.OTPTTL == 0 {
		cfg.OTPTTL = 10 * time.Minute
	}
	return &Service{
		repo:     repo,
		otp:      otp,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
	}
}

// Register creates an unverified account and emails the verification OTP.
// A failed verification email does not roll back the account; the code can
// be re-requested.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = RolePatient
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}

	user := &User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		Email:        req.NormalizedEmail(),
		Phone:        strings.TrimSpace(req.Phone),
		Role:         role,
		PasswordHash: string(hash),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	if err := s.sendVerificationCode(ctx, user); err != nil {
		s.logger.Error("verification email failed after registration", "user_id", user.ID, "error", err)
	}

	s.logger.Info("user registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// ResendVerification issues a fresh OTP for an unverified account.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.EmailVerified {
		return nil
	}
	return s.sendVerificationCode(ctx, user)
}

func (s *Service) sendVerificationCode(ctx context.Context, user *User) error {
	code, err := GenerateOTP()
	if err != nil {
		return err
	}
	if err := s.otp.Put(ctx, user.Email, code, s.cfg.OTPTTL); err != nil {
		return err
	}
	return s.notifier.SendVerification(ctx, notify.VerificationPayload{
		Email:   user.Email,
		Name:    user.Name,
		OTPCode: code,
	})
}

// VerifyEmail consumes the OTP and marks the account verified.
func (s *Service) VerifyEmail(ctx context.Context, req *VerifyEmailRequest) error {
	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrInvalidOTP
		}
		return err
	}

	ok, err := s.otp.Consume(ctx, user.Email, strings.TrimSpace(req.Code))
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidOTP
	}
	return s.repo.MarkEmailVerified(ctx, user.ID)
}

// LoginResult carries the signed session token plus the legacy credential
// string the web client persists.
type LoginResult struct {
	Token        string `json:"token"`
	SessionToken string `json:"session_token"`
	User         *User  `json:"user"`
}

// Login checks credentials and issues session tokens.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*LoginResult, error) {
	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	cred := Credential{UserID: user.ID, Email: user.Email, Role: user.Role}
	token, err := IssueToken(s.cfg.JWTSecret, cred, s.cfg.JWTExpiry)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", "user_id", user.ID, "role", user.Role)
	return &LoginResult{
		Token:        token,
		SessionToken: cred.Encode(),
		User:         user,
	}, nil
}

// ForgotPassword replaces the password with an emailed temporary one.
//
// When no account matches, it returns nil so the caller renders the same
// generic success response either way; a distinct failure surfaces only when
// the account exists and the email transport itself fails. The asymmetry is
// deliberate (account-enumeration resistance).
func (s *Service) ForgotPassword(ctx context.Context, req *ForgotPasswordRequest) error {
	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.logger.Debug("password reset requested for unknown email")
			return nil
		}
		return err
	}

	tempPassword, err := GenerateTempPassword(12)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("auth: hash temp password: %w", err)
	}
	if err := s.repo.UpdatePasswordHash(ctx, user.ID, string(hash)); err != nil {
		return err
	}

	if err := s.notifier.SendPasswordReset(ctx, notify.PasswordResetPayload{
		Email:        user.Email,
		Name:         user.Name,
		TempPassword: tempPassword,
	}); err != nil {
		return err
	}

	s.logger.Info("temporary password issued", "user_id", user.ID)
	return nil
}

// GetUser loads a user by id.
func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}
