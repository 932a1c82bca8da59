package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/projtrack/apiserver/internal/store"
	"github.com/projtrack/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

// codeExpiryWindow is how long verification and reset codes stay valid.
const codeExpiryWindow = 15 * time.Minute

// Outcome messages returned to clients. ResetRequestedMessage is shared
// by the found and not-found paths of ForgotPassword so the two are
// indistinguishable.
const (
	RegisteredMessage      = "Registration successful! Please check your email for the verification code."
	AlreadyVerifiedMessage = "Email is already verified. You can login now."
	VerifiedMessage        = "Email verified successfully! You can now login."
	CodeResentMessage      = "A new verification code has been sent to your email."
	ResetRequestedMessage  = "If an account with that email exists, a password reset code has been sent."
	PasswordResetMessage   = "Password has been reset successfully. You can now login with your new password."
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
}

// Notifier delivers messages to an email address. Implementations are
// fire-and-forget: they must not block the calling request and their
// failures never propagate back.
type Notifier interface {
	VerificationCode(ctx context.Context, email, firstName, code string)
	PasswordResetCode(ctx context.Context, email, firstName, code string)
	ProjectStatusChanged(ctx context.Context, email, projectName, oldStatus, newStatus string)
}

// RegisterInput carries the fields needed to create an account.
type RegisterInput struct {
	Email           string
	Password        string
	ConfirmPassword string
	FirstName       string
	LastName        string
	CompanyName     string
}

// UserService drives the account lifecycle: registration, email
// verification, login, and password reset.
type UserService struct {
	repo     UserRepository
	notifier Notifier
	now      func() time.Time
}

func NewUserService(repo UserRepository, notifier Notifier) *UserService {
	return &UserService{
		repo:     repo,
		notifier: notifier,
		now:      time.Now,
	}
}

// Register creates an unverified account and sends the verification code.
// The new user cannot log in until VerifyEmail succeeds.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (types.User, error) {
	email := types.NormalizeEmail(in.Email)

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return types.User{}, ErrAlreadyExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, fmt.Errorf("check existing user: %w", err)
	}

	if in.Password != in.ConfirmPassword {
		return types.User{}, passwordsDoNotMatch()
	}
	if violations := ValidatePassword(in.Password); len(violations) > 0 {
		return types.User{}, &PasswordPolicyError{Violations: violations}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return types.User{}, fmt.Errorf("hash password: %w", err)
	}

	code, err := GenerateCode()
	if err != nil {
		return types.User{}, err
	}

	user, err := s.repo.Create(ctx, types.User{
		Email:                  email,
		FirstName:              strings.TrimSpace(in.FirstName),
		LastName:               strings.TrimSpace(in.LastName),
		CompanyName:            strings.TrimSpace(in.CompanyName),
		Role:                   types.RoleUser,
		PasswordHash:           string(hashed),
		EmailVerified:          false,
		Enabled:                false,
		VerificationCode:       sql.NullString{String: code, Valid: true},
		VerificationCodeExpiry: sql.NullTime{Time: s.now().Add(codeExpiryWindow), Valid: true},
	})
	if err != nil {
		return types.User{}, fmt.Errorf("create user: %w", err)
	}

	s.notifier.VerificationCode(ctx, user.Email, user.FirstName, code)
	return user, nil
}

// VerifyEmail consumes the verification code and marks the account
// verified. Verifying an already-verified account succeeds without any
// state change. On success the code slot is cleared, so resubmitting the
// same code fails with ErrInvalidCode.
func (s *UserService) VerifyEmail(ctx context.Context, email, code string) (string, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("load user: %w", err)
	}

	if user.EmailVerified {
		return AlreadyVerifiedMessage, nil
	}

	// Generated codes are uppercase, so normalize what the client typed.
	submitted := strings.ToUpper(strings.TrimSpace(code))
	if !user.VerificationCode.Valid || user.VerificationCode.String != submitted {
		return "", ErrInvalidCode
	}
	if !user.VerificationCodeExpiry.Valid || s.now().After(user.VerificationCodeExpiry.Time) {
		return "", ErrCodeExpired
	}

	user.EmailVerified = true
	user.Enabled = true
	user.VerificationCode = sql.NullString{}
	user.VerificationCodeExpiry = sql.NullTime{}
	if _, err := s.repo.Update(ctx, user); err != nil {
		return "", fmt.Errorf("mark verified: %w", err)
	}
	return VerifiedMessage, nil
}

// ResendVerificationCode replaces any pending verification code with a
// fresh one. The previous code becomes unusable immediately.
func (s *UserService) ResendVerificationCode(ctx context.Context, email string) (string, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("load user: %w", err)
	}

	if user.EmailVerified {
		return AlreadyVerifiedMessage, nil
	}

	code, err := GenerateCode()
	if err != nil {
		return "", err
	}
	user.VerificationCode = sql.NullString{String: code, Valid: true}
	user.VerificationCodeExpiry = sql.NullTime{Time: s.now().Add(codeExpiryWindow), Valid: true}
	if _, err := s.repo.Update(ctx, user); err != nil {
		return "", fmt.Errorf("store new code: %w", err)
	}

	s.notifier.VerificationCode(ctx, user.Email, user.FirstName, code)
	return CodeResentMessage, nil
}

// Login authenticates an account. An unknown email and a wrong password
// both return ErrInvalidCredentials so account existence cannot be
// probed. Unverified accounts are rejected before the password is
// checked.
func (s *UserService) Login(ctx context.Context, email, password string) (types.User, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrInvalidCredentials
		}
		return types.User{}, fmt.Errorf("load user: %w", err)
	}

	if !user.EmailVerified {
		return types.User{}, ErrEmailNotVerified
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return types.User{}, ErrInvalidCredentials
	}

	return user, nil
}

// ForgotPassword issues a password reset code. It always returns the
// same generic message whether or not the account exists. A new request
// overwrites any pending reset code, so at most one is live at a time.
func (s *UserService) ForgotPassword(ctx context.Context, email string) (string, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ResetRequestedMessage, nil
		}
		return "", fmt.Errorf("load user: %w", err)
	}

	code, err := GenerateCode()
	if err != nil {
		return "", err
	}
	user.PasswordResetCode = sql.NullString{String: code, Valid: true}
	user.PasswordResetCodeExpiry = sql.NullTime{Time: s.now().Add(codeExpiryWindow), Valid: true}
	if _, err := s.repo.Update(ctx, user); err != nil {
		return "", fmt.Errorf("store reset code: %w", err)
	}

	s.notifier.PasswordResetCode(ctx, user.Email, user.FirstName, code)
	return ResetRequestedMessage, nil
}

// ResetPassword consumes a reset code and stores the new password hash.
// The verification slot is untouched.
func (s *UserService) ResetPassword(ctx context.Context, email, code, newPassword, confirmPassword string) (string, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("load user: %w", err)
	}

	submitted := strings.ToUpper(strings.TrimSpace(code))
	if !user.PasswordResetCode.Valid || user.PasswordResetCode.String != submitted {
		return "", ErrInvalidCode
	}
	if !user.PasswordResetCodeExpiry.Valid || s.now().After(user.PasswordResetCodeExpiry.Time) {
		return "", ErrCodeExpired
	}

	if newPassword != confirmPassword {
		return "", passwordsDoNotMatch()
	}
	if violations := ValidatePassword(newPassword); len(violations) > 0 {
		return "", &PasswordPolicyError{Violations: violations}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	user.PasswordHash = string(hashed)
	user.PasswordResetCode = sql.NullString{}
	user.PasswordResetCodeExpiry = sql.NullTime{}
	if _, err := s.repo.Update(ctx, user); err != nil {
		return "", fmt.Errorf("store new password: %w", err)
	}
	return PasswordResetMessage, nil
}

// GetByID loads a user by id.
func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}
