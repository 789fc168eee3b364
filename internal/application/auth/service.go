package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/selorg/ops-api/internal/application/otp"
	"github.com/selorg/ops-api/internal/config"
	"github.com/selorg/ops-api/internal/domain"
	"github.com/selorg/ops-api/internal/pkg/id"
	pkgphone "github.com/selorg/ops-api/internal/pkg/phone"
	"github.com/selorg/ops-api/internal/security"
	"github.com/selorg/ops-api/internal/sms"
)

// Users is the persistence surface the orchestrator needs.
// *dynamo.UserRepo satisfies it.
type Users interface {
	Put(ctx context.Context, u *domain.User) error
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

// OTPVerifier issues and verifies one-time codes. *otp.Service satisfies it.
type OTPVerifier interface {
	Issue(ctx context.Context, phone, code string) error
	Verify(ctx context.Context, phone, submitted string) (bool, error)
	TTL() time.Duration
}

// Sender delivers the code over SMS. *sms.Dispatcher satisfies it.
type Sender interface {
	Send(ctx context.Context, phone, code string, expiry time.Duration) sms.SendResult
}

// TokenSigner mints session tokens. *jwtinfra.Provider satisfies it.
type TokenSigner interface {
	Sign(userID, phone, role string) (string, error)
}

// SendOTPResult is the outcome of a send or resend request. OTP is populated
// only when delivery was bypassed (dev mode, test numbers, override code).
type SendOTPResult struct {
	Success           bool   `json:"success"`
	Message           string `json:"message"`
	OTP               string `json:"otp,omitempty"`
	ErrorCode         string `json:"errorCode,omitempty"`
	RetryAfterSeconds int    `json:"retryAfterSeconds,omitempty"`
}

// AuthResult is the outcome of a verification or credential login.
type AuthResult struct {
	Success           bool         `json:"success"`
	Message           string       `json:"message"`
	Token             string       `json:"token,omitempty"`
	User              *domain.User `json:"user,omitempty"`
	ErrorCode         string       `json:"errorCode,omitempty"`
	RetryAfterSeconds int          `json:"retryAfterSeconds,omitempty"`
}

// Service orchestrates phone OTP authentication and credential sessions.
type Service struct {
	users     Users
	otps      OTPVerifier
	sender    Sender
	signer    TokenSigner
	lockouts  *security.LockoutStore
	blocklist *security.BlocklistStore
	otpCfg    config.OTPConfig
}

func NewService(
	users Users,
	otps OTPVerifier,
	sender Sender,
	signer TokenSigner,
	lockouts *security.LockoutStore,
	blocklist *security.BlocklistStore,
	otpCfg config.OTPConfig,
) *Service {
	return &Service{
		users:     users,
		otps:      otps,
		sender:    sender,
		signer:    signer,
		lockouts:  lockouts,
		blocklist: blocklist,
		otpCfg:    otpCfg,
	}
}

// SendOTP generates a code for rawPhone, dispatches it over SMS and persists
// it. The code is persisted only after a provider accepted delivery, so a
// failed dispatch never leaves a live verifiable code behind.
//
// Bypass modes short-circuit delivery entirely: dev mode echoes every code
// back, test numbers carry a fixed code each, and the override code replaces
// generation wholesale. All three still persist, so verification works.
func (s *Service) SendOTP(ctx context.Context, rawPhone string) (*SendOTPResult, error) {
	phone := pkgphone.Normalize(rawPhone)
	if phone == "" {
		return &SendOTPResult{
			Message:   "A valid 10-digit mobile number is required",
			ErrorCode: domain.CodeInvalidPhone,
		}, fmt.Errorf("send otp: %w", domain.ErrBadRequest)
	}

	code, bypass, err := s.pickCode(phone)
	if err != nil {
		slog.Error("otp generation failed", "err", err)
		return nil, fmt.Errorf("send otp: %w", domain.ErrUnavailable)
	}

	if bypass {
		if err := s.otps.Issue(ctx, phone, code); err != nil {
			return nil, err
		}
		slog.Info("otp issued without delivery", "phone", phone)
		return &SendOTPResult{Success: true, Message: "OTP generated", OTP: code}, nil
	}

	res := s.sender.Send(ctx, phone, code, s.otps.TTL())
	if !res.Sent {
		return &SendOTPResult{
			Message:   res.UserMessage,
			ErrorCode: res.ErrorCode,
		}, nil
	}
	if err := s.otps.Issue(ctx, phone, code); err != nil {
		return nil, err
	}
	return &SendOTPResult{Success: true, Message: "OTP sent successfully"}, nil
}

// ResendOTP is deliberately identical to SendOTP. There is no cooldown
// between sends; the rate limiter at the transport layer is the only brake.
func (s *Service) ResendOTP(ctx context.Context, rawPhone string) (*SendOTPResult, error) {
	return s.SendOTP(ctx, rawPhone)
}

// VerifyOTP checks the submitted code, consumes it and mints a session token.
// Unknown phones get a fresh customer account. Repeated failures lock the
// phone out for a window.
func (s *Service) VerifyOTP(ctx context.Context, rawPhone, code string) (*AuthResult, error) {
	phone := pkgphone.Normalize(rawPhone)
	if phone == "" {
		return &AuthResult{
			Message:   "A valid 10-digit mobile number is required",
			ErrorCode: domain.CodeInvalidPhone,
		}, fmt.Errorf("verify otp: %w", domain.ErrBadRequest)
	}

	if locked, retry := s.lockouts.IsLocked(phone); locked {
		return &AuthResult{
			Message:           "Too many failed attempts, try again later",
			ErrorCode:         domain.CodeTooManyAttempts,
			RetryAfterSeconds: retry,
		}, fmt.Errorf("verify otp: %w", domain.ErrLocked)
	}

	ok, err := s.otps.Verify(ctx, phone, code)
	if err != nil {
		if errors.Is(err, domain.ErrBadRequest) {
			s.lockouts.RecordFailure(phone)
			return &AuthResult{
				Message:   "Incorrect OTP",
				ErrorCode: domain.CodeIncorrectOTP,
			}, nil
		}
		return nil, err
	}
	if !ok {
		s.lockouts.RecordFailure(phone)
		return &AuthResult{
			Message:   "OTP is invalid or has expired",
			ErrorCode: domain.CodeOTPExpired,
		}, nil
	}
	s.lockouts.ClearAttempts(phone)

	user, err := s.lookupOrCreate(ctx, phone)
	if err != nil {
		return nil, err
	}
	if !user.Enable {
		return &AuthResult{
			Message: "Account is disabled",
		}, fmt.Errorf("verify otp: %w", domain.ErrForbidden)
	}

	token, err := s.signer.Sign(user.UserID, user.Phone, user.Role)
	if err != nil {
		slog.Error("token signing failed", "user_id", user.UserID, "err", err)
		return nil, fmt.Errorf("verify otp: %w", domain.ErrUnavailable)
	}
	return &AuthResult{Success: true, Message: "Login successful", Token: token, User: user}, nil
}

// Login authenticates with a phone or email identifier and a password.
// Failures count toward the same lockout store the OTP flow uses, keyed by
// the normalized identifier.
func (s *Service) Login(ctx context.Context, identifier, password string) (*AuthResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, fmt.Errorf("login: %w", domain.ErrBadRequest)
	}
	if p := pkgphone.Normalize(identifier); p != "" {
		identifier = p
	} else {
		identifier = strings.ToLower(identifier)
	}

	if locked, retry := s.lockouts.IsLocked(identifier); locked {
		return &AuthResult{
			Message:           "Too many failed attempts, try again later",
			ErrorCode:         domain.CodeTooManyAttempts,
			RetryAfterSeconds: retry,
		}, fmt.Errorf("login: %w", domain.ErrLocked)
	}

	user, err := s.findByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.lockouts.RecordFailure(identifier)
			return &AuthResult{Message: "Invalid credentials"}, fmt.Errorf("login: %w", domain.ErrUnauthorized)
		}
		return nil, err
	}

	if user.PasswordHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.lockouts.RecordFailure(identifier)
		return &AuthResult{Message: "Invalid credentials"}, fmt.Errorf("login: %w", domain.ErrUnauthorized)
	}
	if !user.Enable {
		return &AuthResult{Message: "Account is disabled"}, fmt.Errorf("login: %w", domain.ErrForbidden)
	}
	s.lockouts.ClearAttempts(identifier)

	token, err := s.signer.Sign(user.UserID, user.Phone, user.Role)
	if err != nil {
		slog.Error("token signing failed", "user_id", user.UserID, "err", err)
		return nil, fmt.Errorf("login: %w", domain.ErrUnavailable)
	}
	return &AuthResult{Success: true, Message: "Login successful", Token: token, User: user}, nil
}

// Logout revokes the token until its natural expiry.
func (s *Service) Logout(token string, expiresAt time.Time) {
	s.blocklist.Add(token, expiresAt)
}

// pickCode chooses the code for phone. bypass is true when delivery must be
// skipped and the code echoed back instead.
func (s *Service) pickCode(phone string) (code string, bypass bool, err error) {
	if fixed, ok := s.otpCfg.TestNumbers[phone]; ok {
		return fixed, true, nil
	}
	if s.otpCfg.OverrideCode != "" {
		return s.otpCfg.OverrideCode, true, nil
	}
	code, err = otp.GenerateCode()
	if err != nil {
		return "", false, err
	}
	return code, s.otpCfg.DevMode, nil
}

func (s *Service) lookupOrCreate(ctx context.Context, phone string) (*domain.User, error) {
	user, err := s.users.GetByPhone(ctx, phone)
	if err == nil {
		if !user.PhoneVerified {
			if uerr := s.users.Update(ctx, user.UserID, map[string]interface{}{"phone_verified": true}); uerr != nil {
				slog.Warn("failed to mark phone verified", "user_id", user.UserID, "err", uerr)
			} else {
				user.PhoneVerified = true
			}
		}
		return user, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	user = &domain.User{
		UserID:        id.New(),
		Phone:         phone,
		Role:          domain.RoleCustomer,
		PhoneVerified: true,
		Enable:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.users.Put(ctx, user); err != nil {
		slog.Error("failed to create user", "phone", phone, "err", err)
		return nil, fmt.Errorf("create user: %w", domain.ErrUnavailable)
	}
	slog.Info("new user registered via otp", "user_id", user.UserID)
	return user, nil
}

func (s *Service) findByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	if pkgphone.IsDigits(identifier) && len(identifier) == 10 {
		return s.users.GetByPhone(ctx, identifier)
	}
	return s.users.GetByEmail(ctx, identifier)
}
