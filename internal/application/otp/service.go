package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"time"

	"github.com/selorg/ops-api/internal/domain"
	"github.com/selorg/ops-api/internal/pkg/id"
	pkgphone "github.com/selorg/ops-api/internal/pkg/phone"
)

const (
	minTTLMinutes     = 1
	maxTTLMinutes     = 30
	defaultTTLMinutes = 5

	// Storage round-trips are bounded so a hung dependency cannot pin a
	// request; on timeout the operation fails with ErrUnavailable.
	storageTimeout = 8 * time.Second

	// How many recent records the tolerant fallback considers.
	fallbackDepth = 5
)

// Store is the persistence surface the verifier needs.
// *dynamo.OTPRepo satisfies it.
type Store interface {
	Put(ctx context.Context, rec *domain.OTPRecord) error
	DeleteUnused(ctx context.Context, phone string) error
	FindCurrent(ctx context.Context, phone, code string, now int64) (*domain.OTPRecord, error)
	Recent(ctx context.Context, phone string, limit int32) ([]domain.OTPRecord, error)
	MarkUsed(ctx context.Context, otpID string) (bool, error)
}

// Service issues and verifies one-time codes with expiry and strict
// single-use semantics.
type Service struct {
	store Store
	ttl   time.Duration
	clock func() time.Time
}

// NewService builds the service. ttlMinutes is clamped to [1, 30]; zero or
// negative falls back to the 5-minute default. clock may be nil for time.Now.
func NewService(store Store, ttlMinutes int, clock func() time.Time) *Service {
	switch {
	case ttlMinutes <= 0:
		ttlMinutes = defaultTTLMinutes
	case ttlMinutes < minTTLMinutes:
		ttlMinutes = minTTLMinutes
	case ttlMinutes > maxTTLMinutes:
		ttlMinutes = maxTTLMinutes
	}
	if clock == nil {
		clock = time.Now
	}
	return &Service{store: store, ttl: time.Duration(ttlMinutes) * time.Minute, clock: clock}
}

// TTL returns the configured code lifetime.
func (s *Service) TTL() time.Duration { return s.ttl }

// GenerateCode returns a uniform random 4-digit code in [1000, 9999].
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return strconv.FormatInt(n.Int64()+1000, 10), nil
}

// Issue persists code for phone, superseding prior unused codes. The returned
// error is ErrBadRequest-classed for invalid input and ErrUnavailable-classed
// for storage trouble; internals are logged, not returned.
func (s *Service) Issue(ctx context.Context, phone, code string) error {
	if !validPhone(phone) {
		return fmt.Errorf("invalid phone number: %w", domain.ErrBadRequest)
	}
	if !pkgphone.IsDigits(code) || len(code) != 4 {
		return fmt.Errorf("otp code must be 4 digits: %w", domain.ErrBadRequest)
	}

	ctx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()

	// Best effort: a narrow race with a concurrent issue can leave two live
	// records; verification matches most recent first, so this is redundant
	// state, not a correctness problem.
	if err := s.store.DeleteUnused(ctx, phone); err != nil {
		slog.Warn("failed to delete superseded otps", "phone", phone, "err", err)
	}

	now := s.clock().UTC()
	rec := &domain.OTPRecord{
		OTPID:     id.New(),
		Phone:     phone,
		Code:      code,
		IsUsed:    false,
		ExpiresAt: now.Add(s.ttl).Unix(),
		CreatedAt: now.Format(time.RFC3339Nano),
	}
	if err := s.store.Put(ctx, rec); err != nil {
		slog.Error("failed to save otp", "phone", phone, "err", err)
		return fmt.Errorf("save otp: %w", domain.ErrUnavailable)
	}
	return nil
}

// Verify checks submitted against the live code for phone and consumes it.
// Returns true only when this call flipped the record to used; a concurrent
// duplicate verification loses the conditional update and gets false. A nil
// error with false simply means "did not verify".
func (s *Service) Verify(ctx context.Context, phone, submitted string) (bool, error) {
	if !validPhone(phone) || !pkgphone.IsDigits(submitted) {
		return false, fmt.Errorf("invalid verification input: %w", domain.ErrBadRequest)
	}

	ctx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()

	now := s.clock().Unix()
	rec, err := s.store.FindCurrent(ctx, phone, submitted, now)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		slog.Error("otp lookup failed", "phone", phone, "err", err)
		return false, fmt.Errorf("verify otp: %w", domain.ErrUnavailable)
	}

	if rec == nil {
		// Tolerant fallback: clients and gateways sometimes coerce the code
		// to a number and drop a leading zero, so "0123" arrives as "123".
		recent, err := s.store.Recent(ctx, phone, fallbackDepth)
		if err != nil {
			slog.Error("otp fallback lookup failed", "phone", phone, "err", err)
			return false, fmt.Errorf("verify otp: %w", domain.ErrUnavailable)
		}
		for i := range recent {
			r := &recent[i]
			if r.IsUsed || r.ExpiresAt <= now {
				continue
			}
			if r.Code == submitted || numericallyEqual(r.Code, submitted) {
				rec = r
				break
			}
		}
	}
	if rec == nil {
		return false, nil
	}

	changed, err := s.store.MarkUsed(ctx, rec.OTPID)
	if err != nil {
		slog.Error("otp consume failed", "phone", phone, "otp_id", rec.OTPID, "err", err)
		return false, fmt.Errorf("verify otp: %w", domain.ErrUnavailable)
	}
	return changed, nil
}

// numericallyEqual treats "0123" and "123" as the same code. Compatibility
// shim for clients that coerce the code to a number; do not remove without
// auditing every client.
func numericallyEqual(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	return errA == nil && errB == nil && na == nb
}

func validPhone(p string) bool {
	return len(p) == 10 && pkgphone.IsDigits(p) && p != "0000000000"
}
