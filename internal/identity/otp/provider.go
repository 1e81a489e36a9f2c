// Package otp implements the identity.Provider contract with one-time codes
// delivered over SMS. Codes live as bcrypt hashes in a CodeStore until they
// are confirmed, exhausted, or expire.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"membergate/internal/identity"
	"membergate/internal/identity/challenge"
	"membergate/internal/identity/session"
	"membergate/internal/identity/sms"
	"membergate/internal/platform/metrics"
	dErrors "membergate/pkg/domain-errors"
	"membergate/pkg/platform/sentinel"
)

// Provider starts and confirms phone verifications.
type Provider struct {
	codes      CodeStore
	challenges *challenge.Verifier
	sender     sms.Sender
	sessions   *session.Issuer

	codeTTL     time.Duration
	maxAttempts int
	generate    func() (string, error)
	clock       func() time.Time
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}

// WithMetrics wires verification counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Provider) {
		p.metrics = m
	}
}

// WithCodeGenerator overrides code generation. Tests pin it.
func WithCodeGenerator(generate func() (string, error)) Option {
	return func(p *Provider) {
		if generate != nil {
			p.generate = generate
		}
	}
}

// WithClock sets the clock. Tests pin it.
func WithClock(clock func() time.Time) Option {
	return func(p *Provider) {
		if clock != nil {
			p.clock = clock
		}
	}
}

// WithMaxAttempts bounds how many wrong codes a verification tolerates.
func WithMaxAttempts(n int) Option {
	return func(p *Provider) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// NewProvider constructs the OTP-backed identity provider.
func NewProvider(
	codes CodeStore,
	challenges *challenge.Verifier,
	sender sms.Sender,
	sessions *session.Issuer,
	codeTTL time.Duration,
	opts ...Option,
) (*Provider, error) {
	if codes == nil {
		return nil, fmt.Errorf("code store is required")
	}
	if challenges == nil {
		return nil, fmt.Errorf("challenge verifier is required")
	}
	if sender == nil {
		return nil, fmt.Errorf("sms sender is required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session issuer is required")
	}
	if codeTTL <= 0 {
		codeTTL = 5 * time.Minute
	}
	p := &Provider{
		codes:       codes,
		challenges:  challenges,
		sender:      sender,
		sessions:    sessions,
		codeTTL:     codeTTL,
		maxAttempts: 3,
		generate:    generateCode,
		clock:       time.Now,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// StartVerification redeems the challenge token, then sends a fresh code.
func (p *Provider) StartVerification(ctx context.Context, e164Phone string, token challenge.Token) (identity.PendingVerification, error) {
	if err := p.challenges.Redeem(ctx, token); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) || errors.Is(err, sentinel.ErrExpired) {
			return identity.PendingVerification{}, dErrors.Wrap(err, dErrors.CodeUnauthorized, "challenge verification failed")
		}
		return identity.PendingVerification{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "challenge verification unavailable")
	}

	code, err := p.generate()
	if err != nil {
		return identity.PendingVerification{}, dErrors.Wrap(err, dErrors.CodeInternal, "could not generate code")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return identity.PendingVerification{}, dErrors.Wrap(err, dErrors.CodeInternal, "could not hash code")
	}

	verificationID := uuid.NewString()
	expiresAt := p.clock().Add(p.codeTTL)
	rec := Record{
		Phone:     e164Phone,
		CodeHash:  hash,
		ExpiresAt: expiresAt,
	}
	if err := p.codes.Save(ctx, verificationID, rec, p.codeTTL); err != nil {
		return identity.PendingVerification{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "could not store verification")
	}

	message := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, int(p.codeTTL.Minutes()))
	if err := p.sender.Send(ctx, e164Phone, message); err != nil {
		// An undeliverable code is worthless; remove the record so the ID
		// cannot be confirmed later.
		_ = p.codes.Delete(ctx, verificationID)
		return identity.PendingVerification{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "could not send verification code")
	}

	if p.metrics != nil {
		p.metrics.CodesSent.Inc()
	}
	p.logger.InfoContext(ctx, "verification started",
		"verification_id", verificationID,
	)
	return identity.PendingVerification{
		ID:        verificationID,
		Phone:     e164Phone,
		ExpiresAt: expiresAt,
	}, nil
}

// Confirm checks a user-entered code and, on success, establishes a session.
func (p *Provider) Confirm(ctx context.Context, verificationID, code string) (identity.Session, error) {
	rec, err := p.codes.Find(ctx, verificationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return identity.Session{}, dErrors.Wrap(err, dErrors.CodeNotFound, "verification not found or expired")
		}
		return identity.Session{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "could not load verification")
	}

	if rec.Attempts >= p.maxAttempts {
		_ = p.codes.Delete(ctx, verificationID)
		return identity.Session{}, dErrors.New(dErrors.CodeUnauthorized, "too many attempts")
	}

	if bcrypt.CompareHashAndPassword(rec.CodeHash, []byte(code)) != nil {
		rec.Attempts++
		if err := p.codes.Update(ctx, verificationID, rec); err != nil {
			p.logger.WarnContext(ctx, "could not record failed attempt",
				"verification_id", verificationID,
				"error", err,
			)
		}
		if p.metrics != nil {
			p.metrics.CodeConfirmFailures.Inc()
		}
		return identity.Session{}, dErrors.New(dErrors.CodeUnauthorized, "invalid verification code")
	}

	// Confirmed; the verification is spent.
	_ = p.codes.Delete(ctx, verificationID)

	userID := uuid.NewString()
	token, expiresAt, err := p.sessions.Issue(userID, rec.Phone)
	if err != nil {
		return identity.Session{}, dErrors.Wrap(err, dErrors.CodeInternal, "could not issue session token")
	}
	p.logger.InfoContext(ctx, "verification confirmed",
		"verification_id", verificationID,
		"user_id", userID,
	)
	return identity.Session{
		UserID:    userID,
		Phone:     rec.Phone,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// generateCode draws a uniform 6-digit code from crypto/rand.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
