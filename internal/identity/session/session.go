// Package session mints and validates the JWT handle that represents the
// authenticated identity context after a successful code confirmation.
package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"membergate/internal/platform/middleware"
	dErrors "membergate/pkg/domain-errors"
)

// Claims represents the JWT claims for session tokens.
type Claims struct {
	Phone string `json:"phone"`
	jwt.RegisteredClaims
}

// Issuer handles session token creation and validation.
type Issuer struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
	clock      func() time.Time
}

// Option configures an Issuer.
type Option func(*Issuer)

// WithClock sets the clock for token timestamps. Tests pin it.
func WithClock(clock func() time.Time) Option {
	return func(i *Issuer) {
		if clock != nil {
			i.clock = clock
		}
	}
}

// NewIssuer constructs a session token issuer.
func NewIssuer(signingKey string, ttl time.Duration, opts ...Option) *Issuer {
	i := &Issuer{
		signingKey: []byte(signingKey),
		issuer:     "membergate",
		ttl:        ttl,
		clock:      time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Issue creates a signed session token for the given user and phone.
func (i *Issuer) Issue(userID, phone string) (token string, expiresAt time.Time, err error) {
	now := i.clock()
	expiresAt = now.Add(i.ttl)
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Phone: phone,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    i.issuer,
			ID:        uuid.NewString(),
		},
	})

	token, err = newToken.SignedString(i.signingKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// ValidateToken parses and verifies a session token. Satisfies
// middleware.SessionValidator.
func (i *Issuer) ValidateToken(tokenString string) (*middleware.SessionClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return i.signingKey, nil
	}, jwt.WithTimeFunc(i.clock))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	return &middleware.SessionClaims{
		UserID: claims.Subject,
		Phone:  claims.Phone,
	}, nil
}
