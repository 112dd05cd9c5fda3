package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL is how long an issued token stays valid.
const DefaultTokenTTL = 10 * time.Minute

// Claims is the payload embedded in every issued token.
type Claims struct {
	UserID  int64  `json:"user_id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// Issuer signs tokens and records each user's single active token.
//
// Issuing a new token for a user overwrites the stored current token,
// which revokes any previously issued one the next time it is checked.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	sink   TokenSink
	now    func() time.Time
}

// NewIssuer returns an Issuer signing with secret and persisting the
// active token through sink. A non-positive ttl falls back to
// DefaultTokenTTL.
func NewIssuer(secret []byte, ttl time.Duration, sink TokenSink) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Issuer{secret: secret, ttl: ttl, sink: sink, now: time.Now}
}

// Issue signs a token for the user and stores it as the user's current
// token. The returned token is the only one the Verifier will accept
// for this user until the next Issue or an explicit revocation.
func (i *Issuer) Issue(ctx context.Context, user *User) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(i.ttl)
	claims := Claims{
		UserID:  user.ID,
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			// Timestamps have second granularity, so the jti is what
			// keeps back-to-back issuances for the same user distinct.
			// Without it the stored-token comparison could not tell a
			// superseded token from its replacement.
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}

	if err := i.sink.SetCurrentToken(ctx, user.ID, signed, expiresAt); err != nil {
		return "", time.Time{}, fmt.Errorf("storing current token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verifier checks presented tokens.
//
// A token passes only when its signature and expiry check out AND it
// equals the user's stored current token. The second check is what
// enforces the single-active-session policy: a structurally valid
// token that has been superseded by a newer login, or cleared by a
// logout, is rejected with ErrLoginAgain.
type Verifier struct {
	secret []byte
	source UserSource
}

// NewVerifier returns a Verifier for tokens signed with secret,
// cross-checking against source.
func NewVerifier(secret []byte, source UserSource) *Verifier {
	return &Verifier{secret: secret, source: source}
}

// Verify validates raw and returns the identity it carries.
//
// Error mapping:
//   - empty token:           ErrTokenRequired
//   - expired token:         ErrTokenExpired
//   - malformed/bad sig:     ErrAccessDenied
//   - superseded or revoked: ErrLoginAgain
func (v *Verifier) Verify(ctx context.Context, raw string) (*Identity, error) {
	if raw == "" {
		return nil, ErrTokenRequired
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Method.Alg())
		}
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrAccessDenied
	}

	user, err := v.source.FindByEmail(ctx, claims.Email)
	if err != nil {
		return nil, fmt.Errorf("looking up token owner: %w", err)
	}
	if user == nil || user.CurrentToken != raw {
		return nil, ErrLoginAgain
	}

	return &Identity{UserID: claims.UserID, Email: claims.Email, IsAdmin: claims.IsAdmin}, nil
}
