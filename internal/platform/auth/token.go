package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned for any token that fails verification:
// malformed, bad signature, expired, or signed with the wrong key.
var ErrInvalidToken = errors.New("invalid token")

// Claims carries the subject user id and the standard registered claims.
type Claims struct {
	jwt.RegisteredClaims
}

// UserID returns the token subject parsed as a UUID.
func (c *Claims) UserID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse token subject: %w", err)
	}
	return id, nil
}

// Issuer mints and verifies the two token kinds. Access and refresh tokens
// are signed with separate HMAC secrets: a leaked access secret must not
// allow forging refresh tokens, and vice versa. Minting is a pure function
// of (userID, clock, secret) — nothing is persisted server-side.
type Issuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewIssuer creates an Issuer. accessTTL is expected to be minutes-scale,
// refreshTTL days-scale; Config.Validate enforces the ordering.
func NewIssuer(accessSecret, refreshSecret []byte, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// WithClock overrides the issuer's clock. Test hook.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

// IssueAccessToken mints a short-lived access token for the given user.
func (i *Issuer) IssueAccessToken(userID uuid.UUID) (string, error) {
	return i.sign(userID, i.accessSecret, i.accessTTL)
}

// IssueRefreshToken mints a long-lived refresh token for the given user.
func (i *Issuer) IssueRefreshToken(userID uuid.UUID) (string, error) {
	return i.sign(userID, i.refreshSecret, i.refreshTTL)
}

// RefreshTTL returns the refresh token lifetime, used for the cookie max age.
func (i *Issuer) RefreshTTL() time.Duration {
	return i.refreshTTL
}

// ParseAccessToken verifies an access token and returns its claims.
func (i *Issuer) ParseAccessToken(token string) (*Claims, error) {
	return i.parse(token, i.accessSecret)
}

// ParseRefreshToken verifies a refresh token and returns its claims.
func (i *Issuer) ParseRefreshToken(token string) (*Claims, error) {
	return i.parse(token, i.refreshSecret)
}

func (i *Issuer) sign(userID uuid.UUID, secret []byte, ttl time.Duration) (string, error) {
	now := i.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (i *Issuer) parse(tokenStr string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
