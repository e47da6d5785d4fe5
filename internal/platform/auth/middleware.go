package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is the resolved caller attached to the request context.
type Identity struct {
	UserID uuid.UUID
	Role   Role
}

// UserLoader resolves a token subject against the credential store. It
// returns the user's role, or an error when the user no longer exists —
// a token can outlive its user.
type UserLoader interface {
	LoadRole(ctx context.Context, userID uuid.UUID) (Role, error)
}

// SessionMiddleware validates the bearer access token on each request and
// attaches the resolved identity. It is a per-request state machine with two
// terminal states: Authenticated (identity attached) and Unauthenticated
// (nothing attached). The middleware itself never rejects — a missing,
// malformed, expired, or orphaned token simply leaves the request
// unauthenticated, and route-level RequireAuth/RequireRole checks decide
// whether that is fatal. No state survives the request.
func SessionMiddleware(issuer *Issuer, users UserLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return next(c)
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return next(c)
			}

			claims, err := issuer.ParseAccessToken(parts[1])
			if err != nil {
				return next(c)
			}

			userID, err := claims.UserID()
			if err != nil {
				return next(c)
			}

			// Subject may have been deleted after issuance; treat as
			// unauthenticated rather than failing the request here.
			role, err := users.LoadRole(c.Request().Context(), userID)
			if err != nil {
				return next(c)
			}

			ctx := context.WithValue(c.Request().Context(), identityKey, Identity{
				UserID: userID,
				Role:   role,
			})
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// IdentityFromContext returns the attached identity, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	ident, ok := ctx.Value(identityKey).(Identity)
	return ident, ok
}

// ContextWithIdentity attaches an identity to a context. Test helper and
// seam for non-HTTP callers.
func ContextWithIdentity(ctx context.Context, ident Identity) context.Context {
	return context.WithValue(ctx, identityKey, ident)
}
