package auth

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Role is the closed set of permission levels. String comparison at
// checkpoints is deliberately avoided: parse once at the boundary, match
// exhaustively everywhere else.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// ParseRole maps a stored role tag to a Role. Unknown tags are rejected so a
// typo in the database can never silently grant access.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RolePatient:
		return RolePatient, nil
	case RoleDoctor:
		return RoleDoctor, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Elevated reports whether the role grants more than default patient access.
// Public registration rejects these.
func (r Role) Elevated() bool {
	switch r {
	case RoleDoctor, RoleAdmin:
		return true
	case RolePatient:
		return false
	default:
		return false
	}
}

// RequireAuth returns middleware that fails closed with 401 when the session
// middleware attached no identity. Authentication failures (401) stay
// distinct from authorization failures (403) so the client's refresh policy
// only fires for the former.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := IdentityFromContext(c.Request().Context()); !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
			}
			return next(c)
		}
	}
}

// RequireRole returns middleware that checks the attached identity against an
// allowed-role set. No identity → 401; identity with a role outside the set →
// 403. Admin is not implicitly allowed: routes name every role they admit.
func RequireRole(roles ...Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ident, ok := IdentityFromContext(c.Request().Context())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
			}
			for _, allowed := range roles {
				if ident.Role == allowed {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
		}
	}
}
