package auth

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// RefreshCookieName is the cookie carrying the refresh token. The token is
// never accepted from a header or body — cookie-only, http-only, same-site
// strict, so page script can never read it.
const RefreshCookieName = "refreshToken"

// SetRefreshCookie writes the refresh-token cookie on the response.
// Secure is set in production so the cookie only travels over TLS.
func SetRefreshCookie(c echo.Context, token string, maxAge time.Duration, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     RefreshCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearRefreshCookie expires the refresh-token cookie. This is the whole of
// logout: tokens are stateless, so a copy of the cleared token still
// verifies until its expiry.
func ClearRefreshCookie(c echo.Context, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// RefreshTokenFromRequest reads the refresh token cookie. Empty string when
// the cookie is absent.
func RefreshTokenFromRequest(c echo.Context) string {
	cookie, err := c.Cookie(RefreshCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
