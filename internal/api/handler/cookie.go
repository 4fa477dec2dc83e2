package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// RefreshCookieName carries the refresh token for browser clients.
const RefreshCookieName = "refreshToken"

// CookieConfig controls the refresh token cookie.
type CookieConfig struct {
	Secure bool
	TTL    time.Duration
}

func (cc CookieConfig) set(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     RefreshCookieName,
		Value:    token,
		Path:     "/api/auth",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   cc.Secure,
		MaxAge:   int(cc.TTL.Seconds()),
	})
}

func (cc CookieConfig) clear(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     "/api/auth",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   cc.Secure,
		MaxAge:   -1,
	})
}

// refreshTokenFrom prefers the cookie and falls back to the request body value.
func refreshTokenFrom(c echo.Context, fromBody string) string {
	if ck, err := c.Cookie(RefreshCookieName); err == nil && ck.Value != "" {
		return ck.Value
	}
	return fromBody
}
