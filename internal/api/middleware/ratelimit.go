package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/userauth/auth-service/internal/core/ports"
	"github.com/userauth/auth-service/internal/pkg/metrics"
)

// RateLimit rejects clients that exceed the limiter budget with 429. When the
// limiter backend fails the request is let through and the error logged.
func RateLimit(limiter ports.RateLimiter, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			route := c.Path()
			decision, err := limiter.Allow(c.Request().Context(), route, c.RealIP())
			if err != nil {
				log.Warn().Err(err).Str("route", route).Msg("rate limiter unavailable, allowing request")
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.FormatInt(limiter.Limit(), 10))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(decision.Remaining, 10))

			if !decision.Allowed {
				metrics.RateLimitedTotal.WithLabelValues(route).Inc()
				h.Set(echo.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(decision.ResetIn.Seconds()))))
				return echo.NewHTTPError(http.StatusTooManyRequests, "Too many authentication attempts, please try again later")
			}
			return next(c)
		}
	}
}
