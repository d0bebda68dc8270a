package middleware

import (
	"fmt"
	"net/http"
	"time"

	"appaudit/internal/caching"
	"appaudit/internal/common"

	"github.com/labstack/echo/v4"
)

// RateLimit caps how many requests one authenticated user may make per
// window. Unauthenticated requests fall back to the client IP.
func RateLimit(cache caching.CacheService, limit int64, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.RealIP()
			if userID, ok := common.GetUserIDFromContext(c.Request().Context()); ok {
				key = userID.String()
			}

			count, err := cache.IncrementRate(c.Request().Context(), key, window)
			if err != nil {
				// The limiter failing open beats taking the API down with it.
				return next(c)
			}
			if count > limit {
				c.Response().Header().Set("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
				return echo.NewHTTPError(http.StatusTooManyRequests, "Rate limit exceeded")
			}

			return next(c)
		}
	}
}
