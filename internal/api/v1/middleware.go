package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/homewatch/homewatch-go/internal/security"
)

// Context keys set by the auth middleware.
const (
	ctxUserID = "user_id"
)

// AuthMiddleware validates the Bearer access token and stores the caller's
// user id on the request context.
func (c *Controller) AuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			token := bearerToken(ctx)
			if token == "" {
				return c.HandleError(ctx, nil, "Missing authorization token", http.StatusUnauthorized)
			}

			claims, err := c.Tokens.Verify(token, security.TokenAccess)
			if err != nil {
				return c.HandleError(ctx, err, "Invalid or expired token", http.StatusUnauthorized)
			}

			ctx.Set(ctxUserID, claims.UserID)
			return next(ctx)
		}
	}
}

// bearerToken extracts the token from the Authorization header, falling back
// to the token query parameter for websocket clients that cannot set headers.
func bearerToken(ctx echo.Context) string {
	header := ctx.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ctx.QueryParam("token")
}

// currentUserID returns the authenticated user's id. Zero means the route
// was reached without the auth middleware, which is a programming error.
func currentUserID(ctx echo.Context) uint {
	id, _ := ctx.Get(ctxUserID).(uint)
	return id
}

// MetricsMiddleware records request counts and latencies.
func (c *Controller) MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()
			err := next(ctx)

			path := ctx.Path() // route template, not raw URL, to bound cardinality
			method := ctx.Request().Method
			status := ctx.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}

			c.metrics.HTTP.RequestsTotal.
				WithLabelValues(method, path, strconv.Itoa(status)).Inc()
			c.metrics.HTTP.RequestDuration.
				WithLabelValues(method, path).Observe(time.Since(start).Seconds())

			return err
		}
	}
}
