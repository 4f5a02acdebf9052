package middleware

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/quillpost/blog-api/internal/api/metrics"
	"github.com/quillpost/blog-api/internal/core/domain"
	"github.com/quillpost/blog-api/internal/core/ports"
)

const callerKey = "caller"

// Auth resolves the Authorization header and injects the caller identity into
// the context. Failures are returned as domain errors for the HTTP error
// handler to render as 401.
func Auth(resolver ports.SessionResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller, err := resolver.Resolve(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				if errors.Is(err, domain.ErrMalformedHeader) {
					metrics.SessionsResolvedTotal.WithLabelValues("malformed_header").Inc()
				} else {
					metrics.SessionsResolvedTotal.WithLabelValues("unauthenticated").Inc()
				}
				return err
			}

			metrics.SessionsResolvedTotal.WithLabelValues("ok").Inc()
			c.Set(callerKey, caller)
			return next(c)
		}
	}
}

// Caller returns the identity injected by Auth.
func Caller(c echo.Context) (domain.CallerIdentity, bool) {
	caller, ok := c.Get(callerKey).(domain.CallerIdentity)
	if !ok || caller.ID == "" {
		return domain.CallerIdentity{}, false
	}
	return caller, true
}
