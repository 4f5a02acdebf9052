package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/quillpost/blog-api/internal/api/middleware"
	"github.com/quillpost/blog-api/internal/core/domain"
)

// callerFrom returns the identity injected by the Auth middleware. A missing
// identity means the route was registered without it.
func callerFrom(c echo.Context) (domain.CallerIdentity, error) {
	caller, ok := middleware.Caller(c)
	if !ok {
		return domain.CallerIdentity{}, domain.ErrUnauthenticated
	}
	return caller, nil
}

// bindAndValidate decodes the request into req and runs the registered validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
