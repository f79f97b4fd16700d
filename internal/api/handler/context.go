package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/memory-app/memory-api/internal/api/middleware"
	"github.com/memory-app/memory-api/internal/core/domain"
)

// identity returns the caller attached by the auth middleware. A missing
// identity means the route was registered without RequireAuth.
func identity(c echo.Context) (*domain.Identity, error) {
	id := middleware.Identity(c)
	if id == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return id, nil
}

// pathID parses a positive int64 path parameter.
func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", domain.ErrInvalidInput, name)
	}
	return id, nil
}

// bind decodes and validates the request body into dst.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return fmt.Errorf("%w: invalid payload", domain.ErrInvalidInput)
	}
	if err := c.Validate(dst); err != nil {
		return err
	}
	return nil
}
