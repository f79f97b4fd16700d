package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/memory-app/memory-api/internal/api/metrics"
)

const msgForbidden = "forbidden"

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// RequireRole admits callers whose global account role is one of roles.
// Project roles are not considered here; AssignmentService.CanAssign owns them.
// It must run after RequireAuth: without an identity the response is 401.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	permitted := make(map[string]bool, len(roles))
	for _, r := range roles {
		permitted[r] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := Identity(c)
			switch {
			case id == nil:
				return c.JSON(http.StatusUnauthorized, unauthorizedResponse{
					Error: msgUnauthorized,
					Code:  CodeUnauthorized,
				})
			case !permitted[id.Role]:
				metrics.AccessDeniedTotal.WithLabelValues(id.Role).Inc()
				return c.JSON(http.StatusForbidden, errorResponse{Error: msgForbidden})
			}
			return next(c)
		}
	}
}
