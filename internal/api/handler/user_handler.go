package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/memory-app/memory-api/internal/core/domain"
	"github.com/memory-app/memory-api/internal/core/ports"
)

type UserHandler struct {
	authService       ports.AuthService
	assignmentService ports.AssignmentService
}

func NewUserHandler(authService ports.AuthService, assignmentService ports.AssignmentService) *UserHandler {
	return &UserHandler{authService: authService, assignmentService: assignmentService}
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required"`
}

// List returns every account. Admin only.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.User
// @Failure      403  {object}  errorEnvelope
// @Router       /v1/users [get]
func (h *UserHandler) List(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	users, err := h.authService.ListUsers(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, users)
}

// ChangePassword replaces the caller's password.
//
// @Summary      Change own password
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      changePasswordRequest  true  "Current and new password"
// @Success      200   {object}  envelope
// @Failure      400   {object}  errorEnvelope
// @Failure      401   {object}  errorEnvelope
// @Router       /v1/users/me/password [put]
func (h *UserHandler) ChangePassword(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	var req changePasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.authService.ChangePassword(c.Request().Context(), actor, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return respond(c, http.StatusOK, map[string]string{"message": "password updated"})
}

// Projects lists a user's active assignments. Users may only list their own
// unless they are admins.
//
// @Summary      A user's projects
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int     true   "User id"
// @Param        role  query     string  false  "manager or developer"
// @Success      200   {array}   domain.Assignment
// @Failure      403   {object}  errorEnvelope
// @Failure      404   {object}  errorEnvelope
// @Router       /v1/users/{id}/projects [get]
func (h *UserHandler) Projects(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	userID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if userID != actor.UserID && !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	return h.userProjects(c, userID)
}

// MyProjects lists the caller's active assignments.
//
// @Summary      My projects
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        role  query     string  false  "manager or developer"
// @Success      200   {array}   domain.Assignment
// @Router       /v1/me/projects [get]
func (h *UserHandler) MyProjects(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	return h.userProjects(c, actor.UserID)
}

func (h *UserHandler) userProjects(c echo.Context, userID int64) error {
	list, err := h.assignmentService.UserProjects(c.Request().Context(), userID, c.QueryParam("role"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, list)
}
