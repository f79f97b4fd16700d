package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/memory-app/memory-api/internal/api/metrics"
	"github.com/memory-app/memory-api/internal/core/domain"
	"github.com/memory-app/memory-api/internal/core/ports"
)

type AssignmentHandler struct {
	service ports.AssignmentService
}

func NewAssignmentHandler(service ports.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{service: service}
}

type assignRequest struct {
	UserID    int64  `json:"user_id"    validate:"required,gt=0"`
	Role      string `json:"role"       validate:"required"`
	StartDate string `json:"start_date"`
}

type changeRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

// List returns the active assignments of a project.
//
// @Summary      Project assignments
// @Tags         assignments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Project id"
// @Success      200  {array}   domain.Assignment
// @Failure      404  {object}  errorEnvelope
// @Router       /v1/projects/{id}/assignments [get]
func (h *AssignmentHandler) List(c echo.Context) error {
	projectID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	list, err := h.service.ProjectAssignments(c.Request().Context(), projectID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, list)
}

// History returns every assignment a project ever had, inactive ones included.
//
// @Summary      Project assignment history
// @Tags         assignments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Project id"
// @Success      200  {array}   domain.Assignment
// @Router       /v1/projects/{id}/assignments/history [get]
func (h *AssignmentHandler) History(c echo.Context) error {
	projectID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	list, err := h.service.ProjectHistory(c.Request().Context(), projectID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, list)
}

// Available lists users without an active assignment on the project.
//
// @Summary      Users available for a project
// @Tags         assignments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Project id"
// @Success      200  {array}   domain.User
// @Router       /v1/projects/{id}/available-users [get]
func (h *AssignmentHandler) Available(c echo.Context) error {
	projectID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	users, err := h.service.AvailableUsers(c.Request().Context(), projectID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, users)
}

// Stats summarises a project's active staffing.
//
// @Summary      Project assignment stats
// @Tags         assignments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Project id"
// @Success      200  {object}  domain.AssignmentStats
// @Router       /v1/projects/{id}/stats [get]
func (h *AssignmentHandler) Stats(c echo.Context) error {
	projectID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	stats, err := h.service.ProjectStats(c.Request().Context(), projectID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, stats)
}

// Assign adds a user to a project. Requires admin or an active manager of
// the project.
//
// @Summary      Assign a user
// @Tags         assignments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int            true  "Project id"
// @Param        body  body      assignRequest  true  "Assignment (start_date as YYYY-MM-DD)"
// @Success      201   {object}  domain.Assignment
// @Failure      400   {object}  errorEnvelope
// @Failure      403   {object}  errorEnvelope
// @Failure      409   {object}  errorEnvelope
// @Router       /v1/projects/{id}/assignments [post]
func (h *AssignmentHandler) Assign(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	projectID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req assignRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	in := ports.AssignInput{
		ActorID:      actor.UserID,
		TargetUserID: req.UserID,
		ProjectID:    projectID,
		Role:         req.Role,
	}
	if req.StartDate != "" {
		start, err := time.Parse(time.DateOnly, req.StartDate)
		if err != nil {
			return fmt.Errorf("%w: start_date must be YYYY-MM-DD", domain.ErrInvalidInput)
		}
		in.StartDate = &start
	}

	a, err := h.service.Assign(c.Request().Context(), in)
	observe("assign", err)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, a)
}

// ChangeRole switches an assigned user between manager and developer.
//
// @Summary      Change a project role
// @Tags         assignments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                true  "Project id"
// @Param        user_id  path      int                true  "User id"
// @Param        body     body      changeRoleRequest  true  "New role"
// @Success      200      {object}  envelope
// @Failure      403      {object}  errorEnvelope
// @Failure      404      {object}  errorEnvelope
// @Failure      409      {object}  errorEnvelope
// @Router       /v1/projects/{id}/assignments/{user_id} [patch]
func (h *AssignmentHandler) ChangeRole(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	projectID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	userID, err := pathID(c, "user_id")
	if err != nil {
		return err
	}
	var req changeRoleRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	err = h.service.ChangeRole(c.Request().Context(), actor.UserID, userID, projectID, req.Role)
	observe("change_role", err)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, map[string]string{"message": "role updated"})
}

// Remove ends a user's active assignment. The row is kept as history.
//
// @Summary      Remove a user from a project
// @Tags         assignments
// @Security     BearerAuth
// @Param        id       path      int  true  "Project id"
// @Param        user_id  path      int  true  "User id"
// @Success      200      {object}  envelope
// @Failure      403      {object}  errorEnvelope
// @Failure      404      {object}  errorEnvelope
// @Failure      409      {object}  errorEnvelope
// @Router       /v1/projects/{id}/assignments/{user_id} [delete]
func (h *AssignmentHandler) Remove(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	projectID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	userID, err := pathID(c, "user_id")
	if err != nil {
		return err
	}

	err = h.service.Remove(c.Request().Context(), actor.UserID, userID, projectID)
	observe("remove", err)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, map[string]string{"message": "assignment removed"})
}

func observe(action string, err error) {
	metrics.AssignmentChangesTotal.WithLabelValues(action, changeResult(err)).Inc()
}

func changeResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrAlreadyAssigned):
		return "already_assigned"
	case errors.Is(err, domain.ErrLastManager):
		return "last_manager"
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrProjectNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidRole):
		return "invalid"
	default:
		return "error"
	}
}
