package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/memory-app/memory-api/internal/core/ports"
)

type ProjectHandler struct {
	service ports.ProjectService
}

func NewProjectHandler(service ports.ProjectService) *ProjectHandler {
	return &ProjectHandler{service: service}
}

type createProjectRequest struct {
	Name        string `json:"name"        validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Category    string `json:"category"    validate:"max=100"`
}

// List returns projects. Archived ones are included with ?include_archived=true
// and ?category= keeps only projects in that category.
//
// @Summary      List projects
// @Tags         projects
// @Produce      json
// @Security     BearerAuth
// @Param        include_archived  query     bool    false  "Include archived projects"
// @Param        category          query     string  false  "Only projects in this category"
// @Success      200               {array}   domain.Project
// @Router       /v1/projects [get]
func (h *ProjectHandler) List(c echo.Context) error {
	list, err := h.service.List(c.Request().Context(), ports.ProjectFilter{
		IncludeArchived: c.QueryParam("include_archived") == "true",
		Category:        c.QueryParam("category"),
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, list)
}

// Get returns one project.
//
// @Summary      Get a project
// @Tags         projects
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Project id"
// @Success      200  {object}  domain.Project
// @Failure      404  {object}  errorEnvelope
// @Router       /v1/projects/{id} [get]
func (h *ProjectHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	p, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, p)
}

// Create adds a project. Admin only.
//
// @Summary      Create a project
// @Tags         projects
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createProjectRequest  true  "Project"
// @Success      201   {object}  domain.Project
// @Failure      400   {object}  errorEnvelope
// @Failure      409   {object}  errorEnvelope
// @Router       /v1/projects [post]
func (h *ProjectHandler) Create(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	var req createProjectRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	p, err := h.service.Create(c.Request().Context(), actor, ports.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, p)
}

// Archive closes a project to new assignments. Admin only.
//
// @Summary      Archive a project
// @Tags         projects
// @Security     BearerAuth
// @Param        id   path      int  true  "Project id"
// @Success      200  {object}  envelope
// @Failure      404  {object}  errorEnvelope
// @Router       /v1/projects/{id}/archive [post]
func (h *ProjectHandler) Archive(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.Archive(c.Request().Context(), actor, id); err != nil {
		return err
	}
	return respond(c, http.StatusOK, map[string]string{"message": "project archived"})
}
