package project

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"firepm/internal/domain/auth"
	"firepm/internal/pkg/response"
	"firepm/internal/pkg/validator"
)

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

type createRequest struct {
	Name     string `json:"name" validate:"required"`
	Address  string `json:"address"`
	ClientID *int64 `json:"client_id"`
	Status   int    `json:"status"`
}

// Create godoc
// @Summary Create a project
// @Tags Projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body createRequest true "Project"
// @Success 201 {object} map[string]interface{}
// @Router /projects [post]
func (h *Handler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "BAD_REQUEST", "Invalid JSON body")
		return
	}
	if fields := validator.Validate(req); fields != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_FAILED", "Invalid project payload", fields)
		return
	}

	status := req.Status
	if status == 0 {
		status = StatusLead
	}

	p := &Project{
		Name:     req.Name,
		Address:  req.Address,
		ClientID: req.ClientID,
		Status:   status,
	}
	if err := h.repo.Create(c.Request.Context(), p); err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create project")
		return
	}

	response.Success(c, http.StatusCreated, p)
}

// Get godoc
// @Summary Get a project by id
// @Tags Projects
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /projects/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "BAD_REQUEST", "Invalid project id")
		return
	}

	p, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if err == ErrProjectNotFound {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Project not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load project")
		return
	}

	response.Success(c, http.StatusOK, p)
}

// List godoc
// @Summary List projects
// @Tags Projects
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /projects [get]
func (h *Handler) List(c *gin.Context) {
	var clientID *int64
	// clients only ever see their own projects
	if role := c.GetString("role"); !auth.IsStaff(role) {
		uid := c.GetInt64("user_id")
		clientID = &uid
	}

	projects, err := h.repo.List(c.Request.Context(), clientID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list projects")
		return
	}

	response.Success(c, http.StatusOK, projects)
}

type updateRequest struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
	Status  *int    `json:"status"`
}

// Update godoc
// @Summary Update project fields
// @Tags Projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Param body body updateRequest true "Fields to update"
// @Success 200 {object} map[string]interface{}
// @Router /projects/{id} [put]
func (h *Handler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "BAD_REQUEST", "Invalid project id")
		return
	}

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "BAD_REQUEST", "Invalid JSON body")
		return
	}

	p, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if err == ErrProjectNotFound {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Project not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load project")
		return
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Address != nil {
		p.Address = *req.Address
	}
	if req.Status != nil {
		p.Status = *req.Status
	}

	if err := h.repo.Update(c.Request.Context(), p); err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update project")
		return
	}

	response.Success(c, http.StatusOK, p)
}

// Delete godoc
// @Summary Delete a project
// @Tags Projects
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Success 200 {object} map[string]interface{}
// @Router /projects/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "BAD_REQUEST", "Invalid project id")
		return
	}

	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete project")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": id})
}
