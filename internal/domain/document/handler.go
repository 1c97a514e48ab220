package document

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"firepm/internal/domain/project"
	"firepm/internal/pkg/response"
	"firepm/internal/pkg/validator"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type contractRequest struct {
	ProjectID int64  `json:"project_id" validate:"required"`
	Revision  int    `json:"revision" validate:"required,min=1"`
	Terms     string `json:"terms"`
}

// GenerateContract godoc
// @Summary Generate a service contract PDF
// @Description Renders the contract for a project and stores it as a versioned file under contracts.
// @Tags Documents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 201 {object} map[string]interface{}
// @Failure 400,401,403,404,500 {object} map[string]interface{}
// @Router /documents/contract [post]
func (h *Handler) GenerateContract(c *gin.Context) {
	var req contractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "BAD_REQUEST", "Invalid JSON body")
		return
	}
	if fields := validator.Validate(req); fields != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_FAILED", "Invalid contract request", fields)
		return
	}

	view, err := h.service.GenerateContract(c.Request.Context(), ContractInput{
		ProjectID: req.ProjectID,
		Revision:  req.Revision,
		Terms:     req.Terms,
		UserID:    c.GetInt64("user_id"),
	})
	if err != nil {
		if errors.Is(err, project.ErrProjectNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Project not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to generate contract")
		return
	}

	response.Success(c, http.StatusCreated, view)
}
