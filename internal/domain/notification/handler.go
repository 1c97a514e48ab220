package notification

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"firepm/internal/pkg/response"
	"firepm/internal/pkg/validator"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type dispatchRequest struct {
	Message    Message     `json:"message" validate:"required"`
	Recipients []Recipient `json:"recipients" validate:"required,min=1,dive"`
}

// Dispatch godoc
// @Summary Fan a notification out to a list of recipients
// @Description Returns a per-recipient partial-success report; individual delivery failures do not fail the request.
// @Tags Notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dispatchRequest true "Message and recipients"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /notifications/dispatch [post]
func (h *Handler) Dispatch(c *gin.Context) {
	var req dispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "BAD_REQUEST", "Invalid JSON body")
		return
	}
	if fields := validator.Validate(req); fields != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_FAILED", "Invalid dispatch payload", fields)
		return
	}

	summary := h.service.Dispatch(c.Request.Context(), req.Message, req.Recipients)
	response.Success(c, http.StatusOK, summary)
}
