package assistant

import "github.com/gin-gonic/gin"

// RegisterRoutes registers the assistant webhook. It sits outside the
// JWT-protected group; the handler authenticates via a shared secret.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	r.POST("/assistant/webhook", h.Webhook)
}
