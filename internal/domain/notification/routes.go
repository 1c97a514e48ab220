package notification

import (
	"github.com/gin-gonic/gin"

	"firepm/internal/middleware"
)

// RegisterRoutes registers notification endpoints; dispatch is staff-only.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	grp := r.Group("/notifications")
	grp.Use(middleware.StaffOnly())
	{
		grp.POST("/dispatch", h.Dispatch)
	}
}
