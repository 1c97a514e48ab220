package document

import (
	"github.com/gin-gonic/gin"

	"firepm/internal/middleware"
)

// RegisterRoutes registers document endpoints; generation is staff-only.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	grp := r.Group("/documents")
	grp.Use(middleware.StaffOnly())
	{
		grp.POST("/contract", h.GenerateContract)
	}
}
