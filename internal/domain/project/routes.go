package project

import (
	"github.com/gin-gonic/gin"

	"firepm/internal/middleware"
)

// RegisterRoutes registers project endpoints under the protected group.
// Reads are open to any authenticated user; writes are staff-only.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	projects := r.Group("/projects")
	{
		projects.GET("", h.List)
		projects.GET("/:id", h.Get)

		staff := projects.Group("")
		staff.Use(middleware.StaffOnly())
		{
			staff.POST("", h.Create)
			staff.PUT("/:id", h.Update)
			staff.DELETE("/:id", h.Delete)
		}
	}
}
