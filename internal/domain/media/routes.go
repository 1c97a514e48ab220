package media

import (
	"github.com/gin-gonic/gin"

	"firepm/internal/middleware"
)

// RegisterRoutes registers media endpoints under the protected group.
// Any authenticated user may read and upload; the featured-image pointer
// is staff-only.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	grp := r.Group("/media")
	{
		grp.GET("", h.Get)
		grp.POST("", h.Save)
		grp.GET("/:id/versions", h.GetVersions)
		grp.DELETE("/:id", h.Delete)

		staff := grp.Group("")
		staff.Use(middleware.StaffOnly())
		{
			staff.PUT("/featured", h.UpdateFeatured)
		}
	}
}
