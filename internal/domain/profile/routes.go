package profile

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the personal dashboard endpoints on a gated group.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	me := r.Group("/users/me")
	{
		me.GET("", h.GetMe)
		me.PUT("", h.UpdateMe)
		me.POST("/avatar", h.UploadAvatar)
	}
}
