package upload

import "github.com/gin-gonic/gin"

func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	g := r.Group("/uploads")
	g.GET("", h.List)
	g.GET("/:id", h.Get)
}
