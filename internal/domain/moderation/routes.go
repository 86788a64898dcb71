package moderation

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the admin API on a group gated to admins, and the
// admin streams on ws.
func (h *Handler) RegisterRoutes(admin, ws *gin.RouterGroup) {
	places := admin.Group("/places")
	{
		places.GET("", h.ListPlaces)
		places.POST("/:id/approve", h.ApprovePlace)
		places.POST("/:id/reject", h.RejectPlace)
		places.PATCH("/:id", h.EditPlace)
		places.DELETE("/:id", h.DeletePlace)
	}

	users := admin.Group("/users")
	{
		users.GET("", h.ListUsers)
		users.PATCH("/:id/admin", h.SetAdmin)
		users.PATCH("/:id/ban", h.SetBanned)
		users.DELETE("/:id", h.DeleteUser)
	}

	ws.GET("/admin/users", h.UsersStream)
	ws.GET("/admin/places", h.PlacesStream)
}
