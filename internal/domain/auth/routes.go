package auth

import "github.com/gin-gonic/gin"

func (h *Handler) RegisterPublicRoutes(v1 *gin.RouterGroup) {
	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/google", h.SignInWithGoogle)
		authGroup.GET("/google/login", h.GoogleLogin)
		authGroup.GET("/google/callback", h.GoogleCallback)
		authGroup.POST("/refresh", h.Refresh)
		authGroup.POST("/logout", h.Logout)
		authGroup.POST("/password/reset", h.RequestPasswordReset)
		authGroup.POST("/password/reset/confirm", h.ConfirmPasswordReset)
		authGroup.POST("/verify/confirm", h.ConfirmEmailVerification)
	}
}

// RegisterProtectedRoutes mounts routes that need a signed-in identity but
// no particular profile state.
func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup) {
	protected.POST("/auth/verify/request", h.RequestEmailVerification)
}

// RegisterDashboardRoutes mounts routes gated on the personal dashboard.
func (h *Handler) RegisterDashboardRoutes(dashboard *gin.RouterGroup) {
	dashboard.PUT("/users/me/password", h.ChangePassword)
}
