package session

import (
	"net/http"

	"workspots/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct{}

func NewHandler() *Handler { return &Handler{} }

// Get godoc
// @Summary		Current session state and page decisions
// @Tags		Session
// @Produce		json
// @Security	BearerAuth
// @Router		/session [get]
func (h *Handler) Get(c *gin.Context) {
	state := FromGin(c)
	response.Success(c, http.StatusOK, gin.H{
		"identity":  state.Identity,
		"profile":   state.Profile,
		"decisions": state.Decisions(),
	})
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/session", RequireIdentity(), h.Get)
}
