package upload

import (
	"errors"
	"log/slog"
	"net/http"

	"workspots/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// Handler lets a signed-in user browse the images they have stored.
type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// List godoc
// @Summary		My stored images
// @Tags		Uploads
// @Produce		json
// @Security	BearerAuth
// @Param		prefix	query	string	false	"places or avatars"
// @Router		/uploads [get]
func (h *Handler) List(c *gin.Context) {
	objects, err := h.store.List(c.Request.Context(), c.GetString("identity_id"), c.Query("prefix"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, objects)
}

// Get godoc
// @Summary		Stored image metadata
// @Tags		Uploads
// @Produce		json
// @Security	BearerAuth
// @Param		id	path	string	true	"Object ID"
// @Router		/uploads/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	o, err := h.store.Get(c.Request.Context(), c.GetString("identity_id"), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, o)
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrObjectNotFound):
		response.CustomError(c, http.StatusNotFound, "UPLOAD_NOT_FOUND", err)
	case errors.Is(err, ErrInvalidPrefix):
		response.CustomError(c, http.StatusBadRequest, "VALIDATION_ERROR", err)
	default:
		slog.Error("uploads request failed", "path", c.FullPath(), "err", err)
		response.CustomError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load uploads")
	}
}
