package profile

import (
	"errors"
	"log/slog"
	"net/http"

	"workspots/internal/domain/upload"
	"workspots/internal/imaging"
	"workspots/internal/pkg/response"
	"workspots/internal/pkg/validator"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetMe godoc
// @Summary		Current profile
// @Tags		Profile
// @Produce		json
// @Security	BearerAuth
// @Success		200	{object}	MeResponse
// @Router		/users/me [get]
func (h *Handler) GetMe(c *gin.Context) {
	p, err := h.service.Get(c.Request.Context(), c.GetString("identity_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, MeResponse{Profile: p, JobChoices: JobChoices})
}

// UpdateMe godoc
// @Summary		Update display name or job
// @Tags		Profile
// @Accept		json
// @Produce		json
// @Security	BearerAuth
// @Param		body	body	UpdateMeRequest	true	"payload"
// @Router		/users/me [put]
func (h *Handler) UpdateMe(c *gin.Context) {
	var req UpdateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", validator.Fields(err))
		return
	}

	p, err := h.service.UpdateSelf(c.Request.Context(), c.GetString("identity_id"), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, p)
}

// UploadAvatar godoc
// @Summary		Replace avatar
// @Tags		Profile
// @Accept		multipart/form-data
// @Produce		json
// @Security	BearerAuth
// @Param		file	formData	file	true	"image"
// @Router		/users/me/avatar [post]
func (h *Handler) UploadAvatar(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.CustomError(c, http.StatusBadRequest, "VALIDATION_ERROR", "file is required")
		return
	}
	data, err := upload.ReadFormFile(fh)
	if err != nil {
		h.fail(c, err)
		return
	}

	p, err := h.service.SetAvatar(c.Request.Context(), c.GetString("identity_id"), fh.Filename, data)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, p)
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrProfileNotFound):
		response.CustomError(c, http.StatusNotFound, "PROFILE_NOT_FOUND", "Profile not found")
	case errors.Is(err, ErrDisplayName), errors.Is(err, ErrJobOccupation):
		response.CustomError(c, http.StatusBadRequest, "VALIDATION_ERROR", err)
	case errors.Is(err, upload.ErrEmptyFile), errors.Is(err, upload.ErrInvalidMimeType),
		errors.Is(err, imaging.ErrUnsupportedFormat):
		response.CustomError(c, http.StatusBadRequest, "INVALID_IMAGE", err)
	case errors.Is(err, upload.ErrFileTooLarge), errors.Is(err, imaging.ErrTooLarge):
		response.CustomError(c, http.StatusRequestEntityTooLarge, "IMAGE_TOO_LARGE", err)
	default:
		slog.Error("profile request failed", "path", c.FullPath(), "err", err)
		response.CustomError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update profile")
	}
}
