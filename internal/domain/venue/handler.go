package venue

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"workspots/internal/domain/auth"
	"workspots/internal/domain/upload"
	"workspots/internal/imaging"
	"workspots/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *SubmissionService
}

func NewHandler(service *SubmissionService) *Handler {
	return &Handler{service: service}
}

// Submit godoc
// @Summary		Submit a place for review
// @Description	Multipart form. The place is stored as pending whatever status is sent.
// @Tags		Venues
// @Accept		multipart/form-data
// @Produce		json
// @Security	BearerAuth
// @Param		name		formData	string	true	"name"
// @Param		address		formData	string	true	"address"
// @Param		lat			formData	number	false	"latitude"
// @Param		lng			formData	number	false	"longitude"
// @Param		amenities	formData	[]string	false	"amenity tags"
// @Param		images		formData	file	true	"up to 3 images"
// @Success		201	{object}	Submitted
// @Router		/venues [post]
func (h *Handler) Submit(c *gin.Context) {
	identity := identityFrom(c)
	if identity == nil {
		response.Redirect(c, http.StatusUnauthorized, "UNAUTHORIZED", ErrUnauthenticated.Error(), "/login?reason=unauthorized")
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		response.CustomError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid multipart form")
		return
	}

	in := SubmissionInput{
		Name:      c.PostForm("name"),
		Address:   c.PostForm("address"),
		Amenities: amenitiesFrom(c),
		Status:    c.PostForm("status"),
	}
	if in.Lat, err = optionalFloat(c.PostForm("lat")); err != nil {
		h.fail(c, ErrInvalidCoordinates)
		return
	}
	if in.Lng, err = optionalFloat(c.PostForm("lng")); err != nil {
		h.fail(c, ErrInvalidCoordinates)
		return
	}

	// Files past the third are dropped unread; the client gets a notice.
	var notice string
	tray := NewImageTray()
	for _, fh := range form.File["images"] {
		if tray.Len() == MaxImages {
			notice = ErrTooManyImages.Error()
			break
		}
		data, err := upload.ReadFormFile(fh)
		if err != nil {
			h.fail(c, err)
			return
		}
		if err := tray.Add(Image{Name: fh.Filename, Data: data}); err != nil {
			h.fail(c, err)
			return
		}
	}
	in.Images = tray.Images()

	v, err := h.service.Submit(c.Request.Context(), identity, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, Submitted{Venue: v, Notice: notice})
}

// Submitted is the venue as stored, plus a notice when some of the sent
// images were left out.
type Submitted struct {
	*Venue
	Notice string `json:"notice,omitempty"`
}

// ListMine godoc
// @Summary		My submissions with their review status
// @Tags		Venues
// @Produce		json
// @Security	BearerAuth
// @Router		/users/me/venues [get]
func (h *Handler) ListMine(c *gin.Context) {
	venues, err := h.service.ListByOwner(c.Request.Context(), c.GetString("identity_id"))
	if err != nil {
		slog.Error("list own venues", "err", err)
		response.CustomError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load your places")
		return
	}
	response.Success(c, http.StatusOK, venues)
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		response.Redirect(c, http.StatusUnauthorized, "UNAUTHORIZED", err.Error(), "/login?reason=unauthorized")
	case errors.Is(err, ErrTooManyImages):
		response.CustomError(c, http.StatusUnprocessableEntity, "TOO_MANY_IMAGES", err)
	case errors.Is(err, ErrNameRequired), errors.Is(err, ErrNameTooLong), errors.Is(err, ErrAddressRequired),
		errors.Is(err, ErrNoImages), errors.Is(err, ErrUnknownAmenity), errors.Is(err, ErrInvalidCoordinates):
		response.CustomError(c, http.StatusBadRequest, "VALIDATION_ERROR", err)
	case errors.Is(err, ErrAddressNotFound):
		response.CustomError(c, http.StatusUnprocessableEntity, "ADDRESS_NOT_FOUND", err)
	case errors.Is(err, upload.ErrEmptyFile), errors.Is(err, upload.ErrInvalidMimeType),
		errors.Is(err, imaging.ErrUnsupportedFormat):
		response.CustomError(c, http.StatusBadRequest, "INVALID_IMAGE", err)
	case errors.Is(err, upload.ErrFileTooLarge), errors.Is(err, imaging.ErrTooLarge):
		response.CustomError(c, http.StatusRequestEntityTooLarge, "IMAGE_TOO_LARGE", err)
	case errors.Is(err, ErrImageUploadFailed):
		response.CustomError(c, http.StatusBadGateway, "IMAGE_UPLOAD_FAILED", "Image upload failed, please try again")
	default:
		slog.Error("submission failed", "err", err)
		response.CustomError(c, http.StatusInternalServerError, "SUBMISSION_FAILED", "Could not save the place")
	}
}

func (h *Handler) RegisterRoutes(submit, dashboard *gin.RouterGroup) {
	submit.POST("/venues", h.Submit)
	dashboard.GET("/users/me/venues", h.ListMine)
}

func identityFrom(c *gin.Context) *auth.Identity {
	if v, ok := c.Get("identity"); ok {
		if i, ok := v.(*auth.Identity); ok {
			return i
		}
	}
	return nil
}

// amenitiesFrom accepts repeated fields as well as a single CSV value.
func amenitiesFrom(c *gin.Context) []string {
	var out []string
	for _, key := range []string{"amenities", "amenities[]"} {
		for _, v := range c.PostFormArray(key) {
			out = append(out, strings.Split(v, ",")...)
		}
	}
	return out
}

func optionalFloat(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
