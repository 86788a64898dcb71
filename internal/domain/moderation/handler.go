package moderation

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"workspots/internal/changefeed"
	"workspots/internal/domain/profile"
	"workspots/internal/domain/venue"
	"workspots/internal/pkg/response"
	"workspots/internal/pkg/validator"
	"workspots/internal/realtime"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	places   *Places
	users    *Users
	hub      *realtime.Hub
	feed     changefeed.Broker
	sessions Sessions
}

func NewHandler(places *Places, users *Users, hub *realtime.Hub, feed changefeed.Broker, sessions Sessions) *Handler {
	return &Handler{places: places, users: users, hub: hub, feed: feed, sessions: sessions}
}

// ListPlaces godoc
// @Summary		Places awaiting or past moderation
// @Tags		Admin
// @Produce		json
// @Security	BearerAuth
// @Param		q		query	string	false	"search name, address or amenity"
// @Param		page	query	int		false	"page number"
// @Router		/admin/places [get]
func (h *Handler) ListPlaces(c *gin.Context) {
	board, err := h.places.Board(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	board.Search(c.Query("q"))
	board.SetPage(queryPage(c))
	response.Success(c, http.StatusOK, board.Page())
}

// ApprovePlace godoc
// @Summary		Approve a pending place
// @Tags		Admin
// @Produce		json
// @Security	BearerAuth
// @Param		id	path	string	true	"place id"
// @Router		/admin/places/{id}/approve [post]
func (h *Handler) ApprovePlace(c *gin.Context) {
	v, err := h.places.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, placeRow(v))
}

// RejectPlace godoc
// @Summary		Reject a pending place
// @Tags		Admin
// @Produce		json
// @Security	BearerAuth
// @Param		id	path	string	true	"place id"
// @Router		/admin/places/{id}/reject [post]
func (h *Handler) RejectPlace(c *gin.Context) {
	v, err := h.places.Reject(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, placeRow(v))
}

// EditPlace godoc
// @Summary		Edit name, address or amenities of a place
// @Tags		Admin
// @Accept		json
// @Produce		json
// @Security	BearerAuth
// @Param		id		path	string				true	"place id"
// @Param		body	body	EditPlaceRequest	true	"fields to merge"
// @Router		/admin/places/{id} [patch]
func (h *Handler) EditPlace(c *gin.Context) {
	var req EditPlaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", validator.Fields(err))
		return
	}
	v, err := h.places.Edit(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, placeRow(v))
}

// DeletePlace godoc
// @Summary		Delete a place permanently
// @Tags		Admin
// @Security	BearerAuth
// @Param		id	path	string	true	"place id"
// @Router		/admin/places/{id} [delete]
func (h *Handler) DeletePlace(c *gin.Context) {
	if err := h.places.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": c.Param("id")})
}

// ListUsers godoc
// @Summary		Newest users
// @Tags		Admin
// @Produce		json
// @Security	BearerAuth
// @Param		q		query	string	false	"search name, email or job"
// @Param		page	query	int		false	"page number"
// @Router		/admin/users [get]
func (h *Handler) ListUsers(c *gin.Context) {
	board, err := h.users.Load(c.Request.Context(), actorFrom(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	board.Search(c.Query("q"))
	board.SetPage(queryPage(c))
	response.Success(c, http.StatusOK, board.Page())
}

// SetAdmin godoc
// @Summary		Grant or revoke admin
// @Tags		Admin
// @Accept		json
// @Security	BearerAuth
// @Param		id		path	string		true	"user id"
// @Param		body	body	FlagRequest	true	"new value"
// @Router		/admin/users/{id}/admin [patch]
func (h *Handler) SetAdmin(c *gin.Context) {
	var req FlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "value is required", validator.Fields(err))
		return
	}
	if err := h.users.SetAdmin(c.Request.Context(), actorFrom(c), c.Param("id"), *req.Value); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"id": c.Param("id"), "is_admin": *req.Value})
}

// SetBanned godoc
// @Summary		Ban or unban a user
// @Tags		Admin
// @Accept		json
// @Security	BearerAuth
// @Param		id		path	string		true	"user id"
// @Param		body	body	FlagRequest	true	"new value"
// @Router		/admin/users/{id}/ban [patch]
func (h *Handler) SetBanned(c *gin.Context) {
	var req FlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "value is required", validator.Fields(err))
		return
	}
	if err := h.users.SetBanned(c.Request.Context(), actorFrom(c), c.Param("id"), *req.Value); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"id": c.Param("id"), "is_banned": *req.Value})
}

// DeleteUser godoc
// @Summary		Delete a user and their sign-in identity
// @Tags		Admin
// @Security	BearerAuth
// @Param		id	path	string	true	"user id"
// @Router		/admin/users/{id} [delete]
func (h *Handler) DeleteUser(c *gin.Context) {
	if err := h.users.Delete(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": c.Param("id")})
}

// UsersStream serves the live users table over WebSocket. The stream
// follows the admin's session and ends when admin rights are lost.
func (h *Handler) UsersStream(c *gin.Context) {
	if err := authorize(actorFrom(c)); err != nil {
		h.fail(c, err)
		return
	}
	stream := newUsersStream(c.Request.Context(), h.users, h.feed, h.sessions, c.GetString("identity_id"))
	h.hub.Serve(c.Writer, c.Request, "admin_users", stream)
}

// PlacesStream serves a moderator's places table over WebSocket.
func (h *Handler) PlacesStream(c *gin.Context) {
	if err := authorize(actorFrom(c)); err != nil {
		h.fail(c, err)
		return
	}
	stream := newPlacesStream(c.Request.Context(), h.places, h.sessions, c.GetString("identity_id"))
	h.hub.Serve(c.Writer, c.Request, "admin_places", stream)
}

func (h *Handler) fail(c *gin.Context, err error) {
	status, code, msg := classify(err)
	if status >= http.StatusInternalServerError {
		slog.Error("moderation request failed", "path", c.FullPath(), "err", err)
	}
	response.CustomError(c, status, code, msg)
}

func classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, ErrAccessDenied):
		return http.StatusForbidden, "ACCESS_DENIED", err.Error()
	case errors.Is(err, ErrSelfTarget):
		return http.StatusConflict, "SELF_TARGET", err.Error()
	case errors.Is(err, ErrNotPending):
		return http.StatusConflict, "NOT_PENDING", err.Error()
	case errors.Is(err, ErrInvalidEdit), errors.Is(err, venue.ErrUnknownAmenity):
		return http.StatusBadRequest, "VALIDATION_ERROR", err.Error()
	case errors.Is(err, venue.ErrVenueNotFound):
		return http.StatusNotFound, "PLACE_NOT_FOUND", err.Error()
	case errors.Is(err, profile.ErrProfileNotFound):
		return http.StatusNotFound, "USER_NOT_FOUND", err.Error()
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "The operation failed, please try again"
	}
}

func actorFrom(c *gin.Context) *profile.Profile {
	if v, ok := c.Get("profile"); ok {
		if p, ok := v.(*profile.Profile); ok {
			return p
		}
	}
	return nil
}

func queryPage(c *gin.Context) int {
	n, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		return 1
	}
	return n
}
