package discovery

import (
	"errors"
	"log/slog"
	"net/http"

	"workspots/internal/changefeed"
	"workspots/internal/pkg/response"
	"workspots/internal/realtime"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
	hub     *realtime.Hub
	feed    changefeed.Broker
}

func NewHandler(service *Service, hub *realtime.Hub, feed changefeed.Broker) *Handler {
	return &Handler{service: service, hub: hub, feed: feed}
}

// List godoc
// @Summary		Approved places for the map
// @Tags		Discovery
// @Produce		json
// @Param		amenities	query	string	false	"comma separated amenities that must all be present"
// @Router		/venues [get]
func (h *Handler) List(c *gin.Context) {
	venues, err := h.service.Filtered(c.Request.Context(), FilterOf(c.QueryArray("amenities")...))
	if err != nil {
		response.CustomError(c, http.StatusInternalServerError, "LOAD_FAILED", "Failed to load places")
		return
	}
	response.Success(c, http.StatusOK, venues)
}

// Get godoc
// @Summary		Info panel of one approved place
// @Tags		Discovery
// @Produce		json
// @Param		id	path	string	true	"place id"
// @Router		/venues/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	overlay, err := h.service.Overlay(c.Request.Context(), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		response.CustomError(c, http.StatusNotFound, "PLACE_NOT_FOUND", err)
		return
	}
	if err != nil {
		response.CustomError(c, http.StatusInternalServerError, "LOAD_FAILED", "Failed to load the place")
		return
	}
	response.Success(c, http.StatusOK, overlay.View())
}

// Center godoc
// @Summary		Initial map centre for the caller
// @Tags		Discovery
// @Produce		json
// @Router		/map/center [get]
func (h *Handler) Center(c *gin.Context) {
	center := h.service.Center(c.Request.Context(), c.ClientIP())
	response.Success(c, http.StatusOK, gin.H{
		"center": center,
		"zoom":   DefaultZoom,
	})
}

// Autocomplete godoc
// @Summary		Address suggestions
// @Tags		Discovery
// @Produce		json
// @Param		q	query	string	true	"partial address"
// @Router		/places/autocomplete [get]
func (h *Handler) Autocomplete(c *gin.Context) {
	places, err := h.service.Autocomplete(c.Request.Context(), c.Query("q"))
	if errors.Is(err, ErrEmptyQuery) {
		response.CustomError(c, http.StatusBadRequest, "VALIDATION_ERROR", err)
		return
	}
	if err != nil {
		slog.Warn("address autocomplete failed", "err", err)
		response.CustomError(c, http.StatusBadGateway, "AUTOCOMPLETE_FAILED", "Address lookup is unavailable")
		return
	}
	response.Success(c, http.StatusOK, places)
}

// Map serves a live map session over WebSocket.
func (h *Handler) Map(c *gin.Context) {
	ctx := c.Request.Context()
	center := h.service.Center(ctx, c.ClientIP())
	h.hub.Serve(c.Writer, c.Request, "map", NewMapSession(ctx, h.service, h.feed, center))
}

func (h *Handler) RegisterRoutes(v1, ws *gin.RouterGroup) {
	v1.GET("/venues", h.List)
	v1.GET("/venues/:id", h.Get)
	v1.GET("/map/center", h.Center)
	v1.GET("/places/autocomplete", h.Autocomplete)
	ws.GET("/map", h.Map)
}
