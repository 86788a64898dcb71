package moderation

import (
	"workspots/internal/domain/profile"
	"workspots/internal/domain/venue"
	"workspots/internal/view"
)

// Row actions offered to clients.
const (
	ActionApprove     = "approve"
	ActionReject      = "reject"
	ActionEdit        = "edit"
	ActionDelete      = "delete"
	ActionToggleAdmin = "toggle_admin"
	ActionToggleBan   = "toggle_ban"
)

type PlaceRow struct {
	*venue.Venue
	Actions []string `json:"actions"`
}

type UserRow struct {
	*profile.Profile
	Actions []string `json:"actions"`
}

// Page is one window of a listing.
type Page[R any] struct {
	Rows    []R    `json:"rows"`
	Term    string `json:"term"`
	Page    int    `json:"page"`
	Pages   int    `json:"pages"`
	Total   int    `json:"total"`
	HasNext bool   `json:"has_next"`
	HasPrev bool   `json:"has_prev"`
}

func pageOf[T, R any](l *view.Listing[T], row func(T) R) Page[R] {
	window := l.Window()
	rows := make([]R, len(window))
	for i, it := range window {
		rows[i] = row(it)
	}
	return Page[R]{
		Rows:    rows,
		Term:    l.Term(),
		Page:    l.Page(),
		Pages:   l.Pages(),
		Total:   l.Total(),
		HasNext: l.HasNext(),
		HasPrev: l.HasPrev(),
	}
}

// EditPlaceRequest merges into the stored place; nil fields are kept.
// Amenities is a comma separated list such as "wifi, toilets".
type EditPlaceRequest struct {
	Name      *string `json:"name"`
	Address   *string `json:"address"`
	Amenities *string `json:"amenities"`
}

type FlagRequest struct {
	Value *bool `json:"value" binding:"required"`
}
