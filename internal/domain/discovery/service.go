package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"workspots/internal/domain/venue"
	"workspots/internal/geo"
	"workspots/internal/source"
)

const autocompleteLimit = 5

type Locator interface {
	Center(ctx context.Context, clientIP string) geo.Center
}

type PlaceSearch interface {
	Search(ctx context.Context, query string, limit int) ([]geo.Place, error)
}

type Service struct {
	venues  source.OneShot[*venue.Venue]
	locator Locator
	places  PlaceSearch
}

// NewService reads every venue through all and keeps the approved ones.
func NewService(all source.OneShot[*venue.Venue], locator Locator, places PlaceSearch) *Service {
	return &Service{venues: all, locator: locator, places: places}
}

// Approved loads the map's working set: approved venues only.
func (s *Service) Approved(ctx context.Context) ([]*venue.Venue, error) {
	all, err := s.venues.Fetch(ctx)
	if err != nil {
		slog.Error("load venues for map", "err", err)
		return nil, fmt.Errorf("load venues: %w", err)
	}
	out := make([]*venue.Venue, 0, len(all))
	for _, v := range all {
		if v.IsApproved() {
			out = append(out, v)
		}
	}
	return out, nil
}

// Filtered is Approved narrowed by f.
func (s *Service) Filtered(ctx context.Context, f AmenityFilter) ([]*venue.Venue, error) {
	approved, err := s.Approved(ctx)
	if err != nil {
		return nil, err
	}
	return f.Apply(approved), nil
}

// Overlay opens the info panel of an approved venue.
func (s *Service) Overlay(ctx context.Context, id string) (*Overlay, error) {
	approved, err := s.Approved(ctx)
	if err != nil {
		return nil, err
	}
	if v := find(approved, id); v != nil {
		return NewOverlay(v), nil
	}
	return nil, ErrNotFound
}

// Center never fails; unknown callers get the fallback position.
func (s *Service) Center(ctx context.Context, clientIP string) geo.Center {
	if s.locator == nil {
		return geo.Center{Point: geo.Fallback, Source: geo.SourceFallback}
	}
	return s.locator.Center(ctx, clientIP)
}

func (s *Service) Autocomplete(ctx context.Context, query string) ([]geo.Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	places, err := s.places.Search(ctx, query, autocompleteLimit)
	if errors.Is(err, geo.ErrNoMatch) {
		return []geo.Place{}, nil
	}
	return places, err
}

func find(venues []*venue.Venue, id string) *venue.Venue {
	for _, v := range venues {
		if v.ID == id {
			return v
		}
	}
	return nil
}
