package moderation

import (
	"context"
	"fmt"
	"log/slog"

	"workspots/internal/domain/venue"
	"workspots/internal/pkg/sanitize"
	"workspots/internal/source"
	"workspots/internal/view"
)

const PlacesPageSize = 6

// Observer counts completed moderation actions.
type Observer interface {
	ObserveModeration(action string)
}

type Places struct {
	repo     venue.Repository
	source   source.OneShot[*venue.Venue]
	observer Observer
}

func NewPlaces(repo venue.Repository, observer Observer) *Places {
	return &Places{
		repo:     repo,
		source:   source.FetchFunc[*venue.Venue](repo.List),
		observer: observer,
	}
}

// Board loads every place once and returns a listing over them.
func (p *Places) Board(ctx context.Context) (*PlacesBoard, error) {
	items, err := p.source.Fetch(ctx)
	if err != nil {
		slog.Error("load places for moderation", "err", err)
		return nil, fmt.Errorf("load places: %w", err)
	}
	list := view.NewListing(PlacesPageSize, placeID, matchPlace)
	list.Reconcile(items)
	return &PlacesBoard{places: p, list: list}, nil
}

func (p *Places) Approve(ctx context.Context, id string) (*venue.Venue, error) {
	return p.setStatus(ctx, id, venue.StatusApproved, ActionApprove)
}

func (p *Places) Reject(ctx context.Context, id string) (*venue.Venue, error) {
	return p.setStatus(ctx, id, venue.StatusRejected, ActionReject)
}

func (p *Places) setStatus(ctx context.Context, id string, status venue.Status, action string) (*venue.Venue, error) {
	v, err := p.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !v.IsPending() {
		return nil, ErrNotPending
	}
	if err := p.repo.Update(ctx, id, map[string]any{"status": status}); err != nil {
		slog.Error("update place status", "id", id, "status", status, "err", err)
		return nil, err
	}
	v.Status = status
	p.observe(action)
	return v, nil
}

// Edit merges the given fields and returns the stored result.
func (p *Places) Edit(ctx context.Context, id string, req EditPlaceRequest) (*venue.Venue, error) {
	fields := map[string]any{}
	if req.Name != nil {
		name := sanitize.Text(*req.Name)
		switch n := sanitize.Len(name); {
		case n < venue.MinNameLength:
			return nil, fmt.Errorf("%w: %w", ErrInvalidEdit, venue.ErrNameRequired)
		case n > venue.MaxNameLength:
			return nil, fmt.Errorf("%w: %w", ErrInvalidEdit, venue.ErrNameTooLong)
		}
		fields["name"] = name
	}
	if req.Address != nil {
		address := sanitize.Text(*req.Address)
		if sanitize.Len(address) < 2 {
			return nil, fmt.Errorf("%w: %w", ErrInvalidEdit, venue.ErrAddressRequired)
		}
		fields["address"] = address
	}
	if req.Amenities != nil {
		set, err := venue.ParseAmenityList(*req.Amenities)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidEdit, err)
		}
		fields["amenities"] = set
	}
	if len(fields) == 0 {
		return p.repo.GetByID(ctx, id)
	}

	if err := p.repo.Update(ctx, id, fields); err != nil {
		slog.Error("edit place", "id", id, "err", err)
		return nil, err
	}
	p.observe(ActionEdit)
	return p.repo.GetByID(ctx, id)
}

func (p *Places) Delete(ctx context.Context, id string) error {
	if err := p.repo.Delete(ctx, id); err != nil {
		slog.Error("delete place", "id", id, "err", err)
		return err
	}
	p.observe(ActionDelete)
	return nil
}

func (p *Places) observe(action string) {
	if p.observer != nil {
		p.observer.ObserveModeration(action)
	}
}

// PlacesBoard is one moderator's view of the places table. Successful
// actions patch the local copy instead of reloading it; failed ones leave
// it untouched.
type PlacesBoard struct {
	places *Places
	list   *view.Listing[*venue.Venue]
}

func (b *PlacesBoard) Search(term string) { b.list.Search(term) }

func (b *PlacesBoard) SetPage(n int) { b.list.SetPage(n) }

func (b *PlacesBoard) Next() { b.list.Next() }

func (b *PlacesBoard) Prev() { b.list.Prev() }

func (b *PlacesBoard) Page() Page[PlaceRow] { return pageOf(b.list, placeRow) }

// Reload replaces the local copy with a fresh read.
func (b *PlacesBoard) Reload(ctx context.Context) error {
	items, err := b.places.source.Fetch(ctx)
	if err != nil {
		return err
	}
	b.list.Reconcile(items)
	return nil
}

func (b *PlacesBoard) Approve(ctx context.Context, id string) error {
	return b.patchStatus(ctx, id, b.places.Approve)
}

func (b *PlacesBoard) Reject(ctx context.Context, id string) error {
	return b.patchStatus(ctx, id, b.places.Reject)
}

func (b *PlacesBoard) patchStatus(ctx context.Context, id string, act func(context.Context, string) (*venue.Venue, error)) error {
	updated, err := act(ctx, id)
	if err != nil {
		return err
	}
	b.list.Patch(id, func(old *venue.Venue) *venue.Venue {
		cp := *old
		cp.Status = updated.Status
		return &cp
	})
	return nil
}

func (b *PlacesBoard) Edit(ctx context.Context, id string, req EditPlaceRequest) error {
	updated, err := b.places.Edit(ctx, id, req)
	if err != nil {
		return err
	}
	b.list.Patch(id, func(*venue.Venue) *venue.Venue { return updated })
	return nil
}

func (b *PlacesBoard) Delete(ctx context.Context, id string) error {
	if err := b.places.Delete(ctx, id); err != nil {
		return err
	}
	b.list.Remove(id)
	return nil
}

func placeID(v *venue.Venue) string { return v.ID }

func matchPlace(v *venue.Venue, term string) bool {
	if view.ContainsFold(term, v.Name, v.Address) {
		return true
	}
	return view.ContainsFold(term, v.Amenities.Strings()...)
}

func placeRow(v *venue.Venue) PlaceRow {
	actions := []string{ActionEdit, ActionDelete}
	if v.IsPending() {
		actions = append([]string{ActionApprove, ActionReject}, actions...)
	}
	return PlaceRow{Venue: v, Actions: actions}
}
