package venue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"workspots/internal/domain/auth"
	"workspots/internal/geo"
	"workspots/internal/pkg/sanitize"

	"github.com/google/uuid"
)

type ImageStore interface {
	StoreImage(ctx context.Context, ownerID, prefix, name string, data []byte) (string, error)
}

type Geocoder interface {
	Resolve(ctx context.Context, address string) (geo.Place, error)
}

// Observer is told how each submission ended.
type Observer interface {
	ObserveSubmission(result string)
}

type Image struct {
	Name string
	Data []byte
}

// SubmissionInput is what a client sends. Status is accepted but ignored:
// every submission starts pending.
type SubmissionInput struct {
	Name      string
	Address   string
	Lat       *float64
	Lng       *float64
	Amenities []string
	Images    []Image
	Status    string
}

type SubmissionService struct {
	repo     Repository
	images   ImageStore
	geocoder Geocoder
	observer Observer
	now      func() time.Time
}

func NewSubmissionService(repo Repository, images ImageStore, geocoder Geocoder, observer Observer) *SubmissionService {
	return &SubmissionService{
		repo:     repo,
		images:   images,
		geocoder: geocoder,
		observer: observer,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type validated struct {
	name      string
	address   string
	point     *geo.Point
	amenities AmenitySet
}

// Submit validates the input, uploads the images one after another and
// stores a pending venue. The first failed upload aborts the submission;
// images already uploaded stay where they are.
func (s *SubmissionService) Submit(ctx context.Context, identity *auth.Identity, in SubmissionInput) (*Venue, error) {
	v, err := s.submit(ctx, identity, in)
	s.observe(err)
	return v, err
}

func (s *SubmissionService) submit(ctx context.Context, identity *auth.Identity, in SubmissionInput) (*Venue, error) {
	if identity == nil {
		return nil, ErrUnauthenticated
	}

	form, err := validate(in)
	if err != nil {
		return nil, err
	}

	point := form.point
	if point == nil {
		place, err := s.geocoder.Resolve(ctx, form.address)
		if err != nil {
			if errors.Is(err, geo.ErrNoMatch) {
				return nil, ErrAddressNotFound
			}
			return nil, fmt.Errorf("resolve address: %w", err)
		}
		point = &geo.Point{Lat: place.Lat, Lng: place.Lng}
		if place.FormattedAddress != "" {
			form.address = place.FormattedAddress
		}
	}

	urls := make(ImageList, 0, len(in.Images))
	for i, img := range in.Images {
		url, err := s.images.StoreImage(ctx, identity.ID, ImagePrefix, img.Name, img.Data)
		if err != nil {
			slog.Error("submission image upload failed", "identity_id", identity.ID, "index", i, "err", err)
			return nil, fmt.Errorf("%w: image %d: %w", ErrImageUploadFailed, i+1, err)
		}
		urls = append(urls, url)
	}

	now := s.now()
	venue := &Venue{
		ID:        uuid.NewString(),
		UserID:    identity.ID,
		Name:      form.name,
		Address:   form.address,
		Lat:       point.Lat,
		Lng:       point.Lng,
		Amenities: form.amenities,
		Images:    urls,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, venue); err != nil {
		slog.Error("save submission", "identity_id", identity.ID, "err", err)
		return nil, fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	return venue, nil
}

// ListByOwner returns the caller's own submissions with their status.
func (s *SubmissionService) ListByOwner(ctx context.Context, userID string) ([]*Venue, error) {
	return s.repo.ListByOwner(ctx, userID)
}

func validate(in SubmissionInput) (*validated, error) {
	name := sanitize.Text(in.Name)
	switch n := sanitize.Len(name); {
	case n < MinNameLength:
		return nil, ErrNameRequired
	case n > MaxNameLength:
		return nil, ErrNameTooLong
	}

	address := sanitize.Text(in.Address)
	if sanitize.Len(address) < 2 {
		return nil, ErrAddressRequired
	}

	switch {
	case len(in.Images) == 0:
		return nil, ErrNoImages
	case len(in.Images) > MaxImages:
		return nil, ErrTooManyImages
	}

	amenities, err := ParseAmenities(in.Amenities)
	if err != nil {
		return nil, err
	}

	out := &validated{name: name, address: address, amenities: amenities}
	if in.Lat != nil || in.Lng != nil {
		if in.Lat == nil || in.Lng == nil {
			return nil, ErrInvalidCoordinates
		}
		p := geo.Point{Lat: *in.Lat, Lng: *in.Lng}
		if !p.Valid() {
			return nil, ErrInvalidCoordinates
		}
		out.point = &p
	}
	return out, nil
}

func (s *SubmissionService) observe(err error) {
	if s.observer == nil {
		return
	}
	switch {
	case err == nil:
		s.observer.ObserveSubmission("accepted")
	case errors.Is(err, ErrUnauthenticated):
		s.observer.ObserveSubmission("unauthenticated")
	case errors.Is(err, ErrImageUploadFailed), errors.Is(err, ErrSaveFailed):
		s.observer.ObserveSubmission("failed")
	default:
		s.observer.ObserveSubmission("invalid")
	}
}
