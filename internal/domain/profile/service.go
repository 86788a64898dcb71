package profile

import (
	"context"
	"fmt"

	"workspots/internal/pkg/sanitize"
)

const AvatarPrefix = "avatars"

// ImageStore compresses and stores an image, returning its public URL.
type ImageStore interface {
	StoreImage(ctx context.Context, ownerID, prefix, name string, data []byte) (string, error)
}

// Service handles self-service edits of the signed-in user's profile.
type Service struct {
	repo   Repository
	images ImageStore
}

func NewService(repo Repository, images ImageStore) *Service {
	return &Service{repo: repo, images: images}
}

func (s *Service) Get(ctx context.Context, id string) (*Profile, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateSelf applies a partial update to the caller's own profile.
func (s *Service) UpdateSelf(ctx context.Context, id string, req UpdateMeRequest) (*Profile, error) {
	fields := map[string]any{}

	if req.DisplayName != nil {
		name := sanitize.Text(*req.DisplayName)
		if n := sanitize.Len(name); n < MinDisplayNameLength || n > MaxDisplayNameLength {
			return nil, ErrDisplayName
		}
		fields["display_name"] = name
	}
	if req.JobOccupation != nil {
		job := sanitize.Text(*req.JobOccupation)
		if sanitize.Len(job) > MaxJobLength {
			return nil, ErrJobOccupation
		}
		fields["job_occupation"] = job
	}

	if len(fields) > 0 {
		if err := s.repo.Update(ctx, id, fields); err != nil {
			return nil, err
		}
	}
	return s.repo.GetByID(ctx, id)
}

// SetAvatar compresses and stores data, then points the profile at it.
func (s *Service) SetAvatar(ctx context.Context, id, filename string, data []byte) (*Profile, error) {
	url, err := s.images.StoreImage(ctx, id, AvatarPrefix, filename, data)
	if err != nil {
		return nil, fmt.Errorf("store avatar: %w", err)
	}
	if err := s.repo.Update(ctx, id, map[string]any{"avatar_url": url}); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}
