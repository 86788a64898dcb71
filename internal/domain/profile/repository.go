package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"workspots/internal/changefeed"

	"gorm.io/gorm"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*Profile, error)
	Create(ctx context.Context, p *Profile) error
	Update(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error
	ListRecent(ctx context.Context, limit int) ([]*Profile, error)
}

type repository struct {
	db   *gorm.DB
	feed changefeed.Publisher
}

// NewRepository returns a gorm-backed repository. Writes are announced on
// feed when it is non-nil.
func NewRepository(db *gorm.DB, feed changefeed.Publisher) Repository {
	return &repository{db: db, feed: feed}
}

func (r *repository) GetByID(ctx context.Context, id string) (*Profile, error) {
	var p Profile
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	p.Validate()
	return &p, nil
}

func (r *repository) Create(ctx context.Context, p *Profile) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return err
	}
	r.announce(ctx, p.ID, changefeed.OpCreate)
	return nil
}

// Update merges fields into the stored record; other columns are untouched.
func (r *repository) Update(ctx context.Context, id string, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&Profile{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrProfileNotFound
	}
	r.announce(ctx, id, changefeed.OpUpdate)
	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&Profile{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrProfileNotFound
	}
	r.announce(ctx, id, changefeed.OpDelete)
	return nil
}

// ListRecent returns the newest profiles first.
func (r *repository) ListRecent(ctx context.Context, limit int) ([]*Profile, error) {
	var out []*Profile
	err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	for _, p := range out {
		p.Validate()
	}
	return out, nil
}

func (r *repository) announce(ctx context.Context, id string, op changefeed.Op) {
	if err := changefeed.Publish(ctx, r.feed, changefeed.CollectionUsers, id, op); err != nil {
		// the write already succeeded; listeners catch up on the next event
		slog.Warn("publish profile change", "id", id, "err", err)
	}
}
