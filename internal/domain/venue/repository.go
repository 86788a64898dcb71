package venue

import (
	"context"
	"errors"
	"log/slog"

	"workspots/internal/changefeed"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, v *Venue) error
	GetByID(ctx context.Context, id string) (*Venue, error)
	List(ctx context.Context) ([]*Venue, error)
	ListByStatus(ctx context.Context, status Status) ([]*Venue, error)
	ListByOwner(ctx context.Context, userID string) ([]*Venue, error)
	Update(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error
}

type repository struct {
	db   *gorm.DB
	feed changefeed.Publisher
}

func NewRepository(db *gorm.DB, feed changefeed.Publisher) Repository {
	return &repository{db: db, feed: feed}
}

func (r *repository) Create(ctx context.Context, v *Venue) error {
	if err := r.db.WithContext(ctx).Create(v).Error; err != nil {
		return err
	}
	r.announce(ctx, v.ID, changefeed.OpCreate)
	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Venue, error) {
	var v Venue
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrVenueNotFound
	}
	if err != nil {
		return nil, err
	}
	v.Validate()
	return &v, nil
}

// List returns every venue, newest first.
func (r *repository) List(ctx context.Context) ([]*Venue, error) {
	return r.find(r.db.WithContext(ctx))
}

func (r *repository) ListByStatus(ctx context.Context, status Status) ([]*Venue, error) {
	return r.find(r.db.WithContext(ctx).Where("status = ?", status))
}

func (r *repository) ListByOwner(ctx context.Context, userID string) ([]*Venue, error) {
	return r.find(r.db.WithContext(ctx).Where("user_id = ?", userID))
}

func (r *repository) find(q *gorm.DB) ([]*Venue, error) {
	var out []*Venue
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	for _, v := range out {
		v.Validate()
	}
	return out, nil
}

// Update merges fields into the stored record.
func (r *repository) Update(ctx context.Context, id string, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&Venue{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVenueNotFound
	}
	r.announce(ctx, id, changefeed.OpUpdate)
	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&Venue{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVenueNotFound
	}
	r.announce(ctx, id, changefeed.OpDelete)
	return nil
}

func (r *repository) announce(ctx context.Context, id string, op changefeed.Op) {
	if err := changefeed.Publish(ctx, r.feed, changefeed.CollectionVenues, id, op); err != nil {
		slog.Warn("publish venue change", "id", id, "err", err)
	}
}
