package upload

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Catalog persists object metadata; the bytes live in a Bucket.
type Catalog interface {
	Insert(ctx context.Context, o *Object) error
	Get(ctx context.Context, id string) (*Object, error)
	// ListOwned returns the owner's objects, newest first. An empty prefix
	// matches every prefix.
	ListOwned(ctx context.Context, ownerID, prefix string) ([]*Object, error)
}

type catalog struct {
	db *gorm.DB
}

func NewCatalog(db *gorm.DB) Catalog {
	return &catalog{db: db}
}

func (c *catalog) Insert(ctx context.Context, o *Object) error {
	return c.db.WithContext(ctx).Create(o).Error
}

func (c *catalog) Get(ctx context.Context, id string) (*Object, error) {
	var o Object
	if err := c.db.WithContext(ctx).First(&o, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrObjectNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (c *catalog) ListOwned(ctx context.Context, ownerID, prefix string) ([]*Object, error) {
	q := c.db.WithContext(ctx).Where("owner_id = ?", ownerID)
	if prefix != "" {
		q = q.Where("prefix = ?", prefix)
	}
	var out []*Object
	err := q.Order("created_at DESC").Find(&out).Error
	return out, err
}
