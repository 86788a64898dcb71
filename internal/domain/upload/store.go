package upload

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	MaxFileSize    = 15 << 20 // before compression
	DefaultDir     = "./uploads"
	DefaultURLBase = "/static/uploads"
)

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Store writes images to a Bucket and records them in a Catalog.
type Store struct {
	catalog Catalog
	bucket  *Bucket
	now     func() time.Time
}

func NewStore(catalog Catalog, bucket *Bucket) *Store {
	return &Store{catalog: catalog, bucket: bucket, now: time.Now}
}

// Put stores data under <prefix>/<owner>/<uuid>.<ext> and returns the
// recorded object. The URL never changes once returned.
func (s *Store) Put(ctx context.Context, ownerID, prefix, name string, data []byte) (*Object, error) {
	switch {
	case len(data) == 0:
		return nil, ErrEmptyFile
	case len(data) > MaxFileSize:
		return nil, ErrFileTooLarge
	case !validSegment(prefix), !validSegment(ownerID):
		return nil, ErrInvalidPrefix
	}

	contentType, _, _ := strings.Cut(http.DetectContentType(data), ";")
	ext, ok := extensions[contentType]
	if !ok {
		return nil, ErrInvalidMimeType
	}

	id := uuid.NewString()
	key := objectKey(prefix, ownerID, id, ext)
	if err := s.bucket.Write(key, data); err != nil {
		return nil, err
	}

	o := &Object{
		ID:          id,
		OwnerID:     ownerID,
		Prefix:      prefix,
		SourceName:  filepath.Base(name),
		Key:         key,
		URL:         s.bucket.URL(key),
		ContentType: contentType,
		Size:        int64(len(data)),
		CreatedAt:   s.now().UTC(),
	}
	if err := s.catalog.Insert(ctx, o); err != nil {
		_ = s.bucket.Remove(key)
		return nil, fmt.Errorf("record object: %w", err)
	}
	return o, nil
}

// Get returns the object only to its owner; anyone else sees not found.
func (s *Store) Get(ctx context.Context, ownerID, id string) (*Object, error) {
	o, err := s.catalog.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.OwnerID != ownerID {
		return nil, ErrObjectNotFound
	}
	return o, nil
}

func (s *Store) List(ctx context.Context, ownerID, prefix string) ([]*Object, error) {
	if prefix != "" && !validSegment(prefix) {
		return nil, ErrInvalidPrefix
	}
	return s.catalog.ListOwned(ctx, ownerID, prefix)
}
