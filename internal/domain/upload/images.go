package upload

import (
	"context"
	"fmt"
)

type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// ImageStore compresses before it stores, so every image served back is a
// bounded JPEG.
type ImageStore struct {
	compressor Compressor
	store      *Store
}

func NewImageStore(compressor Compressor, store *Store) *ImageStore {
	return &ImageStore{compressor: compressor, store: store}
}

// StoreImage returns the public URL of the compressed copy.
func (s *ImageStore) StoreImage(ctx context.Context, ownerID, prefix, name string, data []byte) (string, error) {
	compressed, err := s.compressor.Compress(data)
	if err != nil {
		return "", fmt.Errorf("compress %s: %w", name, err)
	}
	o, err := s.store.Put(ctx, ownerID, prefix, name, compressed)
	if err != nil {
		return "", fmt.Errorf("store %s: %w", name, err)
	}
	return o.URL, nil
}
