package upload

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Bucket is a directory on local disk exposed under a static URL base.
// Keys are slash separated and relative to both.
type Bucket struct {
	dir     string
	urlBase string
}

func NewBucket(dir, urlBase string) *Bucket {
	if dir == "" {
		dir = DefaultDir
	}
	if urlBase == "" {
		urlBase = DefaultURLBase
	}
	return &Bucket{dir: dir, urlBase: strings.TrimRight(urlBase, "/")}
}

func (b *Bucket) URL(key string) string { return b.urlBase + "/" + key }

func (b *Bucket) path(key string) string {
	return filepath.Join(b.dir, filepath.FromSlash(key))
}

// Write creates the object exclusively; an existing key is an error.
func (b *Bucket) Write(key string, data []byte) error {
	p := b.path(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create bucket dir: %w", err)
	}
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create object: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		_ = os.Remove(p)
		return fmt.Errorf("write object: %w", err)
	}
	return f.Close()
}

func (b *Bucket) Remove(key string) error {
	err := os.Remove(b.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func objectKey(prefix, ownerID, id, ext string) string {
	return path.Join(prefix, ownerID, id+ext)
}

func validSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
}
