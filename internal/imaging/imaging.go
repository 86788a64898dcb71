// Package imaging shrinks user photos before they are stored.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	// decoders for image.Decode
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/webp"
	"golang.org/x/image/draw"
)

const (
	DefaultMaxDimension = 1024
	DefaultMaxBytes     = 1 << 20
)

var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrTooLarge          = errors.New("image cannot be compressed under the size limit")
)

var qualitySteps = []int{85, 75, 65, 55, 45, 35}

// Compressor decodes an image, bounds its longest edge and re-encodes it as
// JPEG no larger than MaxBytes.
type Compressor struct {
	MaxDimension int
	MaxBytes     int
}

func NewCompressor() *Compressor {
	return &Compressor{MaxDimension: DefaultMaxDimension, MaxBytes: DefaultMaxBytes}
}

func (c *Compressor) Compress(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	img := Fit(src, c.MaxDimension)

	var buf bytes.Buffer
	for _, q := range qualitySteps {
		buf.Reset()
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: q}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
		if buf.Len() <= c.MaxBytes {
			return buf.Bytes(), nil
		}
	}
	return nil, ErrTooLarge
}

// Fit scales src down so neither side exceeds limit. Smaller images are
// returned as they are.
func Fit(src image.Image, limit int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if limit <= 0 || (w <= limit && h <= limit) {
		return src
	}

	nw, nh := limit, limit
	if w >= h {
		nh = h * limit / w
	} else {
		nw = w * limit / h
	}
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}
