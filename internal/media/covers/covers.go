// Package covers decodes, resizes and summarises book cover images.
package covers

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// maxCoverSize limits accepted cover data to prevent memory exhaustion.
const maxCoverSize = 10 * 1024 * 1024 // 10MB

var (
	// ErrEmpty is returned for zero-length cover data.
	ErrEmpty = errors.New("cover data is empty")
	// ErrTooLarge is returned when cover data exceeds maxCoverSize.
	ErrTooLarge = errors.New("cover data too large")
)

// Result is a processed cover.
type Result struct {
	Image    image.Image
	Format   string // source format: png, jpeg, gif or webp
	Width    int
	Height   int
	BlurHash string
}

// Processor turns uploaded cover bytes into a bounded image.
type Processor struct {
	maxWidth  int
	maxHeight int
}

// NewProcessor creates a processor that scales covers down to fit within
// maxWidth x maxHeight.
func NewProcessor(maxWidth, maxHeight int) *Processor {
	return &Processor{maxWidth: maxWidth, maxHeight: maxHeight}
}

// Process decodes data, scales it to fit the configured bounds and computes
// its BlurHash.
func (p *Processor) Process(data []byte) (*Result, error) {
	img, format, err := Decode(data)
	if err != nil {
		return nil, err
	}

	img = Fit(img, p.maxWidth, p.maxHeight)

	hash, err := BlurHash(img)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	return &Result{
		Image:    img,
		Format:   format,
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		BlurHash: hash,
	}, nil
}

// Decode decodes PNG, JPEG, GIF or WebP cover data.
func Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", ErrEmpty
	}
	if len(data) > maxCoverSize {
		return nil, "", fmt.Errorf("%w: %d bytes", ErrTooLarge, len(data))
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode cover: %w", err)
	}
	return img, format, nil
}

// Fit scales img down, preserving aspect ratio, so it fits within
// maxWidth x maxHeight. Images that already fit are returned unchanged.
func Fit(img image.Image, maxWidth, maxHeight int) image.Image {
	bounds := img.Bounds()
	srcWidth, srcHeight := bounds.Dx(), bounds.Dy()

	if srcWidth <= maxWidth && srcHeight <= maxHeight {
		return img
	}

	dstWidth, dstHeight := scaledSize(srcWidth, srcHeight, maxWidth, maxHeight)
	dst := image.NewNRGBA(image.Rect(0, 0, dstWidth, dstHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)

	return dst
}

// scaledSize returns the largest size with the source aspect ratio that fits
// within the bounds. Each side is at least one pixel.
func scaledSize(srcWidth, srcHeight, maxWidth, maxHeight int) (int, int) {
	widthRatio := float64(maxWidth) / float64(srcWidth)
	heightRatio := float64(maxHeight) / float64(srcHeight)
	ratio := min(widthRatio, heightRatio)

	w := max(int(float64(srcWidth)*ratio), 1)
	h := max(int(float64(srcHeight)*ratio), 1)
	return w, h
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
