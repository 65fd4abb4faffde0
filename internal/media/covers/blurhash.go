package covers

import (
	"fmt"
	"image"

	"github.com/bbrks/go-blurhash"
	"golang.org/x/image/draw"
)

// blurHashSize is the thumbnail edge used for BlurHash computation.
// A 64px thumbnail gives nearly the same hash as the full image in a
// fraction of the time.
const blurHashSize = 64

// BlurHash computes a 4x3 component BlurHash placeholder for img.
func BlurHash(img image.Image) (string, error) {
	hash, err := blurhash.Encode(4, 3, thumbnail(img))
	if err != nil {
		return "", fmt.Errorf("encode blurhash: %w", err)
	}
	return hash, nil
}

func thumbnail(img image.Image) image.Image {
	bounds := img.Bounds()
	if bounds.Dx() <= blurHashSize && bounds.Dy() <= blurHashSize {
		return img
	}

	w, h := scaledSize(bounds.Dx(), bounds.Dy(), blurHashSize, blurHashSize)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
	return dst
}
