package book

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	maxImageDim = 1200
	jpegQuality = 85
)

// OptimizeImage re-encodes an image for embedding: constrained to a
// 1200x1200 bounding box preserving aspect ratio, RGB, JPEG at quality 85.
func OptimizeImage(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("image has empty bounds")
	}

	// Only shrink, never upscale.
	scale := 1.0
	if width > maxImageDim || height > maxImageDim {
		sw := float64(maxImageDim) / float64(width)
		sh := float64(maxImageDim) / float64(height)
		scale = min(sw, sh)
	}

	dstW := max(1, int(float64(width)*scale))
	dstH := max(1, int(float64(height)*scale))

	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}

	return buf.Bytes(), nil
}
