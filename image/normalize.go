// Package image prepares captured photos for classification and storage:
// EXIF orientation is baked in and oversized photos are downscaled so the
// vision model and the database both get a bounded payload.
package image

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"github.com/apex/log"
	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/draw"

	"wastemap/capture"
)

const (
	maxDimension = 512
	jpegQuality  = 85
)

// orientation reads the EXIF orientation tag, defaulting to 1 (upright)
// whenever the tag or the EXIF block is absent.
func orientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	v, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return v
}

// applyOrientation rewrites the pixels so the stored image is upright.
// Orientations 5-8 swap the axes.
func applyOrientation(img image.Image, o int) image.Image {
	if o <= 1 || o > 8 {
		return img
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	// dst coordinates for a source pixel (x, y) per EXIF orientation.
	var dw, dh int
	var place func(x, y int) (int, int)
	switch o {
	case 2:
		dw, dh, place = w, h, func(x, y int) (int, int) { return w - 1 - x, y }
	case 3:
		dw, dh, place = w, h, func(x, y int) (int, int) { return w - 1 - x, h - 1 - y }
	case 4:
		dw, dh, place = w, h, func(x, y int) (int, int) { return x, h - 1 - y }
	case 5:
		dw, dh, place = h, w, func(x, y int) (int, int) { return y, x }
	case 6:
		dw, dh, place = h, w, func(x, y int) (int, int) { return h - 1 - y, x }
	case 7:
		dw, dh, place = h, w, func(x, y int) (int, int) { return h - 1 - y, w - 1 - x }
	case 8:
		dw, dh, place = h, w, func(x, y int) (int, int) { return y, w - 1 - x }
	}

	out := image.NewRGBA(image.Rect(0, 0, dw, dh))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := place(x, y)
			out.Set(dx, dy, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return out
}

// Normalize returns an upright JPEG no larger than 512px on its longest
// side. Images already within limits and without an orientation tag are
// returned untouched.
func Normalize(src *capture.EncodedImage) (*capture.EncodedImage, error) {
	o := orientation(src.Data)

	img, _, err := image.Decode(bytes.NewReader(src.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	b := img.Bounds()
	if o == 1 && b.Dx() <= maxDimension && b.Dy() <= maxDimension {
		return src, nil
	}

	img = applyOrientation(img, o)
	b = img.Bounds()

	w, h := b.Dx(), b.Dy()
	if w > maxDimension || h > maxDimension {
		scale := float64(maxDimension) / float64(w)
		if s := float64(maxDimension) / float64(h); s < scale {
			scale = s
		}
		w = int(float64(w) * scale)
		h = int(float64(h) * scale)
		scaled := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Over, nil)
		img = scaled
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode normalized image: %w", err)
	}

	log.Infof("Image normalized: %d bytes -> %d bytes (%dx%d, orientation %d)",
		len(src.Data), buf.Len(), w, h, o)
	return &capture.EncodedImage{Data: buf.Bytes(), MimeType: "image/jpeg"}, nil
}
