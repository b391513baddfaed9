// Package imaging converts uploaded images into data URIs small enough to
// live inside a page body. Pages embed their images instead of hosting
// them, so every upload must fit a fixed byte budget.
package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
)

// MaxDataURIBytes is the budget for one embedded image, measured on the
// final data URI string.
const MaxDataURIBytes = 60 * 1024

const (
	startQuality = 85
	minQuality   = 30
	minWidth     = 16
)

// Compress decodes an uploaded image and re-encodes it as a JPEG data URI
// within the budget. Quality is reduced first, then dimensions (keeping
// aspect ratio), so large photos degrade gracefully instead of being
// rejected. The error is non-nil only for input that is not an image.
func Compress(data []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("imaging: decode upload: %w", err)
	}
	return CompressImage(img), nil
}

// CompressImage is Compress for an already-decoded image.
func CompressImage(img image.Image) string {
	for {
		if uri, ok := encodeWithinBudget(img); ok {
			return uri
		}
		bounds := img.Bounds()
		if bounds.Dx() <= minWidth {
			// Tiny and still over budget only happens for pathological
			// inputs; emit the smallest rendition we have.
			return toDataURI(encodeJPEG(img, minQuality))
		}
		img = scaleDown(img, 0.7)
	}
}

// encodeWithinBudget walks the quality ladder at the current size.
func encodeWithinBudget(img image.Image) (string, bool) {
	for quality := startQuality; quality >= minQuality; quality -= 10 {
		uri := toDataURI(encodeJPEG(img, quality))
		if len(uri) <= MaxDataURIBytes {
			return uri, true
		}
	}
	return "", false
}

func encodeJPEG(img image.Image, quality int) []byte {
	var buf bytes.Buffer
	// Encoding an in-memory image cannot fail.
	_ = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	return buf.Bytes()
}

func toDataURI(jpg []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpg)
}

// scaleDown resizes by the given factor with Catmull-Rom resampling,
// preserving aspect ratio.
func scaleDown(img image.Image, factor float64) image.Image {
	bounds := img.Bounds()
	w := int(float64(bounds.Dx()) * factor)
	h := int(float64(bounds.Dy()) * factor)
	if w < minWidth {
		w = minWidth
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, xdraw.Over, nil)
	return dst
}
