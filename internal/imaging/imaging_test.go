package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

// noisyImage produces an image that compresses poorly, to force the
// quality and dimension ladders.
func noisyImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(x * 7 % 251),
				G: uint8(y * 13 % 239),
				B: uint8((x ^ y) % 256),
				A: 255,
			})
		}
	}
	return img
}

func TestCompressSmallImage(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, noisyImage(40, 30)); err != nil {
		t.Fatal(err)
	}
	uri, err := Compress(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(uri, "data:image/jpeg;base64,") {
		t.Errorf("uri prefix wrong: %.40s", uri)
	}
	if len(uri) > MaxDataURIBytes {
		t.Errorf("len = %d, over budget", len(uri))
	}
}

func TestCompressLargeImageFitsBudget(t *testing.T) {
	uri := CompressImage(noisyImage(1600, 1200))
	if len(uri) > MaxDataURIBytes {
		t.Fatalf("len = %d, over budget %d", len(uri), MaxDataURIBytes)
	}
	if !strings.HasPrefix(uri, "data:image/jpeg;base64,") {
		t.Errorf("uri prefix wrong: %.40s", uri)
	}
}

func TestCompressRejectsNonImage(t *testing.T) {
	if _, err := Compress([]byte("definitely not pixels")); err == nil {
		t.Fatal("expected decode error")
	}
}
