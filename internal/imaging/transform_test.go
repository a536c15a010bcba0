package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func TestTransform_WritesJPEGArtifact(t *testing.T) {
	dir := t.TempDir()
	tr := NewTransformer(dir, "/processed_images")

	src := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			src.SetNRGBA(x, y, color.NRGBA{R: 200, G: 40, B: 40, A: 128})
		}
	}

	url, err := tr.Transform("req-1", "Widget", pngBytes(t, src))
	if err != nil {
		t.Fatalf("transform failed: %v", err)
	}

	if !strings.HasPrefix(url, "/processed_images/req-1/Widget/") {
		t.Errorf("unexpected output URL %q", url)
	}
	if !strings.HasSuffix(url, ".jpg") {
		t.Errorf("expected .jpg suffix, got %q", url)
	}

	// The artifact exists on disk and decodes as a JPEG
	rel := strings.TrimPrefix(url, "/processed_images/")
	f, err := os.Open(filepath.Join(dir, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("artifact not written: %v", err)
	}
	defer f.Close()
	if _, err := jpeg.Decode(f); err != nil {
		t.Errorf("artifact is not a valid jpeg: %v", err)
	}
}

func TestTransform_UniqueArtifactNames(t *testing.T) {
	tr := NewTransformer(t.TempDir(), "/processed_images")
	raw := pngBytes(t, image.NewNRGBA(image.Rect(0, 0, 2, 2)))

	first, err := tr.Transform("req-1", "Widget", raw)
	if err != nil {
		t.Fatalf("transform failed: %v", err)
	}
	second, err := tr.Transform("req-1", "Widget", raw)
	if err != nil {
		t.Fatalf("transform failed: %v", err)
	}
	if first == second {
		t.Errorf("expected unique artifact names, got %q twice", first)
	}
}

func TestTransform_InvalidBytes(t *testing.T) {
	tr := NewTransformer(t.TempDir(), "/processed_images")

	if _, err := tr.Transform("req-1", "Widget", []byte("not an image")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestFlatten_DropsAlpha(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 0})

	out := flatten(src)
	rgba, ok := out.(*image.RGBA)
	if !ok {
		t.Fatalf("expected *image.RGBA, got %T", out)
	}

	// Raw color values survive; alpha is dropped, not composited.
	got := rgba.RGBAAt(0, 0)
	want := color.RGBA{R: 10, G: 20, B: 30, A: 255}
	if got != want {
		t.Errorf("flatten = %v, want %v", got, want)
	}
}

func TestFlatten_PassesOpaqueThrough(t *testing.T) {
	src := image.NewYCbCr(image.Rect(0, 0, 2, 2), image.YCbCrSubsampleRatio420)
	if out := flatten(src); out != src {
		t.Errorf("expected opaque image passed through unchanged")
	}
}
