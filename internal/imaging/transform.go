package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"

	// Registered decoders for the input formats we accept.
	_ "image/gif"
	_ "image/png"

	"github.com/google/uuid"
)

// Quality is the fixed JPEG quality every artifact is encoded at.
const Quality = 50

// Transformer re-encodes raw image bytes as JPEG and writes the
// artifact under <dir>/<requestID>/<productName>/. Filenames are
// random so concurrent or repeated runs never overwrite each other.
type Transformer struct {
	dir        string
	publicPath string
}

func NewTransformer(dir, publicPath string) *Transformer {
	return &Transformer{dir: dir, publicPath: publicPath}
}

// Transform decodes raw, flattens alpha or palette color to RGB,
// encodes at the fixed quality and writes one artifact. It returns
// the public URL of the stored file.
func (t *Transformer) Transform(requestID, productName string, raw []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	img = flatten(img)

	outDir := filepath.Join(t.dir, requestID, productName)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	filename := uuid.New().String() + ".jpg"
	f, err := os.Create(filepath.Join(outDir, filename))
	if err != nil {
		return "", fmt.Errorf("failed to create artifact: %w", err)
	}
	defer f.Close()

	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: Quality}); err != nil {
		return "", fmt.Errorf("failed to encode jpeg: %w", err)
	}

	return fmt.Sprintf("%s/%s/%s/%s", t.publicPath, requestID, productName, filename), nil
}

// flatten drops alpha and palette color models before JPEG encoding.
// The alpha channel is discarded, not composited.
func flatten(img image.Image) image.Image {
	switch src := img.(type) {
	case *image.NRGBA:
		out := image.NewRGBA(src.Bounds())
		b := src.Bounds()
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := src.NRGBAAt(x, y)
				out.SetRGBA(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 255})
			}
		}
		return out
	case *image.RGBA, *image.NRGBA64, *image.RGBA64, *image.Paletted:
		b := img.Bounds()
		out := image.NewRGBA(b)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
				out.SetRGBA(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 255})
			}
		}
		return out
	default:
		return img
	}
}
