// Package preprocess normalizes incoming receipt files before upload and
// extraction: raster images are orientation-corrected, flattened and
// re-encoded as bounded JPEGs; PDFs are rasterized page by page.
package preprocess

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2/log"
	"github.com/kolesa-team/go-webp/decoder"
	"github.com/kolesa-team/go-webp/webp"
	"github.com/rwcarlsen/goexif/exif"
)

// Bounding box and quality for compressed receipt images. Keeps the
// extraction model's input small and consistent.
const (
	MaxWidth    = 1920
	MaxHeight   = 1080
	JPEGQuality = 85
)

// CompressImage normalizes a raster image: applies the embedded EXIF
// rotation, flattens transparency onto white, resizes to fit within
// MaxWidth x MaxHeight and re-encodes as JPEG. Returns the path of the
// compressed file (the input path with a .jpg extension).
func CompressImage(inputPath string) (string, error) {
	img, err := decodeImage(inputPath)
	if err != nil {
		return "", fmt.Errorf("decoding %s: %w", inputPath, err)
	}

	if orient := orientationOf(inputPath); orient > 1 {
		img = applyOrientation(img, orient)
	}

	img = flattenOnWhite(img)

	bounds := img.Bounds()
	if bounds.Dx() > MaxWidth || bounds.Dy() > MaxHeight {
		img = imaging.Fit(img, MaxWidth, MaxHeight, imaging.Lanczos)
	}

	ext := filepath.Ext(inputPath)
	outputPath := strings.TrimSuffix(inputPath, ext) + ".jpg"

	if err := imaging.Save(img, outputPath, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return "", fmt.Errorf("saving %s: %w", outputPath, err)
	}

	return outputPath, nil
}

// decodeImage opens an image file. WebP needs its own decoder; everything
// else goes through the registered stdlib decoders.
func decodeImage(path string) (image.Image, error) {
	if strings.EqualFold(filepath.Ext(path), ".webp") {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return webp.Decode(f, &decoder.Options{})
	}
	return imaging.Open(path)
}

// orientationOf reads the EXIF orientation tag; 1 (upright) when the file
// carries no usable EXIF data.
func orientationOf(path string) int {
	f, err := os.Open(path)
	if err != nil {
		return 1
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		// Most scans and screenshots have no EXIF block.
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	orient, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return orient
}

// applyOrientation undoes the camera rotation encoded in the EXIF
// orientation value (2-8).
func applyOrientation(img image.Image, orient int) image.Image {
	switch orient {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// flattenOnWhite composites the image over a white background so PNG
// transparency does not turn black in the JPEG re-encode.
func flattenOnWhite(img image.Image) image.Image {
	if img, ok := img.(*image.NRGBA); ok && img.Opaque() {
		return img
	}
	bounds := img.Bounds()
	background := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	return imaging.Overlay(background, img, image.Pt(0, 0), 1.0)
}

// Processor bundles the preprocessing steps behind the interface the
// ingestion pipeline consumes.
type Processor struct{}

func NewProcessor() *Processor {
	return &Processor{}
}

func (p *Processor) CompressImage(path string) (string, error) {
	out, err := CompressImage(path)
	if err != nil {
		log.Warnf("[Preprocess] Compression failed for %s: %v", path, err)
		return "", err
	}
	return out, nil
}

func (p *Processor) RasterizePDF(path string) ([]string, error) {
	return RasterizePDF(path)
}
