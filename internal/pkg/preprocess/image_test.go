package preprocess

import (
	"image"
	"image/color"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestImage(t *testing.T, name string, width, height int, c color.Color) string {
	t.Helper()
	img := imaging.New(width, height, c)
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, imaging.Save(img, path))
	return path
}

func TestCompressImageResizesToBounds(t *testing.T) {
	path := writeTestImage(t, "large.png", 4000, 3000, color.White)

	out, err := CompressImage(path)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out, ".jpg"))

	img, err := imaging.Open(out)
	require.NoError(t, err)
	bounds := img.Bounds()
	assert.LessOrEqual(t, bounds.Dx(), MaxWidth)
	assert.LessOrEqual(t, bounds.Dy(), MaxHeight)
}

func TestCompressImageKeepsSmallImages(t *testing.T) {
	path := writeTestImage(t, "small.png", 640, 480, color.White)

	out, err := CompressImage(path)
	require.NoError(t, err)

	img, err := imaging.Open(out)
	require.NoError(t, err)
	assert.Equal(t, 640, img.Bounds().Dx())
	assert.Equal(t, 480, img.Bounds().Dy())
}

func TestCompressImageFlattensTransparency(t *testing.T) {
	img := imaging.New(100, 100, color.NRGBA{0, 0, 0, 0})
	path := filepath.Join(t.TempDir(), "transparent.png")
	require.NoError(t, imaging.Save(img, path))

	out, err := CompressImage(path)
	require.NoError(t, err)

	flattened, err := imaging.Open(out)
	require.NoError(t, err)
	r, g, b, _ := flattened.At(50, 50).RGBA()
	// JPEG encoding may shift values slightly; expect near white.
	assert.Greater(t, r>>8, uint32(240))
	assert.Greater(t, g>>8, uint32(240))
	assert.Greater(t, b>>8, uint32(240))
}

func TestCompressImageRejectsMissingFile(t *testing.T) {
	_, err := CompressImage(filepath.Join(t.TempDir(), "nope.png"))
	assert.Error(t, err)
}

func TestApplyOrientation(t *testing.T) {
	// 30x10 landscape; orientation 6 means the camera was rotated, so
	// correcting it swaps the axes.
	img := imaging.New(30, 10, color.White)

	rotated := applyOrientation(img, 6)
	assert.Equal(t, 10, rotated.Bounds().Dx())
	assert.Equal(t, 30, rotated.Bounds().Dy())

	same := applyOrientation(img, 1)
	assert.Equal(t, image.Rect(0, 0, 30, 10), same.Bounds())
}
