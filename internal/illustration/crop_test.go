package illustration

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodeJPEGFile(t *testing.T, path string) image.Image {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func TestCropToAspectWideImage(t *testing.T) {
	out := filepath.Join(t.TempDir(), "cover.jpg")

	// 2000x500 is wider than 16:9, sides get trimmed
	require.NoError(t, CropToAspect(encodePNG(t, 2000, 500), 16, 9, 85, out))

	img := decodeJPEGFile(t, out)
	assert.Equal(t, 888, img.Bounds().Dx())
	assert.Equal(t, 500, img.Bounds().Dy())
}

func TestCropToAspectTallImage(t *testing.T) {
	out := filepath.Join(t.TempDir(), "cover.jpg")

	// 800x800 is taller than 16:9, top and bottom get trimmed
	require.NoError(t, CropToAspect(encodePNG(t, 800, 800), 16, 9, 85, out))

	img := decodeJPEGFile(t, out)
	assert.Equal(t, 800, img.Bounds().Dx())
	assert.Equal(t, 450, img.Bounds().Dy())
}

func TestCropToAspectAlreadyCorrect(t *testing.T) {
	out := filepath.Join(t.TempDir(), "cover.jpg")

	require.NoError(t, CropToAspect(encodePNG(t, 1600, 900), 16, 9, 85, out))

	img := decodeJPEGFile(t, out)
	assert.Equal(t, 1600, img.Bounds().Dx())
	assert.Equal(t, 900, img.Bounds().Dy())
}

func TestCropToAspectInvalidData(t *testing.T) {
	out := filepath.Join(t.TempDir(), "cover.jpg")
	err := CropToAspect([]byte("not an image"), 16, 9, 85, out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}
