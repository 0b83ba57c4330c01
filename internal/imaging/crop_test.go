package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/exam-regions/internal/geometry"
)

func TestCropRect(t *testing.T) {
	img := createPatternImage(100, 100)

	cropped, err := CropRect(img, geometry.NewRect(50, 0, 50, 50))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 50, 50), cropped.Bounds())

	// Top-right quadrant is green.
	r, g, b, _ := cropped.At(10, 10).RGBA()
	assert.Equal(t, uint32(0), r>>8)
	assert.Equal(t, uint32(255), g>>8)
	assert.Equal(t, uint32(0), b>>8)
}

func TestCropRect_OffsetBounds(t *testing.T) {
	// SubImage keeps the parent's coordinates; regions stay relative to
	// the visible top-left corner.
	parent := createPatternImage(100, 100)
	sub := parent.SubImage(image.Rect(50, 50, 100, 100))

	cropped, err := CropRect(sub, geometry.NewRect(0, 0, 10, 10))
	require.NoError(t, err)
	r, g, b, _ := cropped.At(5, 5).RGBA()
	assert.Equal(t, []uint32{255, 255, 255}, []uint32{r >> 8, g >> 8, b >> 8})
}

func TestCropRect_OutOfBounds(t *testing.T) {
	img := createInMemoryImage(100, 100, color.RGBA{255, 0, 0, 255})

	tests := []struct {
		name string
		r    geometry.Rect
	}{
		{"negative x", geometry.NewRect(-1, 0, 50, 50)},
		{"negative y", geometry.NewRect(0, -1, 50, 50)},
		{"too wide", geometry.NewRect(0, 0, 101, 50)},
		{"too tall", geometry.NewRect(60, 60, 20, 41)},
		{"empty", geometry.NewRect(10, 10, 0, 5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CropRect(img, tt.r)
			assert.ErrorContains(t, err, "outside image bounds")
		})
	}
}

func TestCrop(t *testing.T) {
	img := createPatternImage(100, 100)

	result, err := Crop(img, geometry.NewRect(0, 0, 50, 50), 1.0)
	require.NoError(t, err)
	assert.Equal(t, 50, result.Width)
	assert.Equal(t, 50, result.Height)
	assert.Equal(t, "image/png", result.MimeType)

	data, err := base64.StdEncoding.DecodeString(result.ImageBase64)
	require.NoError(t, err)
	decoded, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 50, decoded.Bounds().Dx())
}

func TestCrop_Scale(t *testing.T) {
	img := createInMemoryImage(100, 100, color.RGBA{255, 0, 0, 255})

	up, err := Crop(img, geometry.NewRect(0, 0, 50, 50), 2.0)
	require.NoError(t, err)
	assert.Equal(t, 100, up.Width)
	assert.Equal(t, 100, up.Height)

	down, err := Crop(img, geometry.NewRect(0, 0, 100, 100), 0.5)
	require.NoError(t, err)
	assert.Equal(t, 50, down.Width)
	assert.Equal(t, 50, down.Height)
}

func TestValidateFormat(t *testing.T) {
	for _, f := range []string{"png", "jpg", "jpeg", ".png", "tiff", "bmp", "gif"} {
		assert.NoError(t, ValidateFormat(f), f)
	}
	for _, f := range []string{"webp", "pdf", ""} {
		assert.Error(t, ValidateFormat(f), f)
	}
}

func TestRegionFileName(t *testing.T) {
	assert.Equal(t, "page_1_question_1.png", RegionFileName(1, 1, "png"))
	assert.Equal(t, "page_12_question_3.jpg", RegionFileName(12, 3, ".jpg"))
}

func TestSaveRegion(t *testing.T) {
	img := createPatternImage(100, 100)
	path := filepath.Join(t.TempDir(), "nested", RegionFileName(1, 1, "png"))

	require.NoError(t, SaveRegion(img, geometry.NewRect(0, 50, 50, 50), path, 0))

	saved, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 50, saved.Bounds().Dx())
	r, g, b, _ := saved.At(25, 25).RGBA()
	assert.Equal(t, []uint32{0, 0, 255}, []uint32{r >> 8, g >> 8, b >> 8})
}

func TestSaveRegion_JPEG(t *testing.T) {
	img := createInMemoryImage(80, 60, color.RGBA{200, 30, 30, 255})
	path := filepath.Join(t.TempDir(), RegionFileName(2, 1, "jpg"))

	require.NoError(t, SaveRegion(img, geometry.NewRect(0, 0, 80, 60), path, 80))

	saved, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 80, saved.Bounds().Dx())
	assert.Equal(t, 60, saved.Bounds().Dy())
}

func TestSaveRegion_OutOfBounds(t *testing.T) {
	img := createPatternImage(100, 100)
	path := filepath.Join(t.TempDir(), "q.png")
	assert.Error(t, SaveRegion(img, geometry.NewRect(90, 90, 20, 20), path, 90))
	assert.NoFileExists(t, path)
}
