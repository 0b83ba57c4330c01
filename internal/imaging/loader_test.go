package imaging

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createInMemoryImage returns a width x height image filled with c.
func createInMemoryImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// createPatternImage returns an image split into four colored quadrants:
// red top-left, green top-right, blue bottom-left, white bottom-right.
func createPatternImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var c color.RGBA
			switch {
			case x < width/2 && y < height/2:
				c = color.RGBA{255, 0, 0, 255}
			case x >= width/2 && y < height/2:
				c = color.RGBA{0, 255, 0, 255}
			case x < width/2:
				c = color.RGBA{0, 0, 255, 255}
			default:
				c = color.RGBA{255, 255, 255, 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// writeTestImage encodes img as PNG into dir/name and returns the path.
func writeTestImage(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func TestIsSupported(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"page_1.png", true},
		{"scan.JPG", true},
		{"scan.jpeg", true},
		{"scan.tif", true},
		{"scan.TIFF", true},
		{"scan.webp", true},
		{"scan.bmp", true},
		{"notes.txt", false},
		{"exam.pdf", false},
		{"noext", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSupported(tt.path))
		})
	}
}

func TestLoad(t *testing.T) {
	path := writeTestImage(t, t.TempDir(), "page.png", createPatternImage(40, 30))

	img, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())
	assert.Equal(t, 30, img.Bounds().Dy())
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("not an image"), 0o644))
	_, err = Load(bad)
	assert.ErrorContains(t, err, "failed to decode image")
}

func TestImageCache_Load(t *testing.T) {
	cache := NewImageCache()
	path := writeTestImage(t, t.TempDir(), "page.png", createInMemoryImage(100, 100, color.RGBA{255, 0, 0, 255}))

	img1, err := cache.Load(path)
	require.NoError(t, err)
	img2, err := cache.Load(path)
	require.NoError(t, err)

	assert.Same(t, img1, img2, "second Load should return the cached image")
	assert.Equal(t, 1, cache.Len())
}

func TestImageCache_Load_NonExistent(t *testing.T) {
	cache := NewImageCache()
	_, err := cache.Load("/nonexistent/path/to/image.png")
	assert.Error(t, err)
	assert.Equal(t, 0, cache.Len())
}

func TestImageCache_ClearAndEvict(t *testing.T) {
	dir := t.TempDir()
	cache := NewImageCache()
	a := writeTestImage(t, dir, "a.png", createInMemoryImage(10, 10, color.White))
	b := writeTestImage(t, dir, "b.png", createInMemoryImage(10, 10, color.Black))

	_, err := cache.Load(a)
	require.NoError(t, err)
	_, err = cache.Load(b)
	require.NoError(t, err)
	require.Equal(t, 2, cache.Len())

	cache.Evict(a)
	assert.Equal(t, 1, cache.Len())
	cache.Evict("/nonexistent/path")
	assert.Equal(t, 1, cache.Len())

	cache.Clear()
	assert.Equal(t, 0, cache.Len())
}

func TestImageCache_ConcurrentAccess(t *testing.T) {
	cache := NewImageCache()
	path := writeTestImage(t, t.TempDir(), "page.png", createInMemoryImage(50, 50, color.Gray{128}))

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Load(path); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Load failed: %v", err)
	}
	assert.Equal(t, 1, cache.Len())
}

func TestLoadPageInfo(t *testing.T) {
	cache := NewImageCache()
	path := writeTestImage(t, t.TempDir(), "page_1.png", createPatternImage(64, 48))

	info, err := LoadPageInfo(cache, path)
	require.NoError(t, err)
	assert.Equal(t, 64, info.Width)
	assert.Equal(t, 48, info.Height)
	assert.Equal(t, "png", info.Format)
	assert.False(t, info.Lossy)
	assert.Positive(t, info.FileSizeBytes)
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"a.png", "png"},
		{"a.jpg", "jpeg"},
		{"a.JPEG", "jpeg"},
		{"a.tif", "tiff"},
		{"a.bmp", "bmp"},
		{"a.gif", "gif"},
		{"a.webp", "webp"},
		{"a.xyz", "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, formatFromPath(tt.path))
		})
	}
}
