package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/exam-regions/internal/geometry"
)

// DefaultJPEGQuality is used when saving regions as JPEG.
const DefaultJPEGQuality = 95

// CropRect extracts r from img. r is relative to the top-left of
// img.Bounds(); it must lie entirely inside the image.
func CropRect(img image.Image, r geometry.Rect) (*image.NRGBA, error) {
	bounds := img.Bounds()
	if !r.Within(bounds.Dx(), bounds.Dy()) {
		return nil, fmt.Errorf("crop region %s outside image bounds %dx%d", r, bounds.Dx(), bounds.Dy())
	}
	return imaging.Crop(img, r.ImageRect().Add(bounds.Min)), nil
}

// CropResult contains the cropped image data
type CropResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Crop extracts a region and returns it as a base64 PNG, optionally scaled.
func Crop(img image.Image, r geometry.Rect, scale float64) (*CropResult, error) {
	cropped, err := CropRect(img, r)
	if err != nil {
		return nil, err
	}

	var out image.Image = cropped
	if scale != 1.0 && scale > 0 {
		newWidth := max(1, int(float64(cropped.Bounds().Dx())*scale))
		newHeight := max(1, int(float64(cropped.Bounds().Dy())*scale))
		out = imaging.Resize(cropped, newWidth, newHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("failed to encode cropped image: %w", err)
	}

	return &CropResult{
		Width:       out.Bounds().Dx(),
		Height:      out.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// ValidateFormat checks that format names an encodable region format
// ("png", "jpg", "jpeg", "gif", "bmp", "tif", "tiff").
func ValidateFormat(format string) error {
	if _, err := imaging.FormatFromExtension(strings.TrimPrefix(format, ".")); err != nil {
		return fmt.Errorf("unsupported output format %q: %w", format, err)
	}
	return nil
}

// RegionFileName names the artifact for a question on a page, e.g.
// "page_2_question_5.png". Numbers are 1-based.
func RegionFileName(pageNumber, questionNumber int, format string) string {
	return fmt.Sprintf("page_%d_question_%d.%s", pageNumber, questionNumber, strings.TrimPrefix(format, "."))
}

// SaveRegion crops r from img and writes it to path. The encoder is chosen
// from the path's extension; the parent directory is created if needed.
// jpegQuality applies to JPEG output only; values outside 1..100 select
// DefaultJPEGQuality.
func SaveRegion(img image.Image, r geometry.Rect, path string, jpegQuality int) error {
	cropped, err := CropRect(img, r)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if jpegQuality < 1 || jpegQuality > 100 {
		jpegQuality = DefaultJPEGQuality
	}
	if err := imaging.Save(cropped, path, imaging.JPEGQuality(jpegQuality)); err != nil {
		return fmt.Errorf("failed to save region %s: %w", path, err)
	}
	return nil
}
