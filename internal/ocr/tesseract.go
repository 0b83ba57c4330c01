//go:build ocr

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/exam-regions/internal/geometry"
)

// DefaultLanguage is the Tesseract language used when none is given.
const DefaultLanguage = "eng"

// Tesseract detects text lines with the Tesseract engine.
//
// A new gosseract client is created per call, so a single Tesseract value
// can serve concurrent page workers.
type Tesseract struct {
	language string
}

// NewTesseract creates a detector for the given Tesseract language code.
func NewTesseract(language string) (*Tesseract, error) {
	if language == "" {
		language = DefaultLanguage
	}
	return &Tesseract{language: language}, nil
}

// Available reports whether Tesseract support is compiled in.
func Available() bool { return true }

// Detect runs Tesseract on img and returns one fragment per text line.
//
// Tesseract confidences (0-100) are scaled to [0, 1]. Bounding boxes are
// relative to the top-left corner of img.Bounds().
func (t *Tesseract) Detect(ctx context.Context, img image.Image) ([]TextFragment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode page for OCR: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("failed to get text lines: %w", err)
	}

	fragments := make([]TextFragment, 0, len(boxes))
	for _, box := range boxes {
		r := geometry.FromImageRect(box.Box)
		fragments = append(fragments, FragmentFromRect(r, box.Word, box.Confidence/100.0))
	}
	return fragments, nil
}
