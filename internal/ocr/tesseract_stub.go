//go:build !ocr

package ocr

import (
	"context"
	"image"
)

// DefaultLanguage is the Tesseract language used when none is given.
const DefaultLanguage = "eng"

// Tesseract is a placeholder; see the ocr build tag.
type Tesseract struct{}

// NewTesseract always fails with ErrOCRNotEnabled.
func NewTesseract(string) (*Tesseract, error) {
	return nil, ErrOCRNotEnabled
}

// Available reports whether Tesseract support is compiled in.
func Available() bool { return false }

// Detect always fails with ErrOCRNotEnabled.
func (*Tesseract) Detect(context.Context, image.Image) ([]TextFragment, error) {
	return nil, ErrOCRNotEnabled
}
