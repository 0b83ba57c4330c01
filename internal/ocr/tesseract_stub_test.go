//go:build !ocr

package ocr

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTesseractStub(t *testing.T) {
	assert.False(t, Available())

	d, err := NewTesseract("eng")
	assert.ErrorIs(t, err, ErrOCRNotEnabled)
	assert.Nil(t, d)

	_, err = (&Tesseract{}).Detect(context.Background(), nil)
	assert.ErrorIs(t, err, ErrOCRNotEnabled)
}
