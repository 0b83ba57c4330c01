//go:build ocr

package ocr

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// drawText draws text on an image using basicfont
func drawText(img *image.RGBA, x, y int, text string, col color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

// createMultiLineTextImage renders lines of text and scales the result up,
// which Tesseract reads far more reliably than 13px glyphs.
func createMultiLineTextImage(lines []string, scale int) *image.RGBA {
	maxLen := 0
	for _, line := range lines {
		if len(line) > maxLen {
			maxLen = len(line)
		}
	}

	w, h := maxLen*7+40, len(lines)*16+30
	small := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(small, small.Bounds(), image.White, image.Point{}, draw.Src)
	for i, line := range lines {
		drawText(small, 20, 20+i*16, line, color.Black)
	}

	img := image.NewRGBA(image.Rect(0, 0, w*scale, h*scale))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := small.At(x, y)
			for dy := 0; dy < scale; dy++ {
				for dx := 0; dx < scale; dx++ {
					img.Set(x*scale+dx, y*scale+dy, c)
				}
			}
		}
	}
	return img
}

func skipIfNoTesseract(t *testing.T, err error) {
	t.Helper()
	if err != nil && (strings.Contains(err.Error(), "tesseract") || strings.Contains(err.Error(), "library")) {
		t.Skip("Tesseract not available")
	}
}

func TestTesseract_Detect(t *testing.T) {
	d, err := NewTesseract("")
	if err != nil {
		t.Fatalf("NewTesseract failed: %v", err)
	}
	if !Available() {
		t.Fatal("Available should be true with the ocr tag")
	}

	img := createMultiLineTextImage([]string{"LINE ONE", "LINE TWO", "LINE THREE"}, 3)
	frags, err := d.Detect(context.Background(), img)
	skipIfNoTesseract(t, err)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	for i, f := range frags {
		b := f.Bounds()
		if !b.Within(img.Bounds().Dx(), img.Bounds().Dy()) {
			t.Errorf("fragment %d bounds %s outside image", i, b)
		}
		if f.Confidence < 0 || f.Confidence > 1 {
			t.Errorf("fragment %d confidence %f outside [0,1]", i, f.Confidence)
		}
		t.Logf("  fragment %d: %q %s (%.2f)", i, f.Text, b, f.Confidence)
	}
}

func TestTesseract_DetectCanceled(t *testing.T) {
	d, _ := NewTesseract("eng")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := d.Detect(ctx, image.NewRGBA(image.Rect(0, 0, 10, 10))); err == nil {
		t.Error("Detect should fail on a canceled context")
	}
}
