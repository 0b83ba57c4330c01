package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/exam-regions/internal/geometry"
)

// overlayStroke is the outline thickness in pixels.
const overlayStroke = 3

// goldenAngle spreads consecutive hues as far apart as possible.
const goldenAngle = 137.50776405003785

// Palette returns n visually distinct opaque colors. Colors are
// deterministic: region i always gets the same color.
func Palette(n int) []color.RGBA {
	out := make([]color.RGBA, n)
	for i := range out {
		hue := math.Mod(float64(i)*goldenAngle, 360)
		c := colorful.Hsv(hue, 0.85, 0.85).Clamped()
		r, g, b := c.RGB255()
		out[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return out
}

// DrawRegions returns a copy of img with each region outlined and labelled
// "Q1", "Q2", ... in order. Regions are relative to the top-left of
// img.Bounds(); parts outside the image are clipped.
func DrawRegions(img image.Image, regions []geometry.Rect) *image.RGBA {
	bounds := img.Bounds()
	result := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(result, result.Bounds(), img, bounds.Min, draw.Src)

	colors := Palette(len(regions))
	for i, r := range regions {
		c := colors[i]
		drawOutline(result, r, overlayStroke, c)
		drawLabel(result, r.X+overlayStroke, r.Y+overlayStroke, fmt.Sprintf("Q%d", i+1), c)
	}
	return result
}

// drawOutline strokes the inside edge of r.
func drawOutline(img *image.RGBA, r geometry.Rect, stroke int, c color.RGBA) {
	src := image.NewUniform(c)
	stroke = min(stroke, r.Width, r.Height)
	edges := []geometry.Rect{
		geometry.NewRect(r.X, r.Y, r.Width, stroke),
		geometry.NewRect(r.X, r.Bottom()-stroke, r.Width, stroke),
		geometry.NewRect(r.X, r.Y, stroke, r.Height),
		geometry.NewRect(r.Right()-stroke, r.Y, stroke, r.Height),
	}
	for _, e := range edges {
		draw.Draw(img, e.ImageRect().Intersect(img.Bounds()), src, image.Point{}, draw.Src)
	}
}

// drawLabel writes text in white on a box of color bg with its top-left
// corner at (x, y).
func drawLabel(img *image.RGBA, x, y int, text string, bg color.RGBA) {
	face := basicfont.Face7x13
	d := &font.Drawer{Dst: img, Src: image.White, Face: face}
	width := d.MeasureString(text).Ceil()
	height := face.Metrics().Height.Ceil()

	box := image.Rect(x, y, x+width+4, y+height+2).Intersect(img.Bounds())
	draw.Draw(img, box, image.NewUniform(bg), image.Point{}, draw.Src)

	d.Dot = fixed.P(x+2, y+1+face.Metrics().Ascent.Ceil())
	d.DrawString(text)
}

// OverlayResult contains a page with its regions drawn on it.
type OverlayResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Regions     int    `json:"regions"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Overlay draws regions on img and returns the result as a base64 PNG.
func Overlay(img image.Image, regions []geometry.Rect) (*OverlayResult, error) {
	result := DrawRegions(img, regions)

	var buf bytes.Buffer
	if err := png.Encode(&buf, result); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &OverlayResult{
		Width:       result.Bounds().Dx(),
		Height:      result.Bounds().Dy(),
		Regions:     len(regions),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// SaveOverlay draws regions on img and writes the result to path.
func SaveOverlay(img image.Image, regions []geometry.Rect, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := imaging.Save(DrawRegions(img, regions), path, imaging.JPEGQuality(DefaultJPEGQuality)); err != nil {
		return fmt.Errorf("failed to save overlay %s: %w", path, err)
	}
	return nil
}
