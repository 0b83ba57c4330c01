package ocr

import (
	"context"
	"errors"
	"image"
	"strings"

	"github.com/ironsheep/exam-regions/internal/geometry"
)

// ErrNoDetector is returned by NoDetector. Callers treat it as "no fragments
// available" and use the geometric path.
var ErrNoDetector = errors.New("no text fragment detector configured")

// ErrOCRNotEnabled is returned when Tesseract support was not compiled in.
// Rebuild with -tags ocr to enable it.
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// TextFragment is one piece of text located by a recognizer.
type TextFragment struct {
	// Polygon is the fragment outline, usually clockwise from the top-left.
	// It need not be axis-aligned.
	Polygon [4]geometry.Point `json:"polygon"`

	// Text is the recognized content. It is only checked for emptiness.
	Text string `json:"text"`

	// Confidence is the recognizer's score in [0, 1].
	Confidence float64 `json:"confidence"`
}

// FragmentFromRect builds an axis-aligned fragment.
func FragmentFromRect(r geometry.Rect, text string, confidence float64) TextFragment {
	x1, y1 := float64(r.X), float64(r.Y)
	x2, y2 := float64(r.Right()), float64(r.Bottom())
	return TextFragment{
		Polygon: [4]geometry.Point{
			{X: x1, Y: y1}, {X: x2, Y: y1}, {X: x2, Y: y2}, {X: x1, Y: y2},
		},
		Text:       text,
		Confidence: confidence,
	}
}

// Bounds reduces the polygon to its axis-aligned bounding rectangle.
func (f TextFragment) Bounds() geometry.Rect {
	return geometry.BoundingRect(f.Polygon[:])
}

// Eligible reports whether the fragment is confident enough (strictly above
// minConfidence) and carries non-blank text.
func (f TextFragment) Eligible(minConfidence float64) bool {
	return f.Confidence > minConfidence && strings.TrimSpace(f.Text) != ""
}

// EligibleBounds returns the bounding rectangles of the eligible fragments.
func EligibleBounds(fragments []TextFragment, minConfidence float64) []geometry.Rect {
	out := make([]geometry.Rect, 0, len(fragments))
	for _, f := range fragments {
		if f.Eligible(minConfidence) {
			out = append(out, f.Bounds())
		}
	}
	return out
}

// TextFragmentDetector locates text fragments on a page image.
// Implementations must be safe for concurrent use.
type TextFragmentDetector interface {
	Detect(ctx context.Context, img image.Image) ([]TextFragment, error)
}

// NoDetector is the default detector: it never finds fragments, which makes
// the geometric path the one that runs.
type NoDetector struct{}

// Detect always returns ErrNoDetector.
func (NoDetector) Detect(context.Context, image.Image) ([]TextFragment, error) {
	return nil, ErrNoDetector
}

// StaticDetector returns the same fragments for every page. It stands in for
// an external recognizer whose output was computed ahead of time.
type StaticDetector struct {
	Fragments []TextFragment
}

// Detect returns a copy of the configured fragments.
func (s StaticDetector) Detect(ctx context.Context, _ image.Image) ([]TextFragment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]TextFragment, len(s.Fragments))
	copy(out, s.Fragments)
	return out, nil
}
