package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/ironsheep/exam-regions/internal/detection"
	"github.com/ironsheep/exam-regions/internal/geometry"
	"github.com/ironsheep/exam-regions/internal/ocr"
)

// Segmentation is the outcome of segmenting one page image.
type Segmentation struct {
	Width  int
	Height int
	Path   Path

	// Regions are the question boxes in reading order.
	Regions []geometry.Rect

	// Fragments is the number of eligible text fragments clustered on the
	// assisted path.
	Fragments int

	// Candidates is the number of contour boxes found on the geometric
	// path before deduplication.
	Candidates int

	// Failures lists threshold configurations that contributed nothing.
	Failures []detection.ConfigFailure
}

// Segmenter turns a page image into question regions.
//
// When the detector finds eligible text fragments they are clustered into
// regions (assisted path). Otherwise the page is thresholded and its
// contours filtered (geometric path). Either way regions are deduplicated,
// kept inside the page and returned in reading order.
type Segmenter struct {
	Params   detection.Params
	Detector ocr.TextFragmentDetector
	Observer Observer
}

// NewSegmenter creates a Segmenter. A nil detector selects ocr.NoDetector and
// a nil observer discards events.
func NewSegmenter(params detection.Params, detector ocr.TextFragmentDetector, observer Observer) *Segmenter {
	if detector == nil {
		detector = ocr.NoDetector{}
	}
	return &Segmenter{
		Params:   params,
		Detector: detector,
		Observer: observerOrNop(observer),
	}
}

// withObserver returns a copy of s that reports to o.
func (s *Segmenter) withObserver(o Observer) *Segmenter {
	c := *s
	c.Observer = o
	return &c
}

// Segment finds the question regions on img. pageNumber only labels events.
//
// Only an empty image or a cancelled context is an error; a failing detector
// or threshold configuration degrades the result instead.
func (s *Segmenter) Segment(ctx context.Context, pageNumber int, img image.Image) (*Segmentation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	obs := observerOrNop(s.Observer)

	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: page %d is empty", ErrUnreadableImage, pageNumber)
	}
	seg := &Segmentation{Width: b.Dx(), Height: b.Dy()}

	boxes, reason, err := s.fragmentBoxes(ctx, img)
	if err != nil {
		return nil, err
	}

	var regions []geometry.Rect
	if len(boxes) > 0 {
		seg.Path = PathAssisted
		seg.Fragments = len(boxes)
		regions = detection.ClusterBoxes(boxes, seg.Width, seg.Height, s.Params)
	} else {
		seg.Path = PathGeometric
		obs.Observe(Event{Page: pageNumber, Kind: EventFallback, Detail: reason})

		candidates, failures := detection.CandidateBoxes(detection.Grayscale(img), s.Params)
		for _, f := range failures {
			obs.Observe(Event{Page: pageNumber, Kind: EventConfigFailed, Detail: f.Config.String(), Err: f.Err})
		}
		seg.Candidates = len(candidates)
		seg.Failures = failures
		regions = candidates
	}

	regions = detection.Deduplicate(regions, s.Params.OverlapThreshold)
	seg.Regions = dropDegenerate(regions, seg.Width, seg.Height, func(r geometry.Rect) {
		obs.Observe(Event{
			Page:   pageNumber,
			Kind:   EventRegionDropped,
			Detail: r.String(),
			Err:    detection.ErrDegenerateRegion,
		})
	})
	return seg, nil
}

// fragmentBoxes runs the detector and returns the eligible fragment boxes.
// When there are none, reason says why. Only context errors are returned.
func (s *Segmenter) fragmentBoxes(ctx context.Context, img image.Image) ([]geometry.Rect, string, error) {
	if s.Detector == nil {
		return nil, "no text detector", nil
	}

	fragments, err := s.Detector.Detect(ctx, img)
	switch {
	case ctx.Err() != nil:
		return nil, "", ctx.Err()
	case errors.Is(err, ocr.ErrNoDetector):
		return nil, "no text detector", nil
	case err != nil:
		return nil, fmt.Sprintf("text detector failed: %v", err), nil
	}

	boxes := ocr.EligibleBounds(fragments, s.Params.MinFragmentConfidence)
	if len(boxes) == 0 {
		return nil, fmt.Sprintf("no eligible text fragments (%d found)", len(fragments)), nil
	}
	return boxes, "", nil
}

// dropDegenerate keeps the regions that are non-empty and inside a
// width x height page, calling dropped for each one removed.
func dropDegenerate(regions []geometry.Rect, width, height int, dropped func(geometry.Rect)) []geometry.Rect {
	out := make([]geometry.Rect, 0, len(regions))
	for _, r := range regions {
		if !r.Within(width, height) {
			dropped(r)
			continue
		}
		out = append(out, r)
	}
	geometry.SortReadingOrder(out)
	return out
}
