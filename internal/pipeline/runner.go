package pipeline

import (
	"context"
	"fmt"
	"image"
	"runtime"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/exam-regions/internal/detection"
	"github.com/ironsheep/exam-regions/internal/imaging"
)

// Loader decodes a page image.
type Loader func(path string) (image.Image, error)

// Runner segments the pages of a document in parallel.
type Runner struct {
	// Segmenter finds regions. Nil uses the default parameters without a
	// text detector.
	Segmenter *Segmenter

	// Extractor saves region images. Nil skips extraction.
	Extractor *RegionExtractor

	// Load decodes pages. Nil uses imaging.Load.
	Load Loader

	// Workers bounds the pages processed at once. Values below 1 use
	// runtime.NumCPU().
	Workers int

	// Observer receives the run's events, stamped with its RunID. Nil
	// falls back to the Segmenter's observer.
	Observer Observer
}

// Process segments every page and returns the results in input order.
//
// Failures are page-local and recorded on the PageResult. Only an empty page
// list (ErrNoPages) or a cancelled context ends the run with an error.
func (r *Runner) Process(ctx context.Context, pages []PageSource) (*DocumentResult, error) {
	if len(pages) == 0 {
		return nil, ErrNoPages
	}

	base := r.Segmenter
	if base == nil {
		base = NewSegmenter(detection.DefaultParams(), nil, nil)
	}
	target := r.Observer
	if target == nil {
		target = base.Observer
	}

	runID := uuid.NewString()
	obs := withRunID(runID, observerOrNop(target))
	seg := base.withObserver(obs)

	results := make([]PageResult, len(pages))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers())
	for i, src := range pages {
		i, src := i, src
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = r.processPage(ctx, seg, obs, src)
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	doc := &DocumentResult{
		RunID:      runID,
		TotalPages: len(results),
		Pages:      results,
	}
	for _, p := range results {
		doc.TotalRegions += len(p.Regions)
	}
	return doc, nil
}

// ProcessSource rasterizes a document and processes its pages.
func (r *Runner) ProcessSource(ctx context.Context, src Rasterizer) (*DocumentResult, error) {
	pages, err := src.Pages(ctx)
	if err != nil {
		return nil, err
	}
	return r.Process(ctx, pages)
}

func (r *Runner) processPage(ctx context.Context, seg *Segmenter, obs Observer, src PageSource) PageResult {
	res := PageResult{PageNumber: src.Number, SourcePath: src.Path}
	obs.Observe(Event{Page: src.Number, Kind: EventPageStarted, Detail: src.Path})

	fail := func(err error) PageResult {
		res.Err = err
		obs.Observe(Event{Page: src.Number, Kind: EventPageFailed, Err: err})
		return res
	}

	img, err := r.loader()(src.Path)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", ErrUnreadableImage, err))
	}

	s, err := seg.Segment(ctx, src.Number, img)
	if err != nil {
		return fail(err)
	}
	res.Width, res.Height = s.Width, s.Height
	res.Path = s.Path
	res.Regions = s.Regions

	if r.Extractor != nil {
		artifacts, err := r.Extractor.Extract(src.Number, img, s.Regions)
		res.Artifacts = artifacts
		if err != nil {
			return fail(err)
		}
		if len(artifacts) != len(s.Regions) {
			obs.Observe(Event{
				Page:   src.Number,
				Kind:   EventIndexMismatch,
				Detail: fmt.Sprintf("%d artifacts for %d regions", len(artifacts), len(s.Regions)),
				Err:    ErrIndexMismatch,
			})
		}
		if r.Extractor.Overlay {
			path, err := r.Extractor.ExtractOverlay(src.Number, img, s.Regions)
			if err != nil {
				return fail(err)
			}
			res.OverlayPath = path
		}
	}

	obs.Observe(Event{
		Page:   src.Number,
		Kind:   EventPageDone,
		Detail: fmt.Sprintf("%d regions via %s path", len(res.Regions), res.Path),
	})
	return res
}

func (r *Runner) loader() Loader {
	if r.Load == nil {
		return imaging.Load
	}
	return r.Load
}

func (r *Runner) workers() int {
	if r.Workers < 1 {
		return runtime.NumCPU()
	}
	return r.Workers
}
