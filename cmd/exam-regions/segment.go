package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ironsheep/exam-regions/internal/pipeline"
)

type segmentOptions struct {
	output   string
	manifest string
	format   string
	workers  int
	ocr      bool
	lang     string
	overlay  bool
}

func newSegmentCmd(opts *options) *cobra.Command {
	so := &segmentOptions{}

	cmd := &cobra.Command{
		Use:   "segment <page-or-dir>...",
		Short: "Extract the question regions of exam pages",
		Long: `Segment page images into question regions and save each region as
page_<page>_question_<n>.<format> in the output directory.

Arguments are page images or directories of page images. Directory entries
are ordered by the last number in their names, so page_2.png comes before
page_10.png. Pages are numbered by position starting at 1.

A manifest describing every page and region is written as JSON.

Examples:
  # Contour detection only
  exam-regions segment scans/

  # Use OCR text lines when available (requires a build with -tags ocr)
  exam-regions segment --ocr --lang eng -o out scans/page_*.png`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSegment(cmd, opts, so, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&so.output, "output", "o", "", "directory for region images (default from config)")
	flags.StringVarP(&so.manifest, "manifest", "m", "", "manifest path (default <output>/manifest.json)")
	flags.StringVarP(&so.format, "format", "f", "", "region image format: png, jpg, bmp, tiff or gif")
	flags.IntVarP(&so.workers, "workers", "w", 0, "pages processed at once (0 = from config)")
	flags.BoolVar(&so.ocr, "ocr", false, "detect text lines with Tesseract before falling back to contours")
	flags.StringVar(&so.lang, "lang", "", "Tesseract language (default from config)")
	flags.BoolVar(&so.overlay, "overlay", false, "also save each page with its regions outlined")
	return cmd
}

func runSegment(cmd *cobra.Command, opts *options, so *segmentOptions, args []string) error {
	cfg, logger, err := setup(cmd, opts)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.OutputDir = so.output
	}
	if flags.Changed("format") {
		cfg.Format = so.format
	}
	if flags.Changed("workers") {
		cfg.Workers = so.workers
	}
	if flags.Changed("ocr") {
		cfg.OCR.Enabled = so.ocr
	}
	if flags.Changed("lang") {
		cfg.OCR.Language = so.lang
	}
	if flags.Changed("overlay") {
		cfg.Overlay = so.overlay
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	detector, err := newDetector(cfg)
	if err != nil {
		return err
	}

	extractor, err := pipeline.NewRegionExtractor(cfg.OutputDir, cfg.Format)
	if err != nil {
		return err
	}
	extractor.JPEGQuality = cfg.JPEGQuality
	extractor.Overlay = cfg.Overlay

	obs := pipeline.NewSlogObserver(logger)
	runner := &pipeline.Runner{
		Segmenter: pipeline.NewSegmenter(cfg.Detection, detector, obs),
		Extractor: extractor,
		Workers:   cfg.Workers,
	}

	doc, err := runner.ProcessSource(cmd.Context(), pipeline.ImageFiles(args))
	if err != nil {
		return err
	}

	manifest := so.manifest
	if manifest == "" {
		manifest = filepath.Join(cfg.OutputDir, "manifest.json")
	}
	if err := pipeline.WriteManifest(manifest, doc); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	failed := 0
	for _, p := range doc.Pages {
		if p.Err != nil {
			failed++
			fmt.Fprintf(out, "page %d: %s: error: %v\n", p.PageNumber, p.SourcePath, p.Err)
			continue
		}
		fmt.Fprintf(out, "page %d: %s: %d questions (%s)\n", p.PageNumber, p.SourcePath, len(p.Regions), p.Path)
	}
	fmt.Fprintf(out, "%d questions from %d pages written to %s\n", doc.TotalRegions, doc.TotalPages, cfg.OutputDir)
	fmt.Fprintf(out, "manifest: %s\n", manifest)

	if failed > 0 {
		logger.Warn("some pages failed", "failed", failed, "pages", doc.TotalPages)
	}
	return nil
}
