package pipeline

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/ironsheep/exam-regions/internal/geometry"
	"github.com/ironsheep/exam-regions/internal/imaging"
)

const (
	// DefaultOutputDir is where region images go when no directory is given.
	DefaultOutputDir = "extracted_questions"

	// DefaultFormat is the region image format when none is given.
	DefaultFormat = "png"
)

// RegionExtractor crops regions out of page images and saves them.
type RegionExtractor struct {
	// Dir receives the region images. It is created on first use.
	Dir string

	// Format is the image file extension, e.g. "png" or "jpg".
	Format string

	// JPEGQuality applies when Format is a JPEG extension.
	JPEGQuality int

	// Overlay also writes the annotated page for each page extracted.
	Overlay bool
}

// NewRegionExtractor returns an extractor writing format images into dir.
// Empty arguments select DefaultOutputDir and DefaultFormat.
func NewRegionExtractor(dir, format string) (*RegionExtractor, error) {
	if dir == "" {
		dir = DefaultOutputDir
	}
	if format == "" {
		format = DefaultFormat
	}
	if err := imaging.ValidateFormat(format); err != nil {
		return nil, err
	}
	return &RegionExtractor{Dir: dir, Format: format, JPEGQuality: imaging.DefaultJPEGQuality}, nil
}

// Extract saves every region of a page, in order, as
// page_<page>_question_<n>.<format>. It returns the paths written. On
// failure the paths written before the failing region are returned with the
// error.
func (e *RegionExtractor) Extract(pageNumber int, img image.Image, regions []geometry.Rect) ([]string, error) {
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	artifacts := make([]string, 0, len(regions))
	for i, r := range regions {
		path := filepath.Join(e.Dir, imaging.RegionFileName(pageNumber, i+1, e.format()))
		if err := imaging.SaveRegion(img, r, path, e.JPEGQuality); err != nil {
			return artifacts, fmt.Errorf("page %d question %d: %w", pageNumber, i+1, err)
		}
		artifacts = append(artifacts, path)
	}
	return artifacts, nil
}

// ExtractOverlay writes the annotated page as page_<page>_regions.<format>
// and returns its path.
func (e *RegionExtractor) ExtractOverlay(pageNumber int, img image.Image, regions []geometry.Rect) (string, error) {
	path := filepath.Join(e.Dir, fmt.Sprintf("page_%d_regions.%s", pageNumber, e.format()))
	if err := imaging.SaveOverlay(img, regions, path); err != nil {
		return "", err
	}
	return path, nil
}

func (e *RegionExtractor) format() string {
	if e.Format == "" {
		return DefaultFormat
	}
	return e.Format
}
