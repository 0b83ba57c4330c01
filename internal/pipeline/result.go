package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ironsheep/exam-regions/internal/geometry"
)

// Path records which detection path produced a page's regions.
type Path string

const (
	// PathAssisted clusters text fragments from a recognizer.
	PathAssisted Path = "assisted"
	// PathGeometric thresholds the page and filters contours.
	PathGeometric Path = "geometric"
)

// PageResult is the outcome for one page. It is not modified after the
// runner stores it.
type PageResult struct {
	PageNumber int
	SourcePath string
	Width      int
	Height     int
	Path       Path

	// Regions are the question boxes in reading order.
	Regions []geometry.Rect

	// Artifacts are the files written for Regions, in the same order. Nil
	// when no extractor was configured.
	Artifacts []string

	// OverlayPath is the annotated page image, if one was written.
	OverlayPath string

	// Err is the page-local failure, if any.
	Err error
}

// DocumentResult is the outcome of a run over a sequence of pages.
type DocumentResult struct {
	RunID        string
	TotalPages   int
	Pages        []PageResult
	TotalRegions int
}

// Manifest is the serialized form of a DocumentResult.
type Manifest struct {
	RunID          string         `json:"run_id"`
	TotalPages     int            `json:"total_pages"`
	TotalQuestions int            `json:"total_questions"`
	Pages          []PageManifest `json:"pages"`
}

// PageManifest describes one page of a Manifest.
type PageManifest struct {
	PageNumber    int                `json:"page_number"`
	ImagePath     string             `json:"image_path"`
	DetectionPath Path               `json:"detection_path,omitempty"`
	OverlayPath   string             `json:"overlay_path,omitempty"`
	Error         string             `json:"error,omitempty"`
	Questions     []QuestionManifest `json:"questions"`
}

// QuestionManifest describes one extracted region. BoundingBox is
// [x, y, width, height], or null when there is no matching region.
type QuestionManifest struct {
	QuestionNumber int    `json:"question_number"`
	ImagePath      string `json:"image_path"`
	BoundingBox    []int  `json:"bounding_box"`
}

// Questions pairs artifacts with regions. When artifacts were written, one
// entry is produced per artifact and artifacts without a region get a nil
// box. Otherwise one entry is produced per region with no image path.
func (p PageResult) Questions() []QuestionManifest {
	if p.Artifacts == nil {
		out := make([]QuestionManifest, len(p.Regions))
		for i, r := range p.Regions {
			out[i] = QuestionManifest{QuestionNumber: i + 1, BoundingBox: r.Slice()}
		}
		return out
	}

	out := make([]QuestionManifest, len(p.Artifacts))
	for i, a := range p.Artifacts {
		q := QuestionManifest{QuestionNumber: i + 1, ImagePath: a}
		if i < len(p.Regions) {
			q.BoundingBox = p.Regions[i].Slice()
		}
		out[i] = q
	}
	return out
}

// Manifest builds the serializable manifest.
func (d *DocumentResult) Manifest() Manifest {
	m := Manifest{
		RunID:      d.RunID,
		TotalPages: d.TotalPages,
		Pages:      make([]PageManifest, len(d.Pages)),
	}
	for i, p := range d.Pages {
		pm := PageManifest{
			PageNumber:    p.PageNumber,
			ImagePath:     p.SourcePath,
			DetectionPath: p.Path,
			OverlayPath:   p.OverlayPath,
			Questions:     p.Questions(),
		}
		if p.Err != nil {
			pm.Error = p.Err.Error()
		}
		m.TotalQuestions += len(pm.Questions)
		m.Pages[i] = pm
	}
	return m
}

// WriteManifest writes the document manifest to path as indented JSON.
func WriteManifest(path string, d *DocumentResult) error {
	data, err := json.MarshalIndent(d.Manifest(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
