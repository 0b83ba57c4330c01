package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/ironsheep/exam-regions/internal/imaging"
)

// PageSource is one rasterized page.
type PageSource struct {
	// Number is the 1-based page number.
	Number int
	// Path is the page image file.
	Path string
}

// Rasterizer produces the page images of a document.
type Rasterizer interface {
	Pages(ctx context.Context) ([]PageSource, error)
}

// ImageFiles is a Rasterizer over pages that are already images. Each entry
// is an image file or a directory of page images.
type ImageFiles []string

// Pages expands directories and numbers the pages in order. Within a
// directory, files are ordered by the last number in their name, so
// page_10.png follows page_9.png; files without a number come last.
//
// Any argument that is not a readable directory is a page of its own, even
// when it is missing or not an image; the runner then records it as
// unreadable without affecting the other pages. Only an empty result is an
// error.
func (f ImageFiles) Pages(ctx context.Context) ([]PageSource, error) {
	var paths []string
	for _, p := range f {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			paths = append(paths, p)
			continue
		}
		found, err := pageImagesIn(p)
		if err != nil {
			return nil, err
		}
		paths = append(paths, found...)
	}

	if len(paths) == 0 {
		return nil, ErrNoPages
	}
	pages := make([]PageSource, len(paths))
	for i, p := range paths {
		pages[i] = PageSource{Number: i + 1, Path: p}
	}
	return pages, nil
}

func pageImagesIn(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !imaging.IsSupported(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	SortPageNames(names)

	out := make([]string, len(names))
	for i, n := range names {
		out[i] = filepath.Join(dir, n)
	}
	return out, nil
}

var trailingNumber = regexp.MustCompile(`(\d+)\D*$`)

// pageNumberOf returns the last number in a file name.
func pageNumberOf(name string) (int, bool) {
	m := trailingNumber.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// SortPageNames sorts file names by their last number, then lexically.
// Names without a number sort after numbered ones.
func SortPageNames(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		ni, oki := pageNumberOf(names[i])
		nj, okj := pageNumberOf(names[j])
		switch {
		case oki && okj && ni != nj:
			return ni < nj
		case oki != okj:
			return oki
		default:
			return names[i] < names[j]
		}
	})
}
