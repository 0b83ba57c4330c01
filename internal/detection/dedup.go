package detection

import (
	"sort"

	"github.com/ironsheep/exam-regions/internal/geometry"
)

// Deduplicate collapses overlapping boxes into a non-redundant set.
//
// Boxes are visited largest first; a box is dropped when its overlap ratio
// (intersection over the smaller area) with any already accepted box exceeds
// threshold. The coarsest enclosing box of a region therefore wins over the
// sub-boxes other threshold configurations found inside it.
//
// Equal areas are ordered by position and then shape, so the result depends
// only on the set of input boxes, not on their order. The input slice is not
// modified; the result is in reading order.
func Deduplicate(boxes []geometry.Rect, threshold float64) []geometry.Rect {
	if len(boxes) == 0 {
		return []geometry.Rect{}
	}

	sorted := make([]geometry.Rect, len(boxes))
	copy(sorted, boxes)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Area() != b.Area() {
			return a.Area() > b.Area()
		}
		if a.Y != b.Y || a.X != b.X {
			return geometry.ReadingLess(a, b)
		}
		return a.Width > b.Width
	})

	unique := make([]geometry.Rect, 0, len(sorted))
	for _, candidate := range sorted {
		duplicate := false
		for _, kept := range unique {
			if candidate.OverlapRatio(kept) > threshold {
				duplicate = true
				break
			}
		}
		if !duplicate {
			unique = append(unique, candidate)
		}
	}

	geometry.SortReadingOrder(unique)
	return unique
}
