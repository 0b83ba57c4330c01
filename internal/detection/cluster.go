package detection

import (
	"sort"

	"github.com/ironsheep/exam-regions/internal/geometry"
)

// Cluster is a run of vertically adjacent text boxes judged to belong to
// one question.
type Cluster struct {
	Members []geometry.Rect
}

// Bounds is the union of the member boxes.
func (c Cluster) Bounds() geometry.Rect {
	var u geometry.Rect
	for _, m := range c.Members {
		u = u.Union(m)
	}
	return u
}

// ClusterRects groups text boxes top to bottom.
//
// Boxes are sorted by their top edge. A running line height starts at the
// first box's height and is averaged with each following box's height. The
// vertical gap between a box and the last member of the current cluster
// starts a new cluster when it exceeds GapFactor times the line height.
// This is a single greedy pass; a boundary once drawn is never revisited.
func ClusterRects(boxes []geometry.Rect, p Params) []Cluster {
	if len(boxes) == 0 {
		return nil
	}

	sorted := make([]geometry.Rect, len(boxes))
	copy(sorted, boxes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Y < sorted[j].Y
	})

	clusters := make([]Cluster, 0)
	current := Cluster{Members: []geometry.Rect{sorted[0]}}
	lineHeight := float64(sorted[0].Height)

	for _, curr := range sorted[1:] {
		prev := current.Members[len(current.Members)-1]
		gap := float64(curr.Y - prev.Bottom())
		lineHeight = (lineHeight + float64(curr.Height)) / 2

		if gap > lineHeight*p.GapFactor {
			clusters = append(clusters, current)
			current = Cluster{Members: []geometry.Rect{curr}}
		} else {
			current.Members = append(current.Members, curr)
		}
	}
	clusters = append(clusters, current)

	return clusters
}

// ClusterBoxes turns text boxes into question boxes on a pageW x pageH page.
// Each cluster's union is grown by ClusterMargin, clamped to the page, and
// kept only if it is wider than MinClusterWidth and taller than
// MinClusterHeight.
func ClusterBoxes(boxes []geometry.Rect, pageW, pageH int, p Params) []geometry.Rect {
	out := make([]geometry.Rect, 0)
	for _, c := range ClusterRects(boxes, p) {
		r := c.Bounds().Expand(p.ClusterMargin).Clamp(pageW, pageH)
		if r.Width > p.MinClusterWidth && r.Height > p.MinClusterHeight {
			out = append(out, r)
		}
	}
	return out
}
