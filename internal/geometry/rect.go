// Package geometry provides the axis-aligned rectangle type shared by the
// detection, pipeline and imaging packages.
//
// Coordinates follow the image convention: origin at the top-left corner,
// X increasing rightward and Y increasing downward. A Rect covers the pixels
// [X, X+Width) horizontally and [Y, Y+Height) vertically.
package geometry

import (
	"fmt"
	"image"
	"math"
	"sort"
)

// Rect is an axis-aligned rectangle in pixel coordinates.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// NewRect builds a Rect from its top-left corner and size.
func NewRect(x, y, w, h int) Rect {
	return Rect{X: x, Y: y, Width: w, Height: h}
}

// FromImageRect converts an image.Rectangle (Min inclusive, Max exclusive).
func FromImageRect(r image.Rectangle) Rect {
	return Rect{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// ImageRect converts back to an image.Rectangle.
func (r Rect) ImageRect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.Right(), r.Bottom())
}

// Right is the exclusive right edge.
func (r Rect) Right() int { return r.X + r.Width }

// Bottom is the exclusive bottom edge.
func (r Rect) Bottom() int { return r.Y + r.Height }

// Area returns Width*Height, or 0 for an empty rectangle.
func (r Rect) Area() int {
	if r.Empty() {
		return 0
	}
	return r.Width * r.Height
}

// Empty reports whether the rectangle has no positive extent.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// AspectRatio returns Width/Height. Zero height yields +Inf.
func (r Rect) AspectRatio() float64 {
	if r.Height == 0 {
		return math.Inf(1)
	}
	return float64(r.Width) / float64(r.Height)
}

// Intersect returns the overlapping part of r and o. The result is the zero
// Rect when they do not overlap.
func (r Rect) Intersect(o Rect) Rect {
	x1 := max(r.X, o.X)
	y1 := max(r.Y, o.Y)
	x2 := min(r.Right(), o.Right())
	y2 := min(r.Bottom(), o.Bottom())
	if x1 >= x2 || y1 >= y2 {
		return Rect{}
	}
	return Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// OverlapRatio is the intersection area divided by the smaller of the two
// areas. Unlike Jaccard IoU, a box fully inside another scores 1.
func (r Rect) OverlapRatio(o Rect) float64 {
	inter := r.Intersect(o).Area()
	if inter == 0 {
		return 0
	}
	smaller := min(r.Area(), o.Area())
	return float64(inter) / float64(smaller)
}

// Union returns the smallest rectangle containing both r and o. An empty
// operand is ignored.
func (r Rect) Union(o Rect) Rect {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	x1 := min(r.X, o.X)
	y1 := min(r.Y, o.Y)
	x2 := max(r.Right(), o.Right())
	y2 := max(r.Bottom(), o.Bottom())
	return Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// Expand grows the rectangle by margin pixels on every side.
func (r Rect) Expand(margin int) Rect {
	return Rect{
		X:      r.X - margin,
		Y:      r.Y - margin,
		Width:  r.Width + 2*margin,
		Height: r.Height + 2*margin,
	}
}

// Clamp restricts the rectangle to [0,width)x[0,height). The result may be
// empty when r lies entirely outside the image.
func (r Rect) Clamp(width, height int) Rect {
	x1 := max(r.X, 0)
	y1 := max(r.Y, 0)
	x2 := min(r.Right(), width)
	y2 := min(r.Bottom(), height)
	if x2 < x1 {
		x2 = x1
	}
	if y2 < y1 {
		y2 = y1
	}
	return Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// Within reports whether r is non-empty and lies inside a width x height image.
func (r Rect) Within(width, height int) bool {
	return !r.Empty() && r.X >= 0 && r.Y >= 0 && r.Right() <= width && r.Bottom() <= height
}

// Slice returns the [x, y, w, h] form used by the manifest.
func (r Rect) Slice() []int {
	return []int{r.X, r.Y, r.Width, r.Height}
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", r.X, r.Y, r.Width, r.Height)
}

// ReadingLess orders rectangles top to bottom, then left to right.
func ReadingLess(a, b Rect) bool {
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.X < b.X
}

// SortReadingOrder sorts rects in place by Y ascending, X ascending on ties.
func SortReadingOrder(rects []Rect) {
	sort.SliceStable(rects, func(i, j int) bool {
		return ReadingLess(rects[i], rects[j])
	})
}

// Point is a sub-pixel coordinate, as reported by text recognizers.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// BoundingRect returns the axis-aligned rectangle enclosing pts. The origin
// is floored and the size truncated, matching integer pixel boxes reported
// by recognizers.
func BoundingRect(pts []Point) Rect {
	if len(pts) == 0 {
		return Rect{}
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{
		X:      int(math.Floor(minX)),
		Y:      int(math.Floor(minY)),
		Width:  int(maxX - minX),
		Height: int(maxY - minY),
	}
}
