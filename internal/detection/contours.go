package detection

import (
	"fmt"
	"image"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/exam-regions/internal/geometry"
)

// Component is an outer connected foreground region of a mask.
type Component struct {
	// Bounds is the minimal axis-aligned rectangle containing the component.
	Bounds geometry.Rect

	// Area is the area of the polygon through the centres of the outer
	// boundary pixels, holes included. A hollow frame therefore has the
	// area of the box it draws, not of its stroke, and a solid w x h block
	// has (w-1)*(h-1).
	Area int

	// Pixels is the number of foreground pixels in the component.
	Pixels int
}

// ConfigFailure records a threshold configuration that produced no
// candidates because it failed.
type ConfigFailure struct {
	Config ThresholdConfig
	Err    error
}

// ExternalComponents finds the outer connected components of a mask.
//
// Foreground is 8-connected and background 4-connected. A component is outer
// when it touches the image border or borders background that reaches the
// border; components nested inside another component's hole are skipped.
func ExternalComponents(m *Mask) []Component {
	w, h := m.Width, m.Height
	if w == 0 || h == 0 {
		return nil
	}

	outside := markOutside(m)
	labels := make([]int32, w*h)
	components := make([]Component, 0)

	var label int32
	stack := make([]int, 0, 64)

	for start := range m.Pix {
		if !m.Pix[start] || labels[start] != 0 {
			continue
		}
		label++

		minX, minY := w, h
		maxX, maxY := -1, -1
		pixels := 0
		external := false

		labels[start] = label
		stack = append(stack[:0], start)
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := p%w, p/w
			pixels++

			minX = min(minX, x)
			maxX = max(maxX, x)
			minY = min(minY, y)
			maxY = max(maxY, y)

			if x == 0 || y == 0 || x == w-1 || y == h-1 {
				external = true
			}

			// 8-connected neighbors
			for dy := -1; dy <= 1; dy++ {
				ny := y + dy
				if ny < 0 || ny >= h {
					continue
				}
				for dx := -1; dx <= 1; dx++ {
					nx := x + dx
					if (dx == 0 && dy == 0) || nx < 0 || nx >= w {
						continue
					}
					n := ny*w + nx
					if m.Pix[n] {
						if labels[n] == 0 {
							labels[n] = label
							stack = append(stack, n)
						}
					} else if !external && (dx == 0 || dy == 0) && outside[n] {
						external = true
					}
				}
			}
		}

		if !external {
			continue
		}

		bounds := geometry.NewRect(minX, minY, maxX-minX+1, maxY-minY+1)
		components = append(components, Component{
			Bounds: bounds,
			Area:   contourArea(labels, w, label, bounds),
			Pixels: pixels,
		})
	}

	return components
}

// markOutside flags the background pixels 4-connected to the image border.
func markOutside(m *Mask) []bool {
	w, h := m.Width, m.Height
	outside := make([]bool, w*h)
	stack := make([]int, 0, 2*(w+h))

	push := func(p int) {
		if !m.Pix[p] && !outside[p] {
			outside[p] = true
			stack = append(stack, p)
		}
	}
	for x := 0; x < w; x++ {
		push(x)
		push((h-1)*w + x)
	}
	for y := 0; y < h; y++ {
		push(y * w)
		push(y*w + w - 1)
	}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := p%w, p/w
		if x > 0 {
			push(p - 1)
		}
		if x < w-1 {
			push(p + 1)
		}
		if y > 0 {
			push(p - w)
		}
		if y < h-1 {
			push(p + w)
		}
	}
	return outside
}

// contourArea measures the polygon traced through the centres of a
// component's outer boundary pixels.
//
// It flood-fills, inside the bounding box padded by one pixel, everything
// that is not the component and reachable from the padding. What is left is
// the component plus its holes; those lattice points are the polygon's
// interior and boundary, so Pick's theorem gives the area as
// enclosed - boundary/2 - 1. Boundary pixels are component pixels with a
// reached 4-neighbor. Degenerate shapes (single pixels, one-pixel lines)
// come out at or near zero.
func contourArea(labels []int32, imgW int, label int32, b geometry.Rect) int {
	pw, ph := b.Width+2, b.Height+2
	reached := make([]bool, pw*ph)
	offsets := [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

	isComponent := func(lx, ly int) bool {
		x, y := b.X+lx-1, b.Y+ly-1
		if lx == 0 || ly == 0 || lx == pw-1 || ly == ph-1 {
			return false
		}
		return labels[y*imgW+x] == label
	}

	count := 1
	reached[0] = true
	stack := []int{0}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		lx, ly := p%pw, p/pw

		for _, d := range offsets {
			nx, ny := lx+d[0], ly+d[1]
			if nx < 0 || ny < 0 || nx >= pw || ny >= ph {
				continue
			}
			n := ny*pw + nx
			if reached[n] || isComponent(nx, ny) {
				continue
			}
			reached[n] = true
			count++
			stack = append(stack, n)
		}
	}
	enclosed := pw*ph - count

	boundary := 0
	for ly := 1; ly < ph-1; ly++ {
		for lx := 1; lx < pw-1; lx++ {
			if !isComponent(lx, ly) {
				continue
			}
			for _, d := range offsets {
				if reached[(ly+d[1])*pw+lx+d[0]] {
					boundary++
					break
				}
			}
		}
	}

	return max(0, (2*enclosed-boundary-2)/2)
}

// Accept reports whether a component is a plausible question region on a
// pageW x pageH page. All of the area, size, whole-page and aspect filters
// must pass.
func (p Params) Accept(c Component, pageW, pageH int) bool {
	w, h := c.Bounds.Width, c.Bounds.Height
	if c.Area < p.MinContourArea {
		return false
	}
	if w <= p.MinWidth || h <= p.MinHeight {
		return false
	}
	if float64(w) >= p.MaxWidthRatio*float64(pageW) || float64(h) >= p.MaxHeightRatio*float64(pageH) {
		return false
	}
	aspect := c.Bounds.AspectRatio()
	return aspect > p.MinAspect && aspect < p.MaxAspect
}

// BoxesForConfig binarizes the page with one configuration and returns the
// accepted component boxes. A panic raised while processing the mask is
// reported as ErrConfiguration.
func BoxesForConfig(gray *image.Gray, tc ThresholdConfig, p Params) (boxes []geometry.Rect, err error) {
	defer func() {
		if r := recover(); r != nil {
			boxes = nil
			err = fmt.Errorf("%w: %s: %v", ErrConfiguration, tc, r)
		}
	}()

	mask, err := Binarize(gray, tc)
	if err != nil {
		return nil, err
	}

	pageW, pageH := mask.Width, mask.Height
	boxes = make([]geometry.Rect, 0)
	for _, c := range ExternalComponents(mask) {
		if p.Accept(c, pageW, pageH) {
			boxes = append(boxes, c.Bounds)
		}
	}
	return boxes, nil
}

// CandidateBoxes runs every configured threshold concurrently and returns the
// concatenation of their accepted boxes, plus the configurations that failed.
// Boxes are expected to repeat across configurations; Deduplicate resolves
// them.
func CandidateBoxes(gray *image.Gray, p Params) ([]geometry.Rect, []ConfigFailure) {
	results := make([][]geometry.Rect, len(p.Thresholds))
	errs := make([]error, len(p.Thresholds))

	var g errgroup.Group
	for i, tc := range p.Thresholds {
		i, tc := i, tc
		g.Go(func() error {
			results[i], errs[i] = BoxesForConfig(gray, tc, p)
			return nil
		})
	}
	_ = g.Wait()

	all := make([]geometry.Rect, 0)
	var failures []ConfigFailure
	for i, boxes := range results {
		if errs[i] != nil {
			failures = append(failures, ConfigFailure{Config: p.Thresholds[i], Err: errs[i]})
			continue
		}
		all = append(all, boxes...)
	}
	return all, failures
}
