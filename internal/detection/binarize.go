package detection

import (
	"errors"
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/effect"
)

// ErrConfiguration marks a threshold configuration that could not be applied
// to a page. The configuration contributes no candidates; other
// configurations are unaffected.
var ErrConfiguration = errors.New("threshold configuration failed")

// ErrDegenerateRegion marks a region that is empty or extends past the page.
// Such regions are dropped before extraction.
var ErrDegenerateRegion = errors.New("degenerate region")

// Polarity selects which side of the threshold counts as foreground.
type Polarity string

const (
	// PolarityDark treats pixels at or below the threshold as foreground:
	// dark print on a light page.
	PolarityDark Polarity = "dark"

	// PolarityLight treats pixels above the threshold as foreground:
	// inverted or boxed regions on a dark background.
	PolarityLight Polarity = "light"
)

// ThresholdConfig is one binarization setting.
type ThresholdConfig struct {
	Polarity Polarity `toml:"polarity" yaml:"polarity" json:"polarity"`
	Value    uint8    `toml:"value" yaml:"value" json:"value"`
}

// String names the configuration in diagnostics, e.g. "dark@127".
func (tc ThresholdConfig) String() string {
	return fmt.Sprintf("%s@%d", tc.Polarity, tc.Value)
}

// Validate checks the polarity.
func (tc ThresholdConfig) Validate() error {
	switch tc.Polarity {
	case PolarityDark, PolarityLight:
		return nil
	default:
		return fmt.Errorf("%w: unknown polarity %q", ErrConfiguration, tc.Polarity)
	}
}

// DefaultThresholds covers both polarities at mid-gray and at a high level,
// which catches faint print and light-shaded boxes.
func DefaultThresholds() []ThresholdConfig {
	return []ThresholdConfig{
		{Polarity: PolarityLight, Value: 127},
		{Polarity: PolarityDark, Value: 127},
		{Polarity: PolarityLight, Value: 200},
		{Polarity: PolarityDark, Value: 200},
	}
}

// Mask is a binary image; true marks a foreground pixel. Pixel (x, y) is at
// Pix[y*Width+x], with (0, 0) the top-left of the source bounds.
type Mask struct {
	Width  int
	Height int
	Pix    []bool
}

// NewMask allocates an all-background mask.
func NewMask(width, height int) *Mask {
	return &Mask{Width: width, Height: height, Pix: make([]bool, width*height)}
}

// At reports whether (x, y) is foreground. Out-of-range pixels are background.
func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Pix[y*m.Width+x]
}

// Set marks (x, y) as foreground or background.
func (m *Mask) Set(x, y int, v bool) {
	m.Pix[y*m.Width+x] = v
}

// Grayscale converts img to a single-channel intensity image anchored at
// (0, 0). An *image.Gray already anchored there is returned unchanged.
func Grayscale(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Rect.Min == (image.Point{}) {
		return g
	}

	// bild returns an RGBA image with equal channels.
	rgba := effect.Grayscale(img)
	b := rgba.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		src := rgba.PixOffset(b.Min.X, b.Min.Y+y)
		dst := gray.PixOffset(0, y)
		for x := 0; x < b.Dx(); x++ {
			gray.Pix[dst+x] = rgba.Pix[src+4*x]
		}
	}
	return gray
}

// Binarize applies one threshold configuration to a grayscale page.
//
// Light polarity keeps pixels strictly brighter than Value; dark polarity
// keeps the rest.
func Binarize(gray *image.Gray, tc ThresholdConfig) (*Mask, error) {
	if err := tc.Validate(); err != nil {
		return nil, err
	}
	b := gray.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: %s on empty image", ErrConfiguration, tc)
	}

	mask := NewMask(b.Dx(), b.Dy())
	light := tc.Polarity == PolarityLight
	for y := 0; y < b.Dy(); y++ {
		row := gray.PixOffset(b.Min.X, b.Min.Y+y)
		for x := 0; x < b.Dx(); x++ {
			bright := gray.Pix[row+x] > tc.Value
			mask.Pix[y*mask.Width+x] = bright == light
		}
	}
	return mask, nil
}
