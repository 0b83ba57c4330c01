package detection

import (
	"errors"
	"fmt"
)

// Default tuning constants. They are empirical values for scanned exam pages
// rasterized at roughly 200 DPI.
const (
	DefaultMinContourArea        = 3000
	DefaultMinWidth              = 50
	DefaultMinHeight             = 30
	DefaultMaxWidthRatio         = 0.9
	DefaultMaxHeightRatio        = 0.8
	DefaultMinAspect             = 0.3
	DefaultMaxAspect             = 10.0
	DefaultOverlapThreshold      = 0.5
	DefaultGapFactor             = 1.5
	DefaultClusterMargin         = 20
	DefaultMinClusterWidth       = 100
	DefaultMinClusterHeight      = 50
	DefaultMinFragmentConfidence = 0.5
)

// Params holds every tunable used by the binarization, contour filter,
// deduplication and clustering stages.
type Params struct {
	// Thresholds is the battery of binarization configurations applied to
	// each page on the geometric path.
	Thresholds []ThresholdConfig `toml:"thresholds" yaml:"thresholds"`

	// MinContourArea is the floor on a component's contour area, in px².
	MinContourArea int `toml:"min_contour_area" yaml:"min_contour_area"`

	// MinWidth and MinHeight are exclusive lower bounds on a candidate box.
	MinWidth  int `toml:"min_width" yaml:"min_width"`
	MinHeight int `toml:"min_height" yaml:"min_height"`

	// MaxWidthRatio and MaxHeightRatio reject boxes spanning (nearly) the
	// whole page. Both are exclusive fractions of the page size.
	MaxWidthRatio  float64 `toml:"max_width_ratio" yaml:"max_width_ratio"`
	MaxHeightRatio float64 `toml:"max_height_ratio" yaml:"max_height_ratio"`

	// MinAspect and MaxAspect bound width/height, both exclusive.
	MinAspect float64 `toml:"min_aspect" yaml:"min_aspect"`
	MaxAspect float64 `toml:"max_aspect" yaml:"max_aspect"`

	// OverlapThreshold is the intersection-over-smaller ratio above which a
	// box is a duplicate of an already accepted one.
	OverlapThreshold float64 `toml:"overlap_threshold" yaml:"overlap_threshold"`

	// GapFactor multiplies the running line height; a larger vertical gap
	// starts a new cluster.
	GapFactor float64 `toml:"gap_factor" yaml:"gap_factor"`

	// ClusterMargin is added on each side of a cluster's union box.
	ClusterMargin int `toml:"cluster_margin" yaml:"cluster_margin"`

	// MinClusterWidth and MinClusterHeight are exclusive lower bounds on an
	// expanded cluster box.
	MinClusterWidth  int `toml:"min_cluster_width" yaml:"min_cluster_width"`
	MinClusterHeight int `toml:"min_cluster_height" yaml:"min_cluster_height"`

	// MinFragmentConfidence is the exclusive lower bound for a text fragment
	// to take part in clustering.
	MinFragmentConfidence float64 `toml:"min_fragment_confidence" yaml:"min_fragment_confidence"`
}

// DefaultParams returns the tuned defaults.
func DefaultParams() Params {
	return Params{
		Thresholds:            DefaultThresholds(),
		MinContourArea:        DefaultMinContourArea,
		MinWidth:              DefaultMinWidth,
		MinHeight:             DefaultMinHeight,
		MaxWidthRatio:         DefaultMaxWidthRatio,
		MaxHeightRatio:        DefaultMaxHeightRatio,
		MinAspect:             DefaultMinAspect,
		MaxAspect:             DefaultMaxAspect,
		OverlapThreshold:      DefaultOverlapThreshold,
		GapFactor:             DefaultGapFactor,
		ClusterMargin:         DefaultClusterMargin,
		MinClusterWidth:       DefaultMinClusterWidth,
		MinClusterHeight:      DefaultMinClusterHeight,
		MinFragmentConfidence: DefaultMinFragmentConfidence,
	}
}

// Validate reports the first invalid setting.
func (p Params) Validate() error {
	if len(p.Thresholds) == 0 {
		return errors.New("at least one threshold configuration is required")
	}
	for _, tc := range p.Thresholds {
		if err := tc.Validate(); err != nil {
			return err
		}
	}
	switch {
	case p.MinContourArea < 0:
		return fmt.Errorf("min_contour_area must be >= 0, got %d", p.MinContourArea)
	case p.MinWidth < 0 || p.MinHeight < 0:
		return fmt.Errorf("min_width/min_height must be >= 0, got %d/%d", p.MinWidth, p.MinHeight)
	case p.MaxWidthRatio <= 0 || p.MaxWidthRatio > 1:
		return fmt.Errorf("max_width_ratio must be in (0,1], got %g", p.MaxWidthRatio)
	case p.MaxHeightRatio <= 0 || p.MaxHeightRatio > 1:
		return fmt.Errorf("max_height_ratio must be in (0,1], got %g", p.MaxHeightRatio)
	case p.MinAspect < 0 || p.MaxAspect <= p.MinAspect:
		return fmt.Errorf("aspect bounds must satisfy 0 <= min < max, got %g/%g", p.MinAspect, p.MaxAspect)
	case p.OverlapThreshold <= 0 || p.OverlapThreshold > 1:
		return fmt.Errorf("overlap_threshold must be in (0,1], got %g", p.OverlapThreshold)
	case p.GapFactor <= 0:
		return fmt.Errorf("gap_factor must be > 0, got %g", p.GapFactor)
	case p.ClusterMargin < 0:
		return fmt.Errorf("cluster_margin must be >= 0, got %d", p.ClusterMargin)
	case p.MinClusterWidth < 0 || p.MinClusterHeight < 0:
		return fmt.Errorf("min_cluster_width/min_cluster_height must be >= 0, got %d/%d", p.MinClusterWidth, p.MinClusterHeight)
	case p.MinFragmentConfidence < 0 || p.MinFragmentConfidence > 1:
		return fmt.Errorf("min_fragment_confidence must be in [0,1], got %g", p.MinFragmentConfidence)
	}
	return nil
}
