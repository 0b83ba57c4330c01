// Package detection finds candidate question regions on a scanned page.
//
// Two strategies produce boxes:
//
//   - Geometric: the page is binarized under several threshold
//     configurations (Binarize), the outer connected components of each mask
//     are reduced to bounding boxes and filtered by area, size, whole-page
//     and aspect-ratio limits (ExternalComponents, Params.Accept), and the
//     boxes from all configurations are merged (CandidateBoxes).
//   - Text-assisted: bounding boxes of recognized text fragments are grouped
//     into vertical runs using an adaptive line-height estimate
//     (ClusterRects, ClusterBoxes).
//
// Either way the boxes pass through Deduplicate, which keeps the largest box
// of each overlapping group and returns the survivors in reading order.
//
// # Coordinate System
//
// Boxes are geometry.Rect values relative to the top-left of the page
// bounds: origin (0, 0), X rightward, Y downward.
//
// # Tuning
//
// All thresholds live in Params. DefaultParams carries values tuned for
// pages rasterized at about 200 DPI; scale the pixel-valued fields for other
// resolutions.
//
// # Limitations
//
// Thresholding is global, so heavy JPEG artifacts, uneven lighting or
// bleed-through reduce contour quality. Nothing here reads the text; two
// questions printed without vertical spacing will merge.
package detection
