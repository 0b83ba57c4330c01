// Package imaging loads page images and renders regions found on them.
//
// Pages are decoded with disintegration/imaging, which also applies EXIF
// orientation. PNG, JPEG, GIF, BMP, TIFF and WebP inputs are accepted.
//
// # Coordinate System
//
// Regions are geometry.Rect values measured from the top-left corner of the
// image's visible area, regardless of img.Bounds().Min. X increases
// rightward and Y increases downward.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. All other functions are
// stateless and never modify their input image.
//
// # Outputs
//
// CropRect and SaveRegion extract single regions; files are named with
// RegionFileName. DrawRegions, Overlay and SaveOverlay produce the
// annotated page used to review a segmentation: every region outlined in
// its own color and labelled Q1, Q2, ... in reading order.
package imaging
