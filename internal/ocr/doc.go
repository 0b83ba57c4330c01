// Package ocr supplies text fragments to the text-assisted segmentation
// path.
//
// The segmenter only needs the geometry of recognized text, so the
// capability is the small TextFragmentDetector interface. Three
// implementations are provided:
//
//   - NoDetector: the default; it reports ErrNoDetector so the purely
//     geometric path runs.
//   - StaticDetector: returns fragments computed elsewhere, e.g. loaded from
//     an external recognizer's JSON output.
//   - Tesseract: runs the Tesseract engine through gosseract/v2 and reports
//     one fragment per text line.
//
// # Build Tags
//
// Tesseract needs cgo and libtesseract. It is compiled only with the "ocr"
// build tag:
//
//	go build -tags ocr ./...
//
// Without the tag NewTesseract returns ErrOCRNotEnabled and Available
// reports false. Install the engine and language data first:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng libtesseract-dev
//   - macOS: brew install tesseract
//
// # Confidence
//
// Fragment confidences are in [0, 1]. Tesseract reports 0-100 and is scaled.
// Only fragments strictly above the configured minimum and with non-blank
// text take part in clustering (TextFragment.Eligible).
package ocr
