// Package pipeline segments exam pages into question regions.
//
// A Segmenter handles one page: it clusters text fragments when a
// recognizer provides them and falls back to contour detection otherwise.
// A Runner fans a document's pages out over a bounded worker pool, saves
// each region through a RegionExtractor and collects a DocumentResult whose
// pages follow input order.
//
// Errors are page-local. An unreadable page or a failed write is recorded on
// that page's PageResult and the run continues; only an empty document
// fails the run. Progress and degradations are reported as Events to an
// Observer.
package pipeline
