package pipeline

import "errors"

var (
	// ErrUnreadableImage marks a page whose image could not be decoded. The
	// page contributes no regions; other pages are unaffected.
	ErrUnreadableImage = errors.New("unreadable page image")

	// ErrIndexMismatch marks a page whose artifact count differs from its
	// region count. The manifest records null boxes for unmatched artifacts.
	ErrIndexMismatch = errors.New("region artifacts do not match bounding boxes")

	// ErrNoPages is returned when a run has nothing to process. It is the
	// only error that aborts a whole run.
	ErrNoPages = errors.New("no pages to process")
)
