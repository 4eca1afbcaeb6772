package scraper

import "errors"

// failures are classified with errors.Is against these, the underlying cause
// stays attached for logging.
var (
	// ErrTransport means the source could not be reached (network, status, timeout).
	ErrTransport = errors.New("source unreachable")
	// ErrStructure means the page no longer contains the elements we extract from.
	ErrStructure = errors.New("source layout unrecognized")
	// ErrFormat means an element was found but its text did not have the expected shape.
	ErrFormat = errors.New("source format unrecognized")
	// ErrNotFound means there is no such company.
	ErrNotFound = errors.New("not found")
	// ErrInvalidTicker means the ticker was empty after trimming.
	ErrInvalidTicker = errors.New("ticker is empty")
)
