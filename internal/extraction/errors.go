package extraction

import "errors"

var (
	// ErrInvalidPage is returned for a page index outside the document
	ErrInvalidPage = errors.New("invalid page number")
	// ErrUnreadableDocument is returned when the upload cannot be decoded
	ErrUnreadableDocument = errors.New("unreadable document")
	// ErrPageTimeout is returned when a page exceeds its processing deadline
	ErrPageTimeout = errors.New("page processing timed out")
)
