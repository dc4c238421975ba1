package errs

import "errors"

var (
	ErrRecordNotFound    = errors.New("record not found")
	ErrFrameNotFound     = errors.New("frame not found")
	ErrEmptyFrame        = errors.New("frame is empty")
	ErrInvalidDay        = errors.New("invalid day bucket")
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrEmptyQuery        = errors.New("query is required")
	ErrEmptyValues       = errors.New("no values to write")
	ErrMissingKey        = errors.New("job has no frame key")
	ErrProcessorStatus   = errors.New("processor returned non-success status")
)
