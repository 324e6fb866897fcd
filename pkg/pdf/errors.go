package pdf

import "errors"

var (
	// ErrMalformedDocument is returned when input bytes are not a usable PDF,
	// including documents without pages.
	ErrMalformedDocument = errors.New("malformed document")
	// ErrCompositionFailure is returned when rendering, merging or serializing fails.
	ErrCompositionFailure = errors.New("composition failure")
)
