package schema

import "errors"

var (
	// ErrMalformedDocument reports that the service document is not valid
	// JSON of the expected shape.
	ErrMalformedDocument = errors.New("schema: malformed service document")

	// ErrUnknownSelector reports a selector kind the synthesizer has no
	// handling for.
	ErrUnknownSelector = errors.New("schema: unknown selector kind")
)
