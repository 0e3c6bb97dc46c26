package hass

import "errors"

// Boundary errors for the hass package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, hass.ErrResponseUnsupported) {
//	    // retry the call without return_response
//	}
var (
	// ErrNotFound is returned when a requested entity or registry entry
	// does not exist.
	ErrNotFound = errors.New("hass: not found")

	// ErrUnauthorized is returned when the access token is rejected.
	ErrUnauthorized = errors.New("hass: unauthorized")

	// ErrResponseUnsupported is returned when a service call requested a
	// structured response the service does not support. Callers should
	// retry without requesting a response.
	ErrResponseUnsupported = errors.New("hass: service does not support responses")
)
