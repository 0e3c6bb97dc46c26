// Package session implements the multi-value selection protocol: it wraps a
// single-shot suggestion provider so the user can accumulate an ordered list
// of values over repeated suggestion round trips.
//
// # Sessions
//
// Each round trip that carries prior selections forward creates a new
// session in a bounded, time-expiring store. Session IDs come from a counter
// wrapped modulo twice the store capacity to avoid immediate reuse, and are
// rendered to the user as a short base-36 encoding inside a marker appended
// to every choice label.
//
// # Markers
//
// A continuation marker has the form "![#<count> <id>]" followed by a space
// and the user's next query text; the count is display-only. A trailing "!"
// immediately after the marker requests removal of the last accumulated
// value.
//
// # Failure Semantics
//
// An expired or foreign session yields empty suggestions at query time, not
// an error. Only final resolution at submission time surfaces
// ErrSessionExpired to the user.
//
// # Thread Safety
//
// Store and Protocol are safe for concurrent use; sessions belonging to
// different owners are never visible to each other.
package session
