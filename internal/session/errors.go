package session

import "errors"

// ErrSessionExpired reports that a submitted selection references a session
// that no longer exists. The message is user-facing.
var ErrSessionExpired = errors.New("session: selection data expired, please redo your selection")
