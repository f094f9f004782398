// Package errorspkg provides common app errors.
package errorspkg

import "errors"

// ErrInternal indicates internal server error.
//
// Stores return it when the backend is unavailable or fails in an unexpected way.
var ErrInternal = errors.New("internal")
