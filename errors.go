// SPDX-License-Identifier: EPL-2.0

package audcache

import "errors"

var (
	// ErrNotFound is returned by lookups that match no cached handle.
	ErrNotFound = errors.New("sound not found")

	// ErrLoadTimedOut is passed to the completion callback when the engine
	// never reported ready within the configured number of checks.
	ErrLoadTimedOut = errors.New("sound load timed out")

	// ErrLoadFailed wraps the engine's error when a load fails.
	ErrLoadFailed = errors.New("sound load failed")

	// ErrHandleReleased is returned by accessors of an unloaded handle.
	ErrHandleReleased = errors.New("sound handle released")
)
