package fetch

import "go.trai.ch/zerr"

var (
	// ErrToolUnavailable is returned when an external executable is not on PATH.
	ErrToolUnavailable = zerr.New("tool unavailable")

	// ErrUnauthenticated is returned when gh is installed but not logged in.
	ErrUnauthenticated = zerr.New("not authenticated")

	// ErrTimeout is returned when a source exceeded its own deadline.
	ErrTimeout = zerr.New("timed out")

	// ErrSubprocess is returned when a command exits non-zero or cannot be spawned.
	ErrSubprocess = zerr.New("subprocess failed")

	// ErrMalformedCache is returned when a cache document cannot be decoded.
	ErrMalformedCache = zerr.New("malformed cache document")

	// ErrMalformedInput is returned when the stdin document is unusable.
	ErrMalformedInput = zerr.New("malformed input")

	// ErrLockContention is returned when another process holds the refresh lock.
	ErrLockContention = zerr.New("lock held by another process")
)
