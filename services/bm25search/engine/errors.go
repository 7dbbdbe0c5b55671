package engine

import "errors"

// Sentinel errors group failures into a small set of stable kinds, so
// callers can errors.Is against a kind rather than parsing messages.
var (
	// ErrInvalidInput covers unknown fields, malformed regexes, and
	// illegal config values. No state change occurs.
	ErrInvalidInput = errors.New("engine: invalid input")

	// ErrNotFound is surfaced only by callers that want it; operations
	// like delete-of-unknown-key and query-of-unknown-term resolve to an
	// empty result rather than this error.
	ErrNotFound = errors.New("engine: not found")

	// ErrConflict marks a duplicate external_key on insert; the engine
	// itself never returns this as an error (the row is silently
	// skipped and counted), but it is exposed for callers building
	// stricter semantics on top.
	ErrConflict = errors.New("engine: conflict")

	// ErrBackend covers I/O failures against the persistence layer.
	ErrBackend = errors.New("engine: backend failure")

	// ErrTransient names retryable storage contention. The engine itself
	// never returns it: the store retries contention, and contention that
	// exhausts its retry budget surfaces as ErrBackend.
	ErrTransient = errors.New("engine: transient failure")
)
