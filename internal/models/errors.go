package models

import "errors"

// Sentinel errors shared by the storage, session, and analytics layers.
// The HTTP and MCP boundaries map these to their wire-level equivalents;
// anything else is treated as an internal failure and not leaked to callers.
var (
	// ErrNotFound means the referenced session, exercise, set, or scheduled
	// workout does not exist or does not belong to the calling user.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState means an operation was attempted against a session that
	// is not in the lifecycle state the operation requires.
	ErrInvalidState = errors.New("invalid session state")

	// ErrUnauthorized means no caller identity could be resolved.
	ErrUnauthorized = errors.New("unauthorized")
)
