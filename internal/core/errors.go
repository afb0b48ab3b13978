package core

import (
	"errors"
	"fmt"
)

// Sentinel errors. Every error returned by the service wraps exactly one
// of these so callers can branch with errors.Is.
var (
	// ErrMissingCredential means no auth token was supplied.
	ErrMissingCredential = errors.New("auth token not provided")
	// ErrInvalidCredential means the token was not an integer or is not registered.
	ErrInvalidCredential = errors.New("auth token invalid")
	// ErrNotFound means the addressed entity does not exist.
	ErrNotFound = errors.New("entity not found")
	// ErrConstraint covers duplicate keys, dangling references, out-of-range
	// fields and attempts to change an entity's key.
	ErrConstraint = errors.New("constraint violated")
	// ErrMalformedInput means a field could not be parsed.
	ErrMalformedInput = errors.New("malformed input")
	// ErrBatchOpen means an import batch could not be started.
	ErrBatchOpen = errors.New("import could not be opened")
	// ErrTooManyImports means the import limiter rejected the batch.
	ErrTooManyImports = errors.New("too many imports in progress")
)

// NotFound returns an ErrNotFound naming the missing entity.
func NotFound(kind Kind, id int64) error {
	return fmt.Errorf("%w: %s %d", ErrNotFound, kind.Singular(), id)
}

// Constraint returns an ErrConstraint with detail.
func Constraint(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConstraint, fmt.Sprintf(format, args...))
}

// Malformed returns an ErrMalformedInput for field holding value.
func Malformed(field, value string) error {
	return fmt.Errorf("%w: %s %q", ErrMalformedInput, field, value)
}

// batchOpen marks err as having prevented the batch from starting.
func batchOpen(err error) error {
	return fmt.Errorf("%w: %w", ErrBatchOpen, err)
}
