package query

import (
	"errors"
	"fmt"
)

// QueryError represents a fatal failure detected by the dispatcher.
//
// Both failure kinds are deterministic functions of the request and
// session state: an unsupported query reproduces on every retry with
// the same provider table, and a cycle reproduces in the same calling
// context. Neither is memoized - a cycle depends on the calling
// context, not solely on the key - and neither leaves the stack or
// the memo tables corrupted.
type QueryError struct {
	// Code identifies the failure category.
	Code QueryErrorCode

	// Kind is the query kind of the failing request.
	Kind Kind

	// Key is the canonical key rendering.
	Key string

	// Message is a human-readable description.
	Message string

	// Chain is the ordered frame chain for cycles: from the frame
	// being re-entered up to the top of the stack at detection time.
	Chain []Frame

	// Limit is the configured depth limit for DEPTH_EXCEEDED.
	Limit int

	// reported guards against the same error being handed to the
	// diagnostics sink twice as it propagates out of nested queries.
	reported bool
}

// QueryErrorCode categorizes query failures.
type QueryErrorCode string

const (
	// ErrCodeCycle indicates a recursive chain of query evaluations
	// that would require completing a (kind, key) pair before the
	// first call to it returns.
	ErrCodeCycle QueryErrorCode = "CYCLE_DETECTED"

	// ErrCodeUnsupported indicates no provider is registered for
	// (kind, owning crate). Always an internal defect - a missing
	// registration - never a user-input error.
	ErrCodeUnsupported QueryErrorCode = "UNSUPPORTED_QUERY"

	// ErrCodePurity indicates a second insert for an already-cached
	// key carried a differing value, which means a provider was not
	// pure in its key.
	ErrCodePurity QueryErrorCode = "PURITY_VIOLATION"

	// ErrCodeDepth indicates the in-flight query stack exceeded the
	// configured limit: a linear chain too deep to be a cycle.
	ErrCodeDepth QueryErrorCode = "DEPTH_EXCEEDED"
)

// Error implements the error interface.
func (e *QueryError) Error() string {
	if len(e.Chain) > 0 {
		return fmt.Sprintf("%s: %s (chain length %d)", e.Code, e.Message, len(e.Chain))
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsCycleError reports whether err is a cycle failure.
// Uses errors.As to handle wrapped errors.
func IsCycleError(err error) bool {
	return hasCode(err, ErrCodeCycle)
}

// IsUnsupportedError reports whether err is an unsupported-query failure.
func IsUnsupportedError(err error) bool {
	return hasCode(err, ErrCodeUnsupported)
}

// IsPurityError reports whether err is a purity violation.
func IsPurityError(err error) bool {
	return hasCode(err, ErrCodePurity)
}

// IsDepthError reports whether err is a depth-limit failure.
func IsDepthError(err error) bool {
	return hasCode(err, ErrCodeDepth)
}

func hasCode(err error, code QueryErrorCode) bool {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Code == code
	}
	return false
}

// NewCycleError creates a QueryError for a detected cycle. The chain
// is the ordered frame list from the re-entered frame to the stack
// top at detection time.
func NewCycleError(kind Kind, key string, chain []Frame) *QueryError {
	return &QueryError{
		Code:    ErrCodeCycle,
		Kind:    kind,
		Key:     key,
		Message: fmt.Sprintf("cyclic dependency computing %s(%s)", kind, key),
		Chain:   chain,
	}
}

// NewUnsupportedError creates a QueryError for a missing provider
// registration. Names both kind and key so the missing slot is
// identifiable from the report alone.
func NewUnsupportedError(kind Kind, key string) *QueryError {
	return &QueryError{
		Code:    ErrCodeUnsupported,
		Kind:    kind,
		Key:     key,
		Message: fmt.Sprintf("%s(%s) unsupported by its crate", kind, key),
	}
}

// NewPurityError creates a QueryError for a differing duplicate
// insert into a memo table.
func NewPurityError(kind Kind, key string) *QueryError {
	return &QueryError{
		Code:    ErrCodePurity,
		Kind:    kind,
		Key:     key,
		Message: fmt.Sprintf("%s(%s) recomputed to a different value", kind, key),
	}
}

// NewDepthError creates a QueryError for an exceeded stack depth.
func NewDepthError(kind Kind, key string, limit int) *QueryError {
	return &QueryError{
		Code:    ErrCodeDepth,
		Kind:    kind,
		Key:     key,
		Message: fmt.Sprintf("query stack depth limit (%d) reached computing %s(%s)", limit, kind, key),
		Limit:   limit,
	}
}
