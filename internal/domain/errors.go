package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrConnectivity   = errors.New("connectivity failure")
	ErrTimeout        = errors.New("timed out")
	ErrNotImplemented = errors.New("not implemented")
	ErrRateLimited    = errors.New("rate limited")
	ErrLockHeld       = errors.New("lock already held")
)

// QueryError is returned by every venue and chain read. Kind is one of
// ErrConnectivity, ErrNotFound or ErrTimeout so callers can tell a missing
// pool apart from a misbehaving RPC endpoint.
type QueryError struct {
	Op    string
	Venue string
	Kind  error
	Err   error
}

func (e *QueryError) Error() string {
	var b strings.Builder
	if e.Venue != "" {
		b.WriteString(e.Venue)
		b.WriteString(": ")
	}
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(e.Kind.Error())
	if e.Err != nil && e.Err != e.Kind {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Is reports a match against the failure kind so errors.Is(err, ErrTimeout)
// works on a wrapped QueryError.
func (e *QueryError) Is(target error) bool {
	return target == e.Kind
}

func (e *QueryError) Unwrap() error { return e.Err }

// NewQueryError classifies err and wraps it.
func NewQueryError(venue, op string, err error) *QueryError {
	return &QueryError{Op: op, Venue: venue, Kind: Classify(err), Err: err}
}

// Classify maps an arbitrary call failure onto one of the failure kinds.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout
	case errors.Is(err, ErrNotFound):
		return ErrNotFound
	case errors.Is(err, ErrConnectivity):
		return ErrConnectivity
	}

	var rpcErr interface{ ErrorCode() int }
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == 3 {
		// JSON-RPC code 3 is an execution revert.
		return ErrNotFound
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "execution reverted") || strings.Contains(msg, "no contract code") {
		return ErrNotFound
	}
	return ErrConnectivity
}

// FailureKind returns a short label for logging.
func FailureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConnectivity):
		return "connectivity"
	default:
		return fmt.Sprintf("unclassified(%T)", err)
	}
}
