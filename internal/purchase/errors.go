package purchase

import (
	"errors"
	"fmt"
)

// Sentinel errors for outcomes the HTTP layer does not surface to the user.
var (
	// ErrNoSession: the event references a user with no live session.
	ErrNoSession = errors.New("no active purchase session")

	// ErrStaleTransition: the session state no longer matches the event's
	// precondition, usually because another event landed while an external
	// call was in flight. The result is discarded, never applied.
	ErrStaleTransition = errors.New("stale transition discarded")

	// ErrReconciliationMiss: a payment status event references no live
	// session. A race with cancellation or expiry, not a failure.
	ErrReconciliationMiss = errors.New("payment event matches no session")
)

// FlowErrorKind classifies user-facing flow errors.
type FlowErrorKind string

const (
	KindValidation  FlowErrorKind = "validation"
	KindNotFound    FlowErrorKind = "lookup_not_found"
	KindUnavailable FlowErrorKind = "upstream_unavailable"
)

// FlowError is reported inline to the user; the session state is unchanged
// and previously entered fields are preserved.
type FlowError struct {
	Kind FlowErrorKind
	Msg  string // shown to the user as-is
	Err  error
}

func (e *FlowError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *FlowError) Unwrap() error { return e.Err }

func validationf(format string, args ...any) error {
	return &FlowError{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func notFound(msg string) error {
	return &FlowError{Kind: KindNotFound, Msg: msg}
}

func unavailable(msg string, err error) error {
	return &FlowError{Kind: KindUnavailable, Msg: msg, Err: err}
}
