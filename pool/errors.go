package pool

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by ObjectPool operations. Callers should use
// errors.Is against these values rather than comparing strings.
var (
	// ErrPoolClosed is returned by BorrowObject and AddObject when invoked
	// after Close. ReturnObject and InvalidateObject keep working after
	// Close and do not return it.
	ErrPoolClosed = errors.New("pool: closed")

	// ErrPoolExhausted is returned by BorrowObject when WhenExhaustedAction
	// is ActionFail and no idle member is available.
	ErrPoolExhausted = errors.New("pool: exhausted")

	// ErrBorrowTimeout is returned by BorrowObject when WhenExhaustedAction
	// is ActionBlock and MaxWait elapses before a member becomes available.
	ErrBorrowTimeout = errors.New("pool: timeout waiting for idle object")

	// ErrNotInPool is returned by ReturnObject/InvalidateObject when the
	// supplied value does not correspond to a member currently tracked by
	// the pool.
	ErrNotInPool = errors.New("pool: object not currently part of this pool")

	// ErrAlreadyReturned is returned by ReturnObject when the member has
	// already transitioned back to idle.
	ErrAlreadyReturned = errors.New("pool: object has already been returned to this pool")

	// ErrFactoryAlreadySet is returned by SetFactory while any member is
	// currently checked out.
	ErrFactoryAlreadySet = errors.New("pool: factory already set")

	// ErrNoFactory is returned by AddObject/BorrowObject when no factory
	// has been installed.
	ErrNoFactory = errors.New("pool: no factory configured")

	// ErrInterrupted is returned by BorrowObject when the caller's context
	// is cancelled while blocked waiting for a member.
	ErrInterrupted = errors.New("pool: interrupted while waiting")

	// ErrValidationFailed is wrapped by the "validate" FactoryError when
	// Validate returns (false, nil) against a freshly created member — a
	// clean rejection, not an error from the factory itself.
	ErrValidationFailed = errors.New("pool: member failed validation")
)

// FactoryError wraps a failure raised by the factory: Make, Activate, or
// Validate against a freshly created member in BorrowObject, or Make or
// Passivate in AddObject. The caller sees both a stable sentinel (via errors.Is(err, ErrFactoryFailure)) and the
// underlying cause (via errors.Unwrap).
type FactoryError struct {
	Op  string
	Err error
}

// ErrFactoryFailure is the sentinel wrapped by every FactoryError.
var ErrFactoryFailure = errors.New("pool: factory failure")

func (e *FactoryError) Error() string {
	return fmt.Sprintf("pool: factory %s failed: %v", e.Op, e.Err)
}

func (e *FactoryError) Unwrap() error {
	return e.Err
}

func (e *FactoryError) Is(target error) bool {
	return target == ErrFactoryFailure
}

func newFactoryError(op string, err error) error {
	return &FactoryError{Op: op, Err: err}
}
