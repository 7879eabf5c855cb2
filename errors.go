package crumbz

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument reports a rejected argument, such as a nil Snapshot.
	ErrInvalidArgument = errors.New("crumbz: invalid argument")

	// ErrPrecondition is carried by the panic raised when popping an empty Stack.
	ErrPrecondition = errors.New("crumbz: precondition violated")

	// ErrRejected is returned when work is submitted to a shut down Executor.
	ErrRejected = errors.New("crumbz: task rejected")

	// ErrCancelled is returned by Future.Get after a successful Cancel.
	ErrCancelled = errors.New("crumbz: task cancelled")

	// ErrTimeout is returned when a bounded wait expires.
	ErrTimeout = errors.New("crumbz: timed out")
)

// PanicError carries a value recovered from a panicking task.
type PanicError struct {
	Value any
	Stack []Frame
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("crumbz: task panicked: %v", e.Value)
}

// Unwrap exposes the panic value when it is itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// newPanicError captures the panicking goroutine's frames, runtime panic
// frames included. Must be called directly from the deferred recover.
func newPanicError(v any) *PanicError {
	return &PanicError{
		Value: v,
		Stack: captureTrace(2, defaultTraceDepth),
	}
}
