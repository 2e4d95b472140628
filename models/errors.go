package models

import (
	"errors"
	"fmt"
)

// ErrSessionClosed is returned by session operations after teardown. Results
// from calls that were in flight when teardown happened are discarded with
// this error instead of being acted upon.
var ErrSessionClosed = errors.New("checkout session is closed")

// DataFetchError means both upstream fetches rejected; the payload falls
// back entirely to defaults.
type DataFetchError struct {
	CustomerErr error
	OrderErr    error
}

func (e *DataFetchError) Error() string {
	return fmt.Sprintf("checkout data fetch failed: customer: %v; order: %v", e.CustomerErr, e.OrderErr)
}

// InjectionError means the provider widget failed to mount. The session
// stays configured, so injection may be retried.
type InjectionError struct {
	Cause error
}

func (e *InjectionError) Error() string {
	return fmt.Sprintf("widget injection failed: %v", e.Cause)
}

func (e *InjectionError) Unwrap() error {
	return e.Cause
}

// PaymentError means the provider rejected the payment. The session moves to
// failed; retrying requires a fresh configure.
type PaymentError struct {
	Cause error
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("payment failed: %v", e.Cause)
}

func (e *PaymentError) Unwrap() error {
	return e.Cause
}

// InvalidStateError reports an operation called from a state that does not
// accept it.
type InvalidStateError struct {
	Op    string
	State SessionState
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s not allowed in session state %q", e.Op, e.State)
}
