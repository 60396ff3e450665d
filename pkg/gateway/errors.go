package gateway

import (
	"errors"
	"fmt"
)

var (
	// ErrDisabled is reported for every request while the gateway is
	// switched off.
	ErrDisabled = errors.New("gateway disabled")

	// ErrRetriesExhausted is reported when every attempt failed.
	ErrRetriesExhausted = errors.New("all provider attempts failed")

	// ErrEmptyPrompt is reported for a request without a prompt.
	ErrEmptyPrompt = errors.New("empty prompt")

	// ErrInvalidContext is returned by New for a missing dependency.
	ErrInvalidContext = errors.New("invalid gateway context")
)

// ObserverError wraps a failure reported by an Observer.
type ObserverError struct {
	Observer string
	Err      error
}

func (e *ObserverError) Error() string {
	return fmt.Sprintf("observer %s: %v", e.Observer, e.Err)
}

func (e *ObserverError) Unwrap() error { return e.Err }

// PanicError carries a recovered panic value.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("recovered panic: %v", e.Value)
}
