package repository

import (
	"errors"
	"fmt"
)

// ErrTransport is matched by every failure to talk to the repository,
// including malformed envelopes.
var ErrTransport = errors.New("repository: transport failure")

// ErrInvalidPayload indicates a request body the repository refused.
var ErrInvalidPayload = errors.New("repository: invalid payload")

// TransportError describes a failed round-trip. Status is the HTTP status
// when one was received, zero otherwise.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("repository %s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("repository %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is makes every TransportError match ErrTransport.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// EnvelopeError reports a response whose envelope was missing, unsuccessful
// or carried data of the wrong shape.
type EnvelopeError struct {
	Op     string
	Reason string
}

func (e *EnvelopeError) Error() string {
	return fmt.Sprintf("repository %s: bad envelope: %s", e.Op, e.Reason)
}

// Is makes every EnvelopeError match ErrTransport.
func (e *EnvelopeError) Is(target error) bool {
	return target == ErrTransport
}
