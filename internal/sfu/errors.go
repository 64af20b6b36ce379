package sfu

import (
	"errors"
	"fmt"
)

// TransportError wraps a failure on a specific transport so handlers can
// report which leg of the negotiation broke.
type TransportError struct {
	Transport string // "send" or "recv"
	Op        string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s transport: %s: %v", e.Transport, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// CapabilityError reports a codec capability mismatch during device init.
type CapabilityError struct {
	Reason string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("capability mismatch: %s", e.Reason)
}

var (
	ErrClosed            = errors.New("negotiator is closed")
	ErrDeviceNotReady    = errors.New("device not initialized")
	ErrTransportNotReady = errors.New("transport not created")
	ErrUnknownTransport  = errors.New("unknown transport kind")
	ErrUnknownConsumer   = errors.New("unknown consumer")
)
