package planner

import (
	"errors"
	"fmt"
)

// Reason categorises why a delegated assessment was not usable
type Reason string

const (
	ReasonTransport Reason = "transport"
	ReasonTimeout   Reason = "timeout"
	ReasonStatus    Reason = "status"
	ReasonDecode    Reason = "decode"
	ReasonSchema    Reason = "schema"
	ReasonUnknown   Reason = "unknown"
)

type Error struct {
	Reason Reason
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("planner %s failure: %v", e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ReasonOf extracts the failure reason from err, or ReasonUnknown
func ReasonOf(err error) Reason {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Reason
	}
	return ReasonUnknown
}
