// internal/poller/types.go
package poller

import (
	"time"

	"github.com/tamzrod/modbus-tcpclient/internal/batch"
	"github.com/tamzrod/modbus-tcpclient/internal/outcome"
	"github.com/tamzrod/modbus-tcpclient/internal/status"
)

// Point is one named value polled every cycle.
type Point struct {
	Name string
	Spec batch.AddressSpec
}

// Value is one decoded point of a successful cycle.
type Value struct {
	Name string
	batch.Result
}

// PollResult is a snapshot produced by one poll cycle.
type PollResult struct {
	UnitID string
	At     time.Time

	Values []Value // in point order; empty when Err is set
	Err    error   // non-nil means the poll cycle failed
}

// CycleError reports a failed batch read.
type CycleError struct {
	Kind    outcome.Kind
	Message string
}

func (e *CycleError) Error() string {
	return "poller: " + e.Kind.String() + ": " + e.Message
}

// Code feeds the device status block.
func (e *CycleError) Code() uint16 {
	return status.KindCode(e.Kind)
}
