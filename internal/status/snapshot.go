// internal/status/snapshot.go
package status

import (
	"errors"

	"github.com/tamzrod/modbus-tcpclient/internal/outcome"
)

// Snapshot represents exactly what the writer is allowed to deliver.
type Snapshot struct {
	Health         uint16
	LastErrorCode  uint16
	SecondsInError uint16
}

// Observe folds one poll result into the snapshot.
// It reports whether anything changed; seconds_in_error is only reset here,
// never incremented.
func (s Snapshot) Observe(err error) (Snapshot, bool) {
	next := s
	if err == nil {
		next.Health = HealthOK
		next.LastErrorCode = 0
		next.SecondsInError = 0
	} else {
		next.Health = HealthError
		next.LastErrorCode = ErrorCode(err)
	}
	return next, next != s
}

// Tick advances seconds_in_error while the device is not healthy.
// The counter saturates at 65535.
func (s Snapshot) Tick() (Snapshot, bool) {
	if s.Health == HealthOK || s.SecondsInError == 0xFFFF {
		return s, false
	}
	s.SecondsInError++
	return s, true
}

// ErrorCode extracts a best-effort uint16 code from an error without assuming
// concrete types. If the error does not expose a code, it returns CodeGeneric.
func ErrorCode(err error) uint16 {
	if err == nil {
		return 0
	}

	type coderA interface{ Code() uint16 }
	type coderB interface{ ModbusCode() uint16 }

	var a coderA
	if errors.As(err, &a) {
		return a.Code()
	}
	var b coderB
	if errors.As(err, &b) {
		return b.ModbusCode()
	}
	return CodeGeneric
}

// KindCode maps a failed outcome's kind to a status error code.
func KindCode(k outcome.Kind) uint16 {
	switch k {
	case outcome.KindConnect:
		return CodeConnect
	case outcome.KindTimeout:
		return CodeTimeout
	case outcome.KindTransport:
		return CodeTransport
	case outcome.KindValidation:
		return CodeValidation
	case outcome.KindException:
		return CodeException
	case outcome.KindProtocol:
		return CodeProtocol
	default:
		return CodeGeneric
	}
}
