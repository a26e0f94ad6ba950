// internal/outcome/outcome.go
package outcome

import (
	"encoding/hex"
	"errors"
	"strings"
)

// Kind classifies why an operation failed.
type Kind uint8

const (
	KindNone Kind = iota
	KindConnect
	KindTimeout
	KindTransport
	KindValidation
	KindException
	KindProtocol
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindConnect:
		return "connect"
	case KindTimeout:
		return "timeout"
	case KindTransport:
		return "transport"
	case KindValidation:
		return "validation"
	case KindException:
		return "exception"
	case KindProtocol:
		return "protocol"
	default:
		return "unknown"
	}
}

// Outcome is the uniform result of every public client operation.
// A failed Outcome is an expected runtime condition, not a programmer error.
type Outcome[T any] struct {
	Success bool
	Message string
	Errors  []string
	Kind    Kind

	// Request and Response hold the raw frames as hex, when known.
	Request  string
	Response string

	Value T
}

// Ok returns a successful outcome carrying v.
func Ok[T any](v T) Outcome[T] {
	return Outcome[T]{Success: true, Value: v}
}

// Fail returns a failed outcome of the given kind.
func Fail[T any](kind Kind, msg string) Outcome[T] {
	return Outcome[T]{
		Kind:    kind,
		Message: msg,
		Errors:  []string{msg},
	}
}

// FromError returns a failed outcome whose message is err's text.
func FromError[T any](kind Kind, err error) Outcome[T] {
	return Fail[T](kind, err.Error())
}

// WithFrames records the raw request/response bytes as hex.
func (o Outcome[T]) WithFrames(req, resp []byte) Outcome[T] {
	if len(req) > 0 {
		o.Request = hex.EncodeToString(req)
	}
	if len(resp) > 0 {
		o.Response = hex.EncodeToString(resp)
	}
	return o
}

// Append marks the outcome failed and accumulates msg.
// The first message becomes the outcome's Message.
func (o Outcome[T]) Append(kind Kind, msg string) Outcome[T] {
	o.Success = false
	if o.Kind == KindNone {
		o.Kind = kind
	}
	if o.Message == "" {
		o.Message = msg
	}
	errs := make([]string, 0, len(o.Errors)+1)
	o.Errors = append(append(errs, o.Errors...), msg)
	return o
}

// Err returns nil for a successful outcome, otherwise an error joining all
// accumulated messages.
func (o Outcome[T]) Err() error {
	if o.Success {
		return nil
	}
	if len(o.Errors) == 0 {
		if o.Message == "" {
			return errors.New("operation failed")
		}
		return errors.New(o.Message)
	}
	return errors.New(strings.Join(o.Errors, " | "))
}

// Map converts the success value of o with fn and keeps every diagnostic.
// A failed outcome is carried over with a zero value.
func Map[T, U any](o Outcome[T], fn func(T) U) Outcome[U] {
	out := Outcome[U]{
		Success:  o.Success,
		Message:  o.Message,
		Errors:   o.Errors,
		Kind:     o.Kind,
		Request:  o.Request,
		Response: o.Response,
	}
	if o.Success {
		out.Value = fn(o.Value)
	}
	return out
}

// Then is Map for conversions that may fail; a conversion error turns the
// outcome into a protocol failure.
func Then[T, U any](o Outcome[T], fn func(T) (U, error)) Outcome[U] {
	out := Map(o, func(T) U {
		var zero U
		return zero
	})
	if !o.Success {
		return out
	}
	v, err := fn(o.Value)
	if err != nil {
		return out.Append(KindProtocol, err.Error())
	}
	out.Value = v
	return out
}
