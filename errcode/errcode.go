package errcode

import (
	"errors"

	"dacx0501-go/drivers/dacx0501"
)

// Code is a stable, bus-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK                Code = "ok"
	Unsupported       Code = "unsupported"
	InvalidParams     Code = "invalid_params"
	InvalidPayload    Code = "invalid_payload"
	UnknownCapability Code = "unknown_capability"
	UnknownDevice     Code = "unknown_device"
	InvalidCapAddr    Code = "invalid_capability_address"
	InvalidPeriod     Code = "invalid_period"
	NoAdaptor         Code = "no_adaptor"

	UnknownBus Code = "unknown_bus"
	OutOfRange Code = "out_of_range"
	IOError    Code = "io_error"

	Error Code = "error" // generic fallback
)

// Optional wrapper when we want to keep context and a cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	if e.Msg != "" {
		return string(e.C) + ": " + e.Msg
	}
	return string(e.C)
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Wrap attaches a code and operation to a cause.
func Wrap(c Code, op string, err error) error {
	msg := op
	if err != nil {
		msg += ": " + err.Error()
	}
	return &E{C: c, Op: op, Msg: msg, Err: err}
}

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	type coder interface{ Code() Code }
	var x coder
	if errors.As(err, &x) {
		return x.Code()
	}
	var c Code
	if errors.As(err, &c) {
		return c
	}
	return Error
}

// MapDriverErr maps low-level driver errors to a Code.
func MapDriverErr(err error) Code {
	switch {
	case err == nil:
		return OK
	case errors.Is(err, dacx0501.ErrOutOfRange):
		return OutOfRange
	case errors.Is(err, dacx0501.ErrTransport):
		return IOError
	default:
		return Of(err)
	}
}
