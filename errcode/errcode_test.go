package errcode

import (
	"errors"
	"fmt"
	"testing"

	"dacx0501-go/drivers/dacx0501"
)

func TestCodesAreStableStrings(t *testing.T) {
	cases := map[string]error{
		"ok":             OK,
		"invalid_params": InvalidParams,
		"out_of_range":   OutOfRange,
		"io_error":       IOError,
		"unknown_bus":    UnknownBus,
		"unsupported":    Unsupported,

		"invalid_capability_address": InvalidCapAddr,
		"invalid_period":             InvalidPeriod,
		"no_adaptor":                 NoAdaptor,
	}
	for want, e := range cases {
		if e.Error() != want {
			t.Fatalf("code %q mismatch: got %q", want, e.Error())
		}
	}
}

func TestOf(t *testing.T) {
	if Of(nil) != OK {
		t.Fatal("nil must map to ok")
	}
	if Of(fmt.Errorf("ctx: %w", UnknownBus)) != UnknownBus {
		t.Fatal("wrapped Code not found")
	}
	if Of(Wrap(InvalidPayload, "set_gain", nil)) != InvalidPayload {
		t.Fatal("E code not found")
	}
	if Of(errors.New("boom")) != Error {
		t.Fatal("unknown error must map to generic code")
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("bad json")
	err := Wrap(InvalidPayload, "set_level", cause)
	if !errors.Is(err, cause) {
		t.Fatal("cause lost")
	}
	if err.Error() != "invalid_payload: set_level: bad json" {
		t.Fatalf("message %q", err.Error())
	}
}

func TestMapDriverErr(t *testing.T) {
	te := &dacx0501.TransportError{Op: "write", Reg: dacx0501.RegGAIN, Err: errors.New("nak")}
	cases := []struct {
		err  error
		want Code
	}{
		{nil, OK},
		{dacx0501.ErrOutOfRange, OutOfRange},
		{te, IOError},
		{fmt.Errorf("op: %w", te), IOError},
		{InvalidParams, InvalidParams},
		{errors.New("other"), Error},
	}
	for _, c := range cases {
		if got := MapDriverErr(c.err); got != c.want {
			t.Fatalf("MapDriverErr(%v)=%q want %q", c.err, got, c.want)
		}
	}
}
