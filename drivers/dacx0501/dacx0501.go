// Package dacx0501 provides a minimal TinyGo driver for the TI DAC80501,
// DAC70501 and DAC60501 single-channel voltage output DACs.
//
// Design notes (datasheet references):
//   - SPI mode 1, 24-bit frames: command byte then 16-bit data, MSB first.
//   - Bit 7 of the command byte requests a read; the reply data follow in the
//     same full-duplex frame.
//   - DAC-DATA is MSB aligned; the 14/12-bit parts ignore the low 2/4 bits.
//   - The chip variant is a type parameter, so range checks are bound to the
//     instantiated Device type.
//   - CONFIG is shared by REF-DIV and DAC-PWDWN. The driver keeps a shadow of
//     the last written CONFIG word and merges partial updates into it.
package dacx0501

import (
	"errors"

	"tinygo.org/x/drivers"
)

// Sentinel errors (TinyGo-safe; no fmt).
var (
	ErrOutOfRange = errors.New("dacx0501: output level out of range")
	ErrTransport  = errors.New("dacx0501: transport error")
)

// TransportError wraps a failed SPI transaction.
type TransportError struct {
	Op  string // "write" or "read"
	Reg Register
	Err error
}

func (e *TransportError) Error() string {
	msg := "dacx0501: " + e.Op + " " + e.Reg.String()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is lets callers test errors.Is(err, ErrTransport) without knowing the cause.
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// Device is one DAC on an SPI bus. The SPI handle must already be configured
// for mode 1 with chip select handled per transaction.
type Device[V Variant] struct {
	spi drivers.SPI

	// CONFIG shadow; cfgKnown is false until a CONFIG write or readback succeeds.
	cfg      ConfigState
	cfgKnown bool

	// Fixed buffers to avoid per-call heap allocations.
	w [frameLen]byte
	r [frameLen]byte
}

// New binds spi to a Device for variant V. It does not touch the device.
func New[V Variant](spi drivers.SPI) *Device[V] {
	return &Device[V]{spi: spi}
}

func NewDAC80501(spi drivers.SPI) *Device[DAC80501] { return New[DAC80501](spi) }
func NewDAC70501(spi drivers.SPI) *Device[DAC70501] { return New[DAC70501](spi) }
func NewDAC60501(spi drivers.SPI) *Device[DAC60501] { return New[DAC60501](spi) }

// Variant returns the chip model the device was built for.
func (d *Device[V]) Variant() V {
	var v V
	return v
}
