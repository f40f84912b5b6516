// services/hal/internal/halcore/types.go
package halcore

import (
	"context"
	"errors"

	"tinygo.org/x/drivers"
)

// Reading is one datum for one capability kind.
type Reading struct {
	Kind    string // e.g. "dac"
	Payload any    // JSON-serialisable
	TsMs    int64  // producer timestamp (ms)
}

// Sample is a batch collected together.
type Sample []Reading

// CapInfo describes one capability’s retained info document.
type CapInfo struct {
	Kind string         // capability kind
	Info map[string]any // small JSONable map
}

// Adaptor abstracts a concrete device/driver. Must not own goroutines or the bus.
type Adaptor interface {
	ID() string
	Capabilities() []CapInfo
	Collect(ctx context.Context) (Sample, error)
	// Pass-through control for device-specific methods.
	Control(kind, method string, payload any) (result any, err error)
}

var (
	// ErrUnsupported for adaptor Control pass-through.
	ErrUnsupported = errors.New("unsupported")
)

// ---- Buses ----

// SPIBusFactory injects configured SPI instances by id.
// Uses the TinyGo drivers.SPI interface to remain compatible on MCU builds.
type SPIBusFactory interface {
	ByID(id string) (drivers.SPI, bool)
}

// SPIBuses is a fixed id -> bus table.
type SPIBuses map[string]drivers.SPI

func (b SPIBuses) ByID(id string) (drivers.SPI, bool) {
	s, ok := b[id]
	return s, ok
}
