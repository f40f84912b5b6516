// services/hal/hal.go
package hal

import (
	"context"

	"golang.org/x/exp/slog"
	"tinygo.org/x/drivers"

	"dacx0501-go/bus"
	_ "dacx0501-go/services/hal/internal/devices/dacx0501adpt"
	"dacx0501-go/services/hal/internal/halcore"
	"dacx0501-go/services/hal/internal/service"
)

// Run starts the HAL on conn and blocks until ctx is done. Devices are
// built from the HALConfig published (retained) on config/hal, using the
// SPI buses in spis keyed by bus id.
func Run(ctx context.Context, conn *bus.Connection, spis map[string]drivers.SPI, log *slog.Logger) {
	service.New(conn, halcore.SPIBuses(spis), log).Run(ctx)
}
