// Command dacctl programs one DACx0501 over SPI from a Linux host.
//
//	dacctl -type dac80501 -port SPI0.0 -power on -gain 2x -level 32768 -alarm
//
// With -serve it runs the HAL service instead, configured from -config (or
// the built-in "bench" document), and logs everything published under hal/.
package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/exp/slog"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
	"tinygo.org/x/drivers"

	"dacx0501-go/bus"
	"dacx0501-go/errcode"
	"dacx0501-go/services/config"
	"dacx0501-go/services/hal"
	_ "dacx0501-go/services/hal/internal/devices/dacx0501adpt"
	"dacx0501-go/services/hal/internal/drvshim"
	"dacx0501-go/services/hal/internal/halcore"
	"dacx0501-go/services/hal/internal/registry"
	"dacx0501-go/types"
	"dacx0501-go/x/mathx"
	"dacx0501-go/x/ramp"
)

const busID = "spi0"

type options struct {
	typ       string
	port      string
	hz        int64
	vrefMV    int64
	sync      bool
	power     string
	divider   string
	gain      string
	level     int64
	unchecked bool
	mv        int64
	alarm     bool
	verbose   bool
	rampMS    int64
	rampSteps uint
	serve     bool
	cfgPath   string
	device    string
}

func parseFlags() options {
	var o options
	flag.StringVar(&o.typ, "type", "dac80501", "device type: dac80501 | dac70501 | dac60501")
	flag.StringVar(&o.port, "port", "SPI0.0", "periph spireg port name (/dev/spidevB.C is SPIB.C)")
	flag.Int64Var(&o.hz, "hz", 10_000_000, "SPI clock in Hz")
	flag.Int64Var(&o.vrefMV, "vref-mv", 2500, "reference voltage in mV")
	flag.BoolVar(&o.sync, "sync", false, "read CONFIG back before partial updates")
	flag.StringVar(&o.power, "power", "", "on | off")
	flag.StringVar(&o.divider, "divider", "", "full | half")
	flag.StringVar(&o.gain, "gain", "", "1x | 2x")
	flag.Int64Var(&o.level, "level", -1, "output code")
	flag.BoolVar(&o.unchecked, "unchecked", false, "mask -level instead of range checking")
	flag.Int64Var(&o.rampMS, "ramp-ms", 0, "ramp to -level over this many ms")
	flag.UintVar(&o.rampSteps, "ramp-steps", 32, "number of ramp increments")
	flag.Int64Var(&o.mv, "mv", -1, "output voltage in mV")
	flag.BoolVar(&o.alarm, "alarm", false, "read the reference alarm")
	flag.BoolVar(&o.verbose, "v", false, "debug logging")
	flag.BoolVar(&o.serve, "serve", false, "run the HAL service until interrupted")
	flag.StringVar(&o.cfgPath, "config", "", "JSON config file for -serve (default: built-in)")
	flag.StringVar(&o.device, "device", "bench", "config document to load for -serve")
	flag.Parse()
	return o
}

func main() {
	o := parseFlags()
	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runFn := run
	if o.serve {
		runFn = serve
	}
	if err := runFn(ctx, log, o); err != nil {
		log.Error("dacctl failed", "code", string(errcode.Of(err)), "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger, o options) error {
	spiBus, closer, err := openBus(o)
	if err != nil {
		return err
	}
	defer closer.Close()
	log.Debug("bus open", "port", o.port)

	b, ok := registry.Lookup(o.typ)
	if !ok {
		return errcode.Wrap(errcode.InvalidParams, "unknown type "+o.typ, nil)
	}
	out, err := b.Build(registry.BuildInput{
		Ctx:        ctx,
		Buses:      halcore.SPIBuses{busID: spiBus},
		DeviceID:   o.typ,
		Type:       o.typ,
		ParamsJSON: map[string]any{"vref_mv": o.vrefMV, "sync": o.sync},
		BusRefType: "spi",
		BusRefID:   busID,
	})
	if err != nil {
		return err
	}
	ad := out.Adaptor
	for _, c := range ad.Capabilities() {
		log.Info("device", "kind", c.Kind, "info", c.Info)
	}

	for _, op := range plan(o) {
		if op.method == methodRamp {
			if err := rampLevel(ad, maxLevel(ad), o, ramp.Sleep(ctx)); err != nil {
				return err
			}
			log.Info(op.method, "level", o.level)
			continue
		}
		res, err := ad.Control(string(types.KindDAC), op.method, op.payload)
		if err != nil {
			return err
		}
		log.Info(op.method, "result", res)
	}
	return nil
}

// serve runs the HAL on one SPI bus and logs its publications.
func serve(ctx context.Context, log *slog.Logger, o options) error {
	spiBus, closer, err := openBus(o)
	if err != nil {
		return err
	}
	defer closer.Close()

	b := bus.NewBus(64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		hal.Run(ctx, b.NewConnection("hal"), map[string]drivers.SPI{busID: spiBus}, log)
	}()

	conn := b.NewConnection("dacctl")
	defer conn.Disconnect()
	mon := conn.Subscribe(bus.T("hal", "#"))

	var lookup config.Lookup
	if o.cfgPath != "" {
		lookup = config.File(o.cfgPath)
	}
	if err := config.New(lookup).Publish(ctx, conn, o.device); err != nil {
		return errcode.Wrap(errcode.InvalidParams, "config", err)
	}

	for {
		select {
		case <-ctx.Done():
			<-done
			return nil
		case m := <-mon.Channel():
			log.Info("hal", "topic", m.Topic, "payload", m.Payload)
		}
	}
}

type step struct {
	method  string
	payload any
}

// plan orders the requested operations: CONFIG and GAIN before the output
// code so the new level lands on the intended range.
func plan(o options) []step {
	var out []step
	if o.power != "" {
		out = append(out, step{"set_power", types.DACSetPower{Power: o.power}})
	}
	if o.divider != "" {
		out = append(out, step{"set_divider", types.DACSetDivider{Divider: o.divider}})
	}
	if o.gain != "" {
		out = append(out, step{"set_gain", types.DACSetGain{Gain: o.gain}})
	}
	if o.level >= 0 {
		m := "set_level"
		if o.rampMS > 0 {
			m = methodRamp
		}
		out = append(out, step{m, types.DACSetLevel{Level: uint32(o.level), Unchecked: o.unchecked}})
	}
	if o.mv >= 0 {
		out = append(out, step{"set_voltage", types.DACSetVoltage{MilliVolts: o.mv}})
	}
	if o.alarm {
		out = append(out, step{"read_alarm", nil})
	}
	return append(out, step{"get_config", nil})
}

const methodRamp = "ramp_level"

type controller interface {
	Control(kind, method string, payload any) (any, error)
}

// rampLevel steps from the current DACDATA code to o.level.
func rampLevel(c controller, top uint32, o options, tick ramp.Tick) error {
	kind := string(types.KindDAC)
	res, err := c.Control(kind, "read_level", nil)
	if err != nil {
		return err
	}
	cur, _ := res.(types.DACSetLevel)
	steps := uint16(mathx.Clamp(o.rampSteps, 1, 4096))
	return ramp.Linear(cur.Level, uint32(o.level), top, time.Duration(o.rampMS)*time.Millisecond, steps, tick,
		func(l uint32) error {
			_, err := c.Control(kind, "set_level", types.DACSetLevel{Level: l})
			return err
		})
}

func maxLevel(ad halcore.Adaptor) uint32 {
	for _, c := range ad.Capabilities() {
		if m, ok := c.Info["max_level"].(uint32); ok {
			return m
		}
	}
	return 0
}

// The DAC accepts up to 50 MHz SCLK.
func clampHz(hz int64) int64 { return mathx.Clamp(hz, 1_000, 50_000_000) }

// openBus opens a periph spireg port; on Linux the host sysfs driver
// registers every /dev/spidevB.C node.
func openBus(o options) (drivers.SPI, io.Closer, error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, err
	}
	p, err := spireg.Open(o.port)
	if err != nil {
		return nil, nil, errcode.Wrap(errcode.UnknownBus, o.port, err)
	}
	c, err := p.Connect(physic.Frequency(clampHz(o.hz))*physic.Hertz, spi.Mode1, 8)
	if err != nil {
		p.Close()
		return nil, nil, errcode.Wrap(errcode.InvalidParams, o.port, err)
	}
	return drvshim.NewSPI(c), p, nil
}
