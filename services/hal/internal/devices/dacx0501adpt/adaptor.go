// services/hal/internal/devices/dacx0501adpt/adaptor.go
package dacx0501adpt

import (
	"context"
	"time"

	"dacx0501-go/drivers/dacx0501"
	"dacx0501-go/errcode"
	"dacx0501-go/services/hal/internal/halcore"
	"dacx0501-go/services/hal/internal/registry"
	"dacx0501-go/services/hal/internal/util"
	"dacx0501-go/types"

	"periph.io/x/conn/v3/physic"
)

// Register one builder per chip variant.
func init() {
	registry.RegisterBuilder("dac80501", builder[dacx0501.DAC80501]{})
	registry.RegisterBuilder("dac70501", builder[dacx0501.DAC70501]{})
	registry.RegisterBuilder("dac60501", builder[dacx0501.DAC60501]{})
}

// Params: { "vref_mv": 2500, "gain": "2x", "sample_ms": 1000, "sync": true }
type Params struct {
	VRefMilliV int64  `json:"vref_mv,omitempty"`   // default internal 2.5 V
	Gain       string `json:"gain,omitempty"`      // gain assumed at start; default "2x"
	SampleMS   int    `json:"sample_ms,omitempty"` // alarm poll period; 0 = no polling
	Sync       bool   `json:"sync,omitempty"`      // read CONFIG back at build time
}

type builder[V dacx0501.Variant] struct{}

func (builder[V]) Build(in registry.BuildInput) (registry.BuildOutput, error) {
	if in.BusRefType != "spi" || in.BusRefID == "" {
		return registry.BuildOutput{}, errcode.Wrap(errcode.InvalidParams, "missing spi bus", nil)
	}
	if in.Buses == nil {
		return registry.BuildOutput{}, errcode.UnknownBus
	}
	spi, ok := in.Buses.ByID(in.BusRefID)
	if !ok {
		return registry.BuildOutput{}, errcode.Wrap(errcode.UnknownBus, in.BusRefID, nil)
	}
	var p Params
	if err := util.DecodeJSON(in.ParamsJSON, &p); err != nil {
		return registry.BuildOutput{}, errcode.Wrap(errcode.InvalidParams, "params", err)
	}
	ref := dacx0501.Reference{VRef: dacx0501.InternalRef, Gain: dacx0501.Gain2X}
	if p.VRefMilliV > 0 {
		ref.VRef = physic.ElectricPotential(p.VRefMilliV) * physic.MilliVolt
	}
	if p.Gain != "" {
		g, ok := parseGain(p.Gain)
		if !ok {
			return registry.BuildOutput{}, util.Errf("invalid gain %q", p.Gain)
		}
		ref.Gain = g
	}

	ad := &adaptor[V]{id: in.DeviceID, bus: in.BusRefID, dev: dacx0501.New[V](spi), ref: ref}
	if p.Sync {
		c, err := ad.dev.SyncConfig()
		if err != nil {
			return registry.BuildOutput{}, errcode.Wrap(errcode.MapDriverErr(err), "sync_config", err)
		}
		ad.ref.Divider = c.Divider
	}

	var every time.Duration
	if p.SampleMS > 0 {
		every = time.Duration(p.SampleMS) * time.Millisecond
	}
	return registry.BuildOutput{Adaptor: ad, BusID: in.BusRefID, SampleEvery: every}, nil
}

// adaptor is driven by a single caller; the driver holds no locks.
type adaptor[V dacx0501.Variant] struct {
	id  string
	bus string
	dev *dacx0501.Device[V]
	// Analog setup for voltage controls, kept in step with gain/divider writes.
	ref dacx0501.Reference
}

func (a *adaptor[V]) ID() string { return a.id }

func (a *adaptor[V]) Capabilities() []halcore.CapInfo {
	v := a.dev.Variant()
	return []halcore.CapInfo{{
		Kind: string(types.KindDAC),
		Info: map[string]any{
			"schema_version": 1,
			"driver":         "dacx0501",
			"variant":        v.Name(),
			"bits":           v.Bits(),
			"max_level":      dacx0501.MaxLevel[V](),
			"bus":            a.bus,
			"vref_mv":        int64(a.ref.VRef / physic.MilliVolt),
		},
	}}
}

// Collect samples the reference alarm.
func (a *adaptor[V]) Collect(ctx context.Context) (halcore.Sample, error) {
	st, err := a.dev.ReadAlarmStatus()
	if err != nil {
		return nil, errcode.Wrap(errcode.MapDriverErr(err), "read_alarm", err)
	}
	ts := time.Now().UnixMilli()
	return halcore.Sample{
		{Kind: string(types.KindDAC), Payload: types.DACValue{Alarm: st.Alarm(), TS: ts}, TsMs: ts},
	}, nil
}

// Control methods for kind "dac":
//   - set_level {"level":n,"unchecked":bool}, set_voltage {"mv":n}
//   - set_gain {"gain":"1x|2x"}, set_divider {"divider":"full|half"}, set_power {"power":"on|off"}
//   - set_config {"divider":..,"power":..}, get_config, sync_config
//   - read_alarm, read_level
func (a *adaptor[V]) Control(kind, method string, payload any) (any, error) {
	if kind != string(types.KindDAC) {
		return nil, halcore.ErrUnsupported
	}
	switch method {
	case "set_level":
		var p types.DACSetLevel
		if err := util.DecodeJSON(payload, &p); err != nil {
			return nil, errcode.Wrap(errcode.InvalidPayload, method, err)
		}
		var err error
		if p.Unchecked {
			err = a.dev.SetOutputLevelUnchecked(p.Level)
		} else {
			err = a.dev.SetOutputLevel(p.Level)
		}
		return ack(method, err)

	case "set_voltage":
		var p types.DACSetVoltage
		if err := util.DecodeJSON(payload, &p); err != nil {
			return nil, errcode.Wrap(errcode.InvalidPayload, method, err)
		}
		v := physic.ElectricPotential(p.MilliVolts) * physic.MilliVolt
		return ack(method, a.dev.SetOutputVoltage(a.ref, v))

	case "set_gain":
		var p types.DACSetGain
		if err := util.DecodeJSON(payload, &p); err != nil {
			return nil, errcode.Wrap(errcode.InvalidPayload, method, err)
		}
		g, ok := parseGain(p.Gain)
		if !ok {
			return nil, errcode.Wrap(errcode.InvalidPayload, method, nil)
		}
		if err := a.dev.SetOutputGain(g); err != nil {
			return ack(method, err)
		}
		a.ref.Gain = g
		return types.DACAck{OK: true}, nil

	case "set_divider":
		var p types.DACSetDivider
		if err := util.DecodeJSON(payload, &p); err != nil {
			return nil, errcode.Wrap(errcode.InvalidPayload, method, err)
		}
		div, ok := parseDivider(p.Divider)
		if !ok {
			return nil, errcode.Wrap(errcode.InvalidPayload, method, nil)
		}
		if err := a.dev.SetReferenceDivider(div); err != nil {
			return ack(method, err)
		}
		a.ref.Divider = div
		return types.DACAck{OK: true}, nil

	case "set_power":
		var p types.DACSetPower
		if err := util.DecodeJSON(payload, &p); err != nil {
			return nil, errcode.Wrap(errcode.InvalidPayload, method, err)
		}
		pw, ok := parsePower(p.Power)
		if !ok {
			return nil, errcode.Wrap(errcode.InvalidPayload, method, nil)
		}
		return ack(method, a.dev.SetPowerState(pw))

	case "set_config":
		var p types.DACConfig
		if err := util.DecodeJSON(payload, &p); err != nil {
			return nil, errcode.Wrap(errcode.InvalidPayload, method, err)
		}
		div, ok1 := parseDivider(p.Divider)
		pw, ok2 := parsePower(p.Power)
		if !ok1 || !ok2 {
			return nil, errcode.Wrap(errcode.InvalidPayload, method, nil)
		}
		if err := a.dev.WriteConfig(dacx0501.ConfigState{Divider: div, Power: pw}); err != nil {
			return ack(method, err)
		}
		a.ref.Divider = div
		return types.DACAck{OK: true}, nil

	case "get_config":
		c, known := a.dev.Config()
		return configReply(c, known), nil

	case "sync_config":
		c, err := a.dev.SyncConfig()
		if err != nil {
			return ack(method, err)
		}
		a.ref.Divider = c.Divider
		return configReply(c, true), nil

	case "read_alarm":
		st, err := a.dev.ReadAlarmStatus()
		if err != nil {
			return ack(method, err)
		}
		return types.DACAlarm{Alarm: st.Alarm()}, nil

	case "read_level":
		lvl, err := a.dev.ReadOutputLevel()
		if err != nil {
			return ack(method, err)
		}
		return types.DACSetLevel{Level: uint32(lvl)}, nil

	default:
		return nil, halcore.ErrUnsupported
	}
}

func ack(method string, err error) (any, error) {
	if err != nil {
		return nil, errcode.Wrap(errcode.MapDriverErr(err), method, err)
	}
	return types.DACAck{OK: true}, nil
}

func configReply(c dacx0501.ConfigState, known bool) types.DACConfig {
	return types.DACConfig{Divider: c.Divider.String(), Power: c.Power.String(), Known: known}
}

func parseGain(s string) (dacx0501.Gain, bool) {
	switch s {
	case "1x":
		return dacx0501.Gain1X, true
	case "2x":
		return dacx0501.Gain2X, true
	default:
		return 0, false
	}
}

func parseDivider(s string) (dacx0501.RefDivider, bool) {
	switch s {
	case "full":
		return dacx0501.DividerFull, true
	case "half":
		return dacx0501.DividerHalf, true
	default:
		return 0, false
	}
}

func parsePower(s string) (dacx0501.PowerState, bool) {
	switch s {
	case "on":
		return dacx0501.PowerOn, true
	case "off":
		return dacx0501.PowerOff, true
	default:
		return 0, false
	}
}
