package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"dacx0501-go/bus"
	"dacx0501-go/services/hal/internal/halcore"
	"dacx0501-go/types"

	_ "dacx0501-go/services/hal/internal/devices/dacx0501adpt"

	"github.com/google/go-cmp/cmp"
)

// ---- Test fakes ----

// lockedSPI is shared between the service goroutine and the test.
type lockedSPI struct {
	mu     sync.Mutex
	frames [][]byte
	reply  []byte
	err    error
}

func (f *lockedSPI) Tx(w, r []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, append([]byte(nil), w...))
	if f.err != nil {
		return f.err
	}
	copy(r, f.reply)
	return nil
}

func (f *lockedSPI) Transfer(b byte) (byte, error) { return 0, nil }

func (f *lockedSPI) set(reply []byte, err error) {
	f.mu.Lock()
	f.reply, f.err = reply, err
	f.mu.Unlock()
}

func (f *lockedSPI) last() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.frames) == 0 {
		return nil
	}
	return f.frames[len(f.frames)-1]
}

// ---- Helpers ----

func dacConfig(ids ...string) types.HALConfig {
	var cfg types.HALConfig
	for _, id := range ids {
		cfg.Devices = append(cfg.Devices, types.Device{
			ID:     id,
			Type:   "dac80501",
			Params: map[string]any{"gain": "1x"},
			BusRef: types.BusRef{Type: "spi", ID: "spi0"},
		})
	}
	return cfg
}

func start(t *testing.T, spi *lockedSPI, cfg types.HALConfig) (*bus.Bus, *bus.Connection) {
	t.Helper()
	b := bus.NewBus(32)
	svc := New(b.NewConnection("hal"), halcore.SPIBuses{"spi0": spi}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	c := b.NewConnection("test")
	st := c.Subscribe(bus.T("hal", "state"))
	defer c.Unsubscribe(st)
	c.Publish(c.NewMessage(bus.T("config", "hal"), cfg, true))
	waitState(t, st, "ready")
	return b, c
}

func waitState(t *testing.T, sub *bus.Subscription, level string) types.HALState {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case m := <-sub.Channel():
			if hs, ok := m.Payload.(types.HALState); ok && hs.Level == level {
				return hs
			}
		case <-deadline:
			t.Fatalf("timeout waiting for hal state %q", level)
		}
	}
}

func request(t *testing.T, c *bus.Connection, topic bus.Topic, payload any) any {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	r, err := c.RequestWait(ctx, c.NewMessage(topic, payload, false))
	if err != nil {
		t.Fatalf("request %v: %v", topic, err)
	}
	return r.Payload
}

func ctrl(method string) bus.Topic {
	return bus.T("hal", "capability", "dac", "0", "control", method)
}

func expectErrReply(t *testing.T, got any, code string) {
	t.Helper()
	want := types.ErrorReply{OK: false, Error: code}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("reply mismatch (-want +got):\n%s", diff)
	}
}

// ---- Tests ----

func TestConfigPublishesRetainedInfo(t *testing.T) {
	_, c := start(t, &lockedSPI{}, dacConfig("dac0"))

	info := c.Subscribe(bus.T("hal", "capability", "dac", "0", "info"))
	defer c.Unsubscribe(info)
	m, ok := recvWithin(info.Channel(), time.Second)
	if !ok {
		t.Fatal("no retained info")
	}
	doc, ok := m.Payload.(map[string]any)
	if !ok || doc["variant"] != "DAC80501" || doc["max_level"] != uint32(65535) {
		t.Fatalf("unexpected info: %#v", m.Payload)
	}
}

func TestControlSetLevelWritesFrame(t *testing.T) {
	spi := &lockedSPI{}
	_, c := start(t, spi, dacConfig("dac0"))

	got := request(t, c, ctrl("set_level"), map[string]any{"level": 0x1234})
	if diff := cmp.Diff(types.DACAck{OK: true}, got); diff != "" {
		t.Fatalf("ack mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]byte{0x08, 0x12, 0x34}, spi.last()); diff != "" {
		t.Fatalf("frame mismatch (-want +got):\n%s", diff)
	}
}

func TestControlErrorsMapToCodes(t *testing.T) {
	spi := &lockedSPI{}
	_, c := start(t, spi, dacConfig("dac0"))

	expectErrReply(t, request(t, c, ctrl("set_level"), map[string]any{"level": 65536}), "out_of_range")
	if spi.last() != nil {
		t.Fatal("out-of-range level must not reach the bus")
	}

	spi.set(nil, errors.New("spi down"))
	expectErrReply(t, request(t, c, ctrl("set_power"), map[string]any{"power": "off"}), "io_error")

	expectErrReply(t, request(t, c, ctrl("self_destruct"), nil), "unsupported")
	expectErrReply(t, request(t, c, bus.T("hal", "capability", "dac", "7", "control", "read_alarm"), nil), "unknown_capability")
	expectErrReply(t, request(t, c, bus.T("hal", "capability", "dac", "x", "control", "read_alarm"), nil), "invalid_capability_address")
}

func TestReadNowPublishesValue(t *testing.T) {
	spi := &lockedSPI{}
	spi.set([]byte{0x00, 0x80, 0x00}, nil)
	_, c := start(t, spi, dacConfig("dac0"))

	val := c.Subscribe(bus.T("hal", "capability", "dac", "0", "value"))
	defer c.Unsubscribe(val)

	if diff := cmp.Diff(types.ReadNowAck{OK: true}, request(t, c, ctrl("read_now"), nil)); diff != "" {
		t.Fatalf("ack mismatch (-want +got):\n%s", diff)
	}
	m, ok := recvWithin(val.Channel(), time.Second)
	if !ok {
		t.Fatal("no value published")
	}
	v, ok := m.Payload.(types.DACValue)
	if !ok || !v.Alarm {
		t.Fatalf("unexpected value: %#v", m.Payload)
	}
	if diff := cmp.Diff([]byte{0x87, 0x00, 0x00}, spi.last()); diff != "" {
		t.Fatalf("frame mismatch (-want +got):\n%s", diff)
	}
}

func TestCollectFailureDegradesState(t *testing.T) {
	spi := &lockedSPI{}
	_, c := start(t, spi, dacConfig("dac0"))
	spi.set(nil, errors.New("spi down"))

	st := c.Subscribe(bus.T("hal", "capability", "dac", "0", "state"))
	defer c.Unsubscribe(st)
	request(t, c, ctrl("read_now"), nil)

	deadline := time.After(time.Second)
	for {
		select {
		case m := <-st.Channel():
			cs, ok := m.Payload.(types.CapabilityStatus)
			if ok && cs.Link == types.LinkDegraded {
				if cs.Error != "io_error" {
					t.Fatalf("error code = %q, want io_error", cs.Error)
				}
				return
			}
		case <-deadline:
			t.Fatal("state never degraded")
		}
	}
}

func TestSetRate(t *testing.T) {
	_, c := start(t, &lockedSPI{}, dacConfig("dac0"))

	expectErrReply(t, request(t, c, ctrl("set_rate"), map[string]any{"period_ms": 0}), "invalid_period")

	got := request(t, c, ctrl("set_rate"), map[string]any{"period_ms": 50})
	if diff := cmp.Diff(types.SetRateAck{OK: true, PeriodMS: 200}, got); diff != "" {
		t.Fatalf("ack mismatch (-want +got):\n%s", diff)
	}
}

func TestPeriodicSampling(t *testing.T) {
	spi := &lockedSPI{}
	cfg := dacConfig("dac0")
	cfg.Devices[0].Params = map[string]any{"sample_ms": 200}
	_, c := start(t, spi, cfg)

	val := c.Subscribe(bus.T("hal", "capability", "dac", "0", "value"))
	defer c.Unsubscribe(val)
	for i := 0; i < 2; i++ {
		if _, ok := recvWithin(val.Channel(), 2*time.Second); !ok {
			t.Fatalf("sample %d not published", i)
		}
	}
}

func TestRemovedDeviceGoesDown(t *testing.T) {
	_, c := start(t, &lockedSPI{}, dacConfig("dac0"))

	hs := c.Subscribe(bus.T("hal", "state"))
	defer c.Unsubscribe(hs)
	c.Publish(c.NewMessage(bus.T("config", "hal"), types.HALConfig{}, true))

	st := c.Subscribe(bus.T("hal", "capability", "dac", "0", "state"))
	defer c.Unsubscribe(st)
	deadline := time.After(time.Second)
	for {
		select {
		case m := <-st.Channel():
			if cs, ok := m.Payload.(types.CapabilityStatus); ok && cs.Link == types.LinkDown {
				expectErrReply(t, request(t, c, ctrl("read_alarm"), nil), "unknown_capability")
				return
			}
		case <-deadline:
			t.Fatal("capability never went down")
		}
	}
}

func TestUnknownTypeReportsError(t *testing.T) {
	b := bus.NewBus(16)
	svc := New(b.NewConnection("hal"), halcore.SPIBuses{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { defer close(done); svc.Run(ctx) }()
	defer func() { cancel(); <-done }()

	c := b.NewConnection("test")
	st := c.Subscribe(bus.T("hal", "state"))
	defer c.Unsubscribe(st)
	c.Publish(c.NewMessage(bus.T("config", "hal"), types.HALConfig{Devices: []types.Device{{ID: "x", Type: "dac99999"}}}, true))

	hs := waitState(t, st, "error")
	if hs.Status != "apply_config_failed" {
		t.Fatalf("status = %q", hs.Status)
	}
}

func recvWithin[T any](ch <-chan T, d time.Duration) (T, bool) {
	var zero T
	select {
	case v, ok := <-ch:
		return v, ok
	case <-time.After(d):
		return zero, false
	}
}
