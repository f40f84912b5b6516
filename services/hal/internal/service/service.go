// services/hal/internal/service/service.go
package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"dacx0501-go/bus"
	"dacx0501-go/errcode"
	"dacx0501-go/services/hal/internal/consts"
	"dacx0501-go/services/hal/internal/halcore"
	"dacx0501-go/services/hal/internal/registry"
	"dacx0501-go/services/hal/internal/util"
	"dacx0501-go/types"
	"dacx0501-go/x/mathx"

	"golang.org/x/exp/slog"
)

type devEntry struct {
	adaptor halcore.Adaptor
	caps    map[string]int // kind -> numeric capability id
	busID   string
}

type capKey struct {
	kind string
	id   int
}

// Service owns every adaptor and is the only goroutine that touches them,
// so SPI transactions from sampling and control never interleave.
type Service struct {
	conn  *bus.Connection
	buses halcore.SPIBusFactory
	log   *slog.Logger

	devices   map[string]devEntry
	capToDev  map[capKey]string // (kind,id) -> devID
	nextCapID map[string]int

	devPeriod  map[string]time.Duration
	devNextDue map[string]time.Time

	timer *time.Timer
}

var (
	topicConfigHAL = bus.T(consts.TokConfig, consts.TokHAL)
	topicCtrl      = bus.T(consts.TokHAL, consts.TokCapability, bus.Single, bus.Single, consts.TokControl, bus.Single)
	topicState     = bus.T(consts.TokHAL, consts.TokState)
)

func New(conn *bus.Connection, buses halcore.SPIBusFactory, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		conn:       conn,
		buses:      buses,
		log:        log.With("svc", "hal"),
		devices:    map[string]devEntry{},
		capToDev:   map[capKey]string{},
		nextCapID:  map[string]int{},
		devPeriod:  map[string]time.Duration{},
		devNextDue: map[string]time.Time{},
	}
}

func (s *Service) Run(ctx context.Context) {
	cfgSub := s.conn.Subscribe(topicConfigHAL)
	ctrlSub := s.conn.Subscribe(topicCtrl)
	defer s.conn.Unsubscribe(cfgSub)
	defer s.conn.Unsubscribe(ctrlSub)

	s.publishState("idle", "awaiting_config", nil)

	s.timer = time.NewTimer(time.Hour)
	if !s.timer.Stop() {
		util.DrainTimer(s.timer)
	}

	for {
		if next := s.earliestDevDue(); next.IsZero() {
			util.ResetTimer(s.timer, time.Hour)
		} else {
			util.ResetTimer(s.timer, time.Until(next))
		}

		select {
		case <-ctx.Done():
			s.publishState("stopped", "context_cancelled", nil)
			return

		case msg := <-cfgSub.Channel():
			var cfg types.HALConfig
			if err := util.DecodeJSON(msg.Payload, &cfg); err != nil {
				s.publishState("error", "config_wrong_type", err)
				continue
			}
			if err := s.applyConfig(ctx, cfg); err != nil {
				s.publishState("error", "apply_config_failed", err)
				continue
			}
			s.publishState("ready", "configured", nil)

		case msg := <-ctrlSub.Channel():
			s.handleControl(ctx, msg)

		case <-s.timer.C:
			now := time.Now()
			for devID, due := range s.devNextDue {
				if !now.Before(due) {
					s.measure(ctx, devID)
					s.bumpDevNext(devID, now)
				}
			}
		}
	}
}

// handleControl routes hal/capability/<kind>/<id>/control/<method>.
func (s *Service) handleControl(ctx context.Context, msg *bus.Message) {
	if len(msg.Topic) < 6 {
		return
	}
	kind := msg.Topic[2]
	idNum, err := strconv.Atoi(msg.Topic[3])
	if err != nil || kind == "" {
		s.replyErr(msg, errcode.InvalidCapAddr)
		return
	}
	devID, ok := s.capToDev[capKey{kind: kind, id: idNum}]
	if !ok {
		s.replyErr(msg, errcode.UnknownCapability)
		return
	}
	method := msg.Topic[5]

	switch method {
	case consts.CtrlReadNow:
		s.measure(ctx, devID)
		s.bumpDevNext(devID, time.Now())
		s.reply(msg, types.ReadNowAck{OK: true})

	case consts.CtrlSetRate:
		var p types.SetRate
		if err := util.DecodeJSON(msg.Payload, &p); err != nil || p.PeriodMS <= 0 {
			s.replyErr(msg, errcode.InvalidPeriod)
			return
		}
		period := mathx.Clamp(time.Duration(p.PeriodMS)*time.Millisecond, consts.MinPeriod, consts.MaxPeriod)
		s.devPeriod[devID] = period
		s.bumpDevNext(devID, time.Now())
		s.reply(msg, types.SetRateAck{OK: true, PeriodMS: int(period / time.Millisecond)})

	default:
		ent := s.devices[devID]
		if ent.adaptor == nil {
			s.replyErr(msg, errcode.NoAdaptor)
			return
		}
		res, err := ent.adaptor.Control(kind, method, msg.Payload)
		if err != nil {
			if errors.Is(err, halcore.ErrUnsupported) {
				s.replyErr(msg, errcode.Unsupported)
			} else {
				s.log.Warn("control failed", "dev", devID, "method", method, "err", err)
				s.replyErr(msg, errcode.Of(err))
			}
			return
		}
		s.reply(msg, res)
	}
}

func (s *Service) applyConfig(ctx context.Context, cfg types.HALConfig) error {
	seen := map[string]struct{}{}
	var firstErr error

	for i := range cfg.Devices {
		d := &cfg.Devices[i]
		seen[d.ID] = struct{}{}

		if _, exists := s.devices[d.ID]; exists {
			continue
		}

		b, ok := registry.Lookup(d.Type)
		if !ok {
			s.log.Warn("no builder", "dev", d.ID, "type", d.Type)
			if firstErr == nil {
				firstErr = errcode.Wrap(errcode.UnknownDevice, d.Type, nil)
			}
			continue
		}

		out, err := b.Build(registry.BuildInput{
			Ctx:        ctx,
			Buses:      s.buses,
			DeviceID:   d.ID,
			Type:       d.Type,
			ParamsJSON: d.Params,
			BusRefType: d.BusRef.Type,
			BusRefID:   d.BusRef.ID,
		})
		if err != nil {
			s.log.Warn("build failed", "dev", d.ID, "err", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		ad := out.Adaptor
		entry := devEntry{adaptor: ad, busID: out.BusID, caps: map[string]int{}}
		now := time.Now().UnixMilli()

		for _, ci := range ad.Capabilities() {
			id := s.nextCapID[ci.Kind]
			s.nextCapID[ci.Kind]++

			entry.caps[ci.Kind] = id
			s.capToDev[capKey{kind: ci.Kind, id: id}] = d.ID

			s.pubRet(ci.Kind, id, consts.TokInfo, ci.Info)
			s.pubRet(ci.Kind, id, consts.TokState, types.CapabilityStatus{Link: types.LinkUp, TS: now})
		}
		s.devices[d.ID] = entry
		s.log.Info("device up", "dev", d.ID, "type", d.Type, "bus", out.BusID)

		if out.SampleEvery > 0 {
			s.devPeriod[d.ID] = mathx.Clamp(out.SampleEvery, consts.MinPeriod, consts.MaxPeriod)
			s.devNextDue[d.ID] = time.Now().Add(consts.FirstSample)
		}
	}

	// Tidy-up devices not in config
	for devID, ent := range s.devices {
		if _, ok := seen[devID]; ok {
			continue
		}
		now := time.Now().UnixMilli()
		for kind, id := range ent.caps {
			s.pubRet(kind, id, consts.TokInfo, nil)
			s.pubRet(kind, id, consts.TokState, types.CapabilityStatus{Link: types.LinkDown, TS: now})
			delete(s.capToDev, capKey{kind: kind, id: id})
		}
		delete(s.devices, devID)
		delete(s.devPeriod, devID)
		delete(s.devNextDue, devID)
		s.log.Info("device removed", "dev", devID)
	}
	return firstErr
}

// ---- measurement helpers ----

// measure collects synchronously and publishes values or a degraded state.
func (s *Service) measure(ctx context.Context, devID string) {
	ent, ok := s.devices[devID]
	if !ok {
		return
	}
	sample, err := ent.adaptor.Collect(ctx)
	now := time.Now().UnixMilli()
	if err != nil {
		for kind, id := range ent.caps {
			s.pubRet(kind, id, consts.TokState, types.CapabilityStatus{
				Link:  types.LinkDegraded,
				TS:    now,
				Error: string(errcode.Of(err)),
			})
		}
		return
	}
	for _, rd := range sample {
		id, ok := ent.caps[rd.Kind]
		if !ok {
			continue
		}
		s.conn.Publish(s.conn.NewMessage(capTopic(rd.Kind, id, consts.TokValue), rd.Payload, false))
		s.pubRet(rd.Kind, id, consts.TokState, types.CapabilityStatus{Link: types.LinkUp, TS: now})
	}
}

func (s *Service) bumpDevNext(devID string, from time.Time) {
	period, ok := s.devPeriod[devID]
	if !ok {
		return
	}
	s.devNextDue[devID] = from.Add(mathx.Clamp(period, consts.MinPeriod, consts.MaxPeriod))
}

func (s *Service) earliestDevDue() time.Time {
	var min time.Time
	for _, t := range s.devNextDue {
		if !t.IsZero() && (min.IsZero() || t.Before(min)) {
			min = t
		}
	}
	return min
}

// ---- bus helpers ----

func (s *Service) publishState(level, status string, err error) {
	pl := types.HALState{Level: level, Status: status, TS: time.Now().UnixMilli()}
	if err != nil {
		pl.Error = err.Error()
	}
	s.conn.Publish(s.conn.NewMessage(topicState, pl, true))
}

func (s *Service) reply(req *bus.Message, payload any) {
	if len(req.ReplyTo) == 0 {
		return
	}
	_ = s.conn.Reply(req, payload, false)
}

func (s *Service) replyErr(req *bus.Message, code errcode.Code) {
	if code == "" {
		code = errcode.Error
	}
	s.reply(req, types.ErrorReply{OK: false, Error: string(code)})
}

func capTopic(kind string, id int, suffix string) bus.Topic {
	return bus.T(consts.TokHAL, consts.TokCapability, kind, strconv.Itoa(id), suffix)
}

func (s *Service) pubRet(kind string, id int, suffix string, p any) {
	s.conn.Publish(s.conn.NewMessage(capTopic(kind, id, suffix), p, true))
}
