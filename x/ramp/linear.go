package ramp

import (
	"context"
	"errors"
	"time"

	"dacx0501-go/x/mathx"
)

// ErrCancelled is returned when Tick stops the ramp early.
var ErrCancelled = errors.New("ramp: cancelled")

// Step sets the next output level; an error aborts the ramp.
type Step func(level uint32) error

// Tick waits for d and reports whether to continue (false => cancelled).
type Tick func(d time.Duration) bool

// Linear walks a caller-driven integer ramp from cur to to over total,
// in steps increments, clamping each level to [0..top]. The last step
// always lands on min(to, top). steps==0 or total==0 snaps to 'to'.
func Linear(cur, to, top uint32, total time.Duration, steps uint16, tick Tick, set Step) error {
	to = mathx.Min(to, top)
	if steps == 0 || total <= 0 {
		return set(to)
	}
	d := int64(to) - int64(cur)
	st := int64(steps)
	acc := int64(0)
	lvl := int64(cur)
	stepDur := total / time.Duration(steps)
	if stepDur <= 0 {
		stepDur = time.Millisecond
	}

	for i := uint16(1); i < steps; i++ {
		if !tick(stepDur) {
			return ErrCancelled
		}
		acc += d
		inc := acc / st
		if inc == 0 {
			continue
		}
		acc -= inc * st
		lvl = mathx.Clamp(lvl+inc, 0, int64(top))
		if err := set(uint32(lvl)); err != nil {
			return err
		}
	}
	if !tick(stepDur) {
		return ErrCancelled
	}
	return set(to)
}

// Sleep returns a Tick that sleeps unless ctx is done first.
func Sleep(ctx context.Context) Tick {
	return func(d time.Duration) bool {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return false
		case <-t.C:
			return true
		}
	}
}
