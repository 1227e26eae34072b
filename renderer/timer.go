// SPDX-License-Identifier: Unlicense OR MIT

package renderer

import (
	"time"

	"kosmic.dev"
	"kosmic.dev/gpu/driver"
)

// frameTimers is a ring of GPU timers. Each frame begins on the next
// slot; results are collected without blocking, oldest first, so the
// reported duration lags the current frame.
type frameTimers struct {
	dev    driver.Device
	timers []*frameTimer
	next   int
	active *frameTimer
	last   time.Duration
}

type frameTimer struct {
	obj   driver.Timer
	state timerState
}

type timerState uint8

const (
	timerIdle timerState = iota
	timerRunning
	timerWaiting
)

// newFrameTimers returns nil if d cannot measure GPU time.
func newFrameTimers(d driver.Device, n int) (*frameTimers, error) {
	if n <= 0 {
		return nil, nil
	}
	if !d.Caps().Features.Has(driver.FeatureTimers) {
		kosmic.Logger().Warn("renderer: GPU timers unsupported, frame timing disabled")
		return nil, nil
	}
	t := &frameTimers{dev: d}
	for i := 0; i < n; i++ {
		obj, err := d.NewTimer()
		if err != nil {
			t.release()
			return nil, err
		}
		t.timers = append(t.timers, &frameTimer{obj: obj})
	}
	return t, nil
}

// begin starts timing on the next slot. If that slot still waits for
// its result the frame goes untimed.
func (t *frameTimers) begin() {
	if t == nil {
		return
	}
	t.collect()
	tt := t.timers[t.next]
	if tt.state != timerIdle {
		t.active = nil
		return
	}
	tt.obj.Begin()
	tt.state = timerRunning
	t.active = tt
}

func (t *frameTimers) end() {
	if t == nil || t.active == nil {
		return
	}
	t.active.obj.End()
	t.active.state = timerWaiting
	t.active = nil
	t.next = (t.next + 1) % len(t.timers)
	t.collect()
}

// collect reads back finished timers in the order they were started.
func (t *frameTimers) collect() {
	n := len(t.timers)
	for i := 0; i < n; i++ {
		tt := t.timers[(t.next+i)%n]
		if tt.state != timerWaiting {
			continue
		}
		d, ok := tt.obj.Duration()
		if !ok {
			return
		}
		tt.state = timerIdle
		if !t.dev.IsTimeContinuous() {
			kosmic.Logger().Warn("renderer: disjoint GPU timing discarded")
			continue
		}
		if d >= 0 {
			t.last = d
		}
	}
}

func (t *frameTimers) lastDuration() time.Duration {
	if t == nil {
		return 0
	}
	return t.last
}

func (t *frameTimers) release() {
	if t == nil {
		return
	}
	for _, tt := range t.timers {
		tt.obj.Release()
	}
	t.timers = nil
}
