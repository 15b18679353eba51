// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package alarmtimer

import (
	"context"
	"sync"
	"time"

	"gopkg.in/tomb.v2"
)

// ClockID is the closed sum of externally visible clock identifiers
// the façade accepts (spec.md §4.4/§9: "invalid identifiers must be
// rejected at the boundary rather than defaulted").
type ClockID uint8

const (
	ClockRealtimeAlarm ClockID = iota
	ClockBoottimeAlarm
	numClockID
)

// alarmType maps a ClockID to its AlarmType, or reports ok=false for
// any other identifier.
func (c ClockID) alarmType() (AlarmType, bool) {
	switch c {
	case ClockRealtimeAlarm:
		return RTCWall, true
	case ClockBoottimeAlarm:
		return RTCBoot, true
	default:
		return 0, false
	}
}

// CapabilityChecker is the downward capability-subsystem interface
// (spec.md §6): whether the calling context holds the "wake-alarm"
// capability required by timer_create and nsleep.
type CapabilityChecker interface {
	HasWakeAlarm(ctx context.Context) bool
}

// MinTimerInterval is the interval floor TimerSet clamps to, per
// spec.md §4.4/P5. spec.md §9 labels the exact value policy, not
// semantics; it is kept as a named, overridable-by-recompilation
// constant rather than buried in TimerSet's body.
const MinTimerInterval = 100 * time.Microsecond

// OverrunPolicy resolves spec.md §9's "batched overrun" Open Question:
// whether a periodic timer that is still expired immediately after
// rearming fires once per missed period (OverrunEachFiring, the
// baseline design in spec.md §4.2) or collapses the catch-up into a
// single delivered event plus an overrun tally (OverrunCollapse).
type OverrunPolicy uint8

const (
	OverrunEachFiring OverrunPolicy = iota
	OverrunCollapse
)

// TimerEvent is delivered to a Facade's Notify channel when a
// PosixTimer's embedded alarm fires and the event was not collapsed as
// an overrun.
type TimerEvent struct {
	Timer *PosixTimer
	At    time.Time
}

// Facade maps the two externally visible clock identifiers to their
// alarm bases and implements spec.md §4.4's posix-clock operation
// table: GetRes, ClockGet, TimerCreate, TimerSet, TimerGet, TimerDel,
// plus Nanosleep/Restart (nsleep.go).
//
// All operations require a wakealarm-capable RTC to have been
// discovered at construction; if none exists, they return
// ErrUnsupported (spec.md §4.4).
type Facade struct {
	rtc   *rtcRegistry
	caps  CapabilityChecker
	policy OverrunPolicy

	events chan *PosixTimer
	Notify chan<- TimerEvent
	t      tomb.Tomb
}

// NewFacade builds a Facade, running RTC discovery once via enum
// (spec.md §9: singleton RTC). caps gates timer_create/nsleep per
// spec.md's Permission section; policy resolves the batched-overrun
// Open Question (see DESIGN.md).
func NewFacade(enum RTCEnumerator, caps CapabilityChecker, policy OverrunPolicy) *Facade {
	f := &Facade{
		rtc:    discoverRTC(enum),
		caps:   caps,
		policy: policy,
		events: make(chan *PosixTimer, 64),
	}
	f.t.Go(f.deliverLoop)
	return f
}

// Close stops the Facade's event-delivery goroutine (mirrors the
// teacher's wtimer_run.go Start/Shutdown pair, but supervised with
// tomb.v2 rather than a hand-rolled sync.WaitGroup/cancel-channel —
// see DESIGN.md's posixclock.go entry for why).
func (f *Facade) Close() {
	f.t.Kill(nil)
	f.t.Wait()
}

// deliverLoop forwards fired PosixTimers to Notify, if set, counting
// an overrun when there is no room to deliver (spec.md §7: "Reported
// via the posix-timer overrun counter when a timer-expiry event cannot
// be delivered").
func (f *Facade) deliverLoop() error {
	for {
		select {
		case <-f.t.Dying():
			return nil
		case pt := <-f.events:
			ev := TimerEvent{Timer: pt, At: pt.alarm.Expiry()}
			if f.Notify == nil {
				pt.incOverrun()
				continue
			}
			select {
			case f.Notify <- ev:
			default:
				pt.incOverrun()
			}
		}
	}
}

func (f *Facade) requireRTC() error {
	if f.rtc == nil || f.rtc.dev == nil {
		return ErrUnsupported
	}
	return nil
}

func (f *Facade) requireCap(ctx context.Context) error {
	if f.caps == nil || !f.caps.HasWakeAlarm(ctx) {
		return ErrPermissionDenied
	}
	return nil
}

// GetRes returns the resolution of clock's underlying reference clock
// (spec.md §4.4 getres). All bases here are backed by Go's runtime
// timer, whose practical resolution is one nanosecond.
func (f *Facade) GetRes(clock ClockID) (time.Duration, error) {
	if err := f.requireRTC(); err != nil {
		return 0, err
	}
	if _, ok := clock.alarmType(); !ok {
		return 0, ErrUnsupported
	}
	return time.Nanosecond, nil
}

// ClockGet returns the current value of clock's reference clock
// (spec.md §4.4 clock_get).
func (f *Facade) ClockGet(clock ClockID) (time.Time, error) {
	if err := f.requireRTC(); err != nil {
		return time.Time{}, err
	}
	kind, ok := clock.alarmType()
	if !ok {
		return time.Time{}, ErrUnsupported
	}
	return baseFor(kind).Now(), nil
}

// PosixTimer is a user-space timer created via TimerCreate, backed by
// an embedded Alarm (spec.md §4.4 timer_create/set/get/del).
type PosixTimer struct {
	mu      sync.Mutex
	clock   ClockID
	alarm   Alarm
	overrun uint64
	facade  *Facade
}

func (pt *PosixTimer) incOverrun() {
	pt.mu.Lock()
	pt.overrun++
	pt.mu.Unlock()
}

// Overrun returns and resets the number of expirations that could not
// be delivered (timer_getoverrun(2) in the supplemented feature set —
// see SPEC_FULL.md §6).
func (pt *PosixTimer) Overrun() uint64 {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	o := pt.overrun
	pt.overrun = 0
	return o
}

// TimerCreate initializes timer against clock (spec.md §4.4
// timer_create). It requires the wake-alarm capability.
func (f *Facade) TimerCreate(ctx context.Context, clock ClockID, timer *PosixTimer) error {
	if err := f.requireRTC(); err != nil {
		return err
	}
	if err := f.requireCap(ctx); err != nil {
		return err
	}
	kind, ok := clock.alarmType()
	if !ok {
		return ErrUnsupported
	}
	timer.clock = clock
	timer.facade = f
	lastGen := ^uint64(0)
	return Init(&timer.alarm, kind, func(a *Alarm) {
		if f.policy == OverrunCollapse {
			gen := a.drain()
			if gen == lastGen {
				timer.incOverrun()
				return
			}
			lastGen = gen
		}
		select {
		case f.events <- timer:
		default:
			timer.incOverrun()
		}
	})
}

// TimerSetting is the pre-existing expiry/period pair TimerSet copies
// into its old out-parameter, the counterpart of TimerGet's return
// values (spec.md §4.4: timer_set "copies the pre-existing settings
// into old if requested").
type TimerSetting struct {
	Expiry time.Time
	Period time.Duration
}

// TimerSet arms timer with new, returning the previous setting in old
// if non-nil (spec.md §4.4 timer_set). Any nonzero requested interval
// below MinTimerInterval is clamped up to it (P5); a zero interval is
// left at zero and the timer stays one-shot.
func (f *Facade) TimerSet(timer *PosixTimer, expiry time.Time, period time.Duration, old *TimerSetting) error {
	if err := f.requireRTC(); err != nil {
		return err
	}
	if period > 0 && period < MinTimerInterval {
		period = MinTimerInterval
	}
	if old != nil {
		old.Expiry = timer.alarm.Expiry()
		old.Period = timer.alarm.Period()
	}
	Cancel(&timer.alarm)
	return Start(&timer.alarm, expiry, period)
}

// TimerGet reports timer's current expiry and period (spec.md §4.4
// timer_get).
func (f *Facade) TimerGet(timer *PosixTimer) (time.Time, time.Duration) {
	return timer.alarm.Expiry(), timer.alarm.Period()
}

// TimerDel cancels timer's embedded alarm (spec.md §4.4 timer_del).
func (f *Facade) TimerDel(timer *PosixTimer) {
	Cancel(&timer.alarm)
}
