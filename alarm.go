// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package alarmtimer

import "time"

// AlarmFunc is the callback invoked when an Alarm fires. It runs with
// no lock held (see base.go's dispatch engine): it may safely call
// Start/Cancel on any Alarm, including the one it was invoked for.
type AlarmFunc func(a *Alarm)

// Alarm is a one-shot or periodic event bound to a clock base, a
// deadline and a callback (spec.md §3).
//
// The zero Alarm is not usable; call Init before Start.
type Alarm struct {
	// expiry is the absolute deadline on the base's reference clock.
	expiry time.Time
	// period is the rearm interval; zero means one-shot.
	period time.Duration
	// fn is invoked on firing, with no base lock held.
	fn AlarmFunc
	// kind selects the owning ClockBase.
	kind AlarmType
	// enabled is true iff the alarm is linked into base.queue.
	enabled bool
	// index is this alarm's position in the base's heap, or -1 when
	// detached. Mutated only under the owning base's lock (the
	// intrusive-bookkeeping idiom of the teacher's tInfo, simplified
	// to a single field since there is one queue per base, not a
	// multi-wheel/runq topology).
	index int
	// seq breaks expiry ties by insertion order (not observable,
	// spec.md Invariant on tie-breaking).
	seq uint64
	// drainGen records which dispatch drain pass last fired this
	// alarm (see base.go's dispatch and spec.md §9's batched-overrun
	// Open Question).
	drainGen uint64

	// data is an opaque slot reserved for a single waiter. Nothing in
	// this package reads or writes it: the freezer-aware nsleep path
	// (nsleep.go) keeps its wake channel in the alarm callback's
	// closure instead.
	data interface{}

	base *ClockBase
}

// Init prepares alarm for use against the given AlarmType, detached
// and disabled, with the supplied callback (spec.md §4.3 init).
// Never call Init on an alarm that is currently enabled.
func Init(alarm *Alarm, kind AlarmType, fn AlarmFunc) error {
	if !kind.valid() {
		return ErrInvalidParameters
	}
	if fn == nil {
		return ErrInvalidParameters
	}
	if alarm.enabled {
		return ErrActiveTimer
	}
	*alarm = Alarm{
		kind:  kind,
		fn:    fn,
		index: -1,
		base:  baseFor(kind),
	}
	return nil
}

// Start arms alarm for expiry, rearming every period thereafter (a
// zero period means one-shot). If alarm is already enabled it is first
// removed and then re-enqueued with the new parameters (spec.md §4.3).
func Start(alarm *Alarm, expiry time.Time, period time.Duration) error {
	if alarm.base == nil {
		return ErrInvalidParameters
	}
	if period < 0 {
		return ErrInvalidParameters
	}
	b := alarm.base
	b.mu.Lock()
	defer b.mu.Unlock()
	if alarm.enabled {
		b.remove(alarm)
	}
	alarm.expiry = expiry
	alarm.period = period
	b.enqueue(alarm)
	alarm.enabled = true
	return nil
}

// Cancel detaches alarm if it is enabled. Cancel is best-effort with
// respect to a callback already in flight: it cannot stop a firing
// that the dispatch engine already committed to run (the base lock was
// released around the callback, per spec.md §4.2), but it guarantees
// the alarm will not be re-fired afterwards (spec.md §4.3, P7).
func Cancel(alarm *Alarm) bool {
	if alarm.base == nil {
		return false
	}
	b := alarm.base
	b.mu.Lock()
	defer b.mu.Unlock()
	if !alarm.enabled {
		return false
	}
	b.remove(alarm)
	alarm.enabled = false
	return true
}

// Enabled reports whether alarm is currently linked into its base's
// queue.
func (a *Alarm) Enabled() bool {
	return a.enabled
}

// Expiry returns the alarm's currently programmed absolute deadline.
func (a *Alarm) Expiry() time.Time {
	return a.expiry
}

// Period returns the alarm's rearm interval (zero for one-shot).
func (a *Alarm) Period() time.Duration {
	return a.period
}

// drain returns the dispatch generation this alarm last fired in.
func (a *Alarm) drain() uint64 {
	return a.drainGen
}
