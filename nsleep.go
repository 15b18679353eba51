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
)

// RestartBlock carries what's needed to resume an nsleep interrupted
// by a signal (spec.md §4.5, "Restart block" in the GLOSSARY): the
// clock base, the original absolute expiry, and whether a
// remaining-time readout is wanted on a further interruption.
type RestartBlock struct {
	Type       AlarmType
	Expiry     time.Time
	WantRemain bool
}

// sleepOnAlarm suspends the calling goroutine on an alarm expiring at
// expiry, per spec.md §4.5's state machine, with the one-shot wake
// channel spec.md §9's Design Notes suggest in place of the kernel's
// task-handle-in-data hand-off: "send" is the channel close (idempotent
// via sync.Once), and the sleeping side inspects channel state by
// selecting on it.
//
// It returns true if the alarm fired normally, false if ctx was
// cancelled (signal delivered) first.
func sleepOnAlarm(base *ClockBase, expiry time.Time, ctx context.Context) bool {
	wake := make(chan struct{})
	var once sync.Once
	var a Alarm
	Init(&a, baseKind(base), func(*Alarm) {
		once.Do(func() { close(wake) })
	})
	Start(&a, expiry, 0)
	defer Cancel(&a)

	select {
	case <-wake:
		return true
	case <-ctx.Done():
		return false
	}
}

// baseKind recovers the AlarmType a ClockBase was built for, so
// sleepOnAlarm can Init a throwaway Alarm against it without requiring
// every caller to also thread the AlarmType through.
func baseKind(b *ClockBase) AlarmType {
	for k := AlarmType(0); k < NumType; k++ {
		if bases[k] == b {
			return k
		}
	}
	PANIC("baseKind: base %p is not a registered ClockBase\n", b)
	return 0
}

// saturatingAdd adds d to t, clamping to the latest instant whose Unix
// nanosecond count fits in an int64 (time.Unix(0, math.MaxInt64), in
// the year 2262) instead of overflowing (spec.md §4.5: "saturating
// addition").
func saturatingAdd(t time.Time, d time.Duration) time.Time {
	if d <= 0 {
		return t
	}
	const maxDuration = time.Duration(1<<63 - 1)
	if maxDuration-time.Duration(t.UnixNano()) < d {
		return time.Unix(0, int64(maxDuration))
	}
	return t.Add(d)
}

// Nanosleep is the nsleep entry point (spec.md §4.5/§6) for its
// relative-time mode: it sleeps for d on the given clock base. freezer
// reports whether the caller is currently participating in a
// simulated suspend (nil means never freezable). ctx's cancellation
// models signal delivery. Use NanosleepAbs for the absolute-time-flag
// case, since Go's time.Duration cannot itself represent an absolute
// instant.
//
// Like every other façade operation (spec.md §4.4), nsleep requires a
// wakealarm-capable RTC to have been discovered and requires the
// caller to hold the wake-alarm capability (spec.md §6: "timer_create
// and nsleep require the calling context to hold a 'wake-alarm'
// capability").
//
// On normal expiry it returns (0, nil, nil). On interruption it
// returns the remaining time, ErrInterruptedRestart, and a
// RestartBlock the caller should hand to Restart to resume the sleep
// (relative mode always wants automatic restart per spec.md §4.5).
func (f *Facade) Nanosleep(clock AlarmType, d time.Duration, ctx context.Context, freezer Freezer) (time.Duration, *RestartBlock, error) {
	if err := f.requireRTC(); err != nil {
		return 0, nil, err
	}
	if err := f.requireCap(ctx); err != nil {
		return 0, nil, err
	}
	base := baseFor(clock)
	if base == nil {
		return 0, nil, ErrInvalidParameters
	}
	now := base.Now()
	expiry := saturatingAdd(now, d)
	fired := sleepOnAlarm(base, expiry, ctx)
	if fired {
		return 0, nil, nil
	}

	remaining := expiry.Sub(base.Now())
	if remaining < 0 {
		remaining = 0
	}
	if freezer != nil && freezer.Freezing() {
		globalFreezerDelta.publish(remaining)
	}
	rb := &RestartBlock{Type: clock, Expiry: expiry, WantRemain: true}
	return remaining, rb, ErrInterruptedRestart
}

// NanosleepAbs is Nanosleep's absolute-deadline variant: expiry is the
// already-absolute instant to sleep until (spec.md §4.5's "absolute
// time" flag value). Gated by the same RTC/capability requirements as
// Nanosleep.
func (f *Facade) NanosleepAbs(clock AlarmType, expiry time.Time, ctx context.Context, freezer Freezer) (time.Duration, error) {
	if err := f.requireRTC(); err != nil {
		return 0, err
	}
	if err := f.requireCap(ctx); err != nil {
		return 0, err
	}
	base := baseFor(clock)
	if base == nil {
		return 0, ErrInvalidParameters
	}
	fired := sleepOnAlarm(base, expiry, ctx)
	if fired {
		return 0, nil
	}
	remaining := expiry.Sub(base.Now())
	if remaining < 0 {
		remaining = 0
	}
	if freezer != nil && freezer.Freezing() {
		globalFreezerDelta.publish(remaining)
	}
	return remaining, ErrInterruptedNoRestart
}

// Restart resumes an nsleep interrupted earlier, reconstructing the
// wait from rb and re-entering the sleep loop with the original
// absolute expiry (spec.md §4.5 "Restart entry point"). Gated by the
// same RTC/capability requirements as Nanosleep: a restart is still an
// nsleep call.
func (f *Facade) Restart(rb *RestartBlock, ctx context.Context, freezer Freezer) (time.Duration, *RestartBlock, error) {
	if err := f.requireRTC(); err != nil {
		return 0, nil, err
	}
	if err := f.requireCap(ctx); err != nil {
		return 0, nil, err
	}
	base := baseFor(rb.Type)
	if base == nil {
		return 0, nil, ErrInvalidParameters
	}
	fired := sleepOnAlarm(base, rb.Expiry, ctx)
	if fired {
		return 0, nil, nil
	}
	remaining := rb.Expiry.Sub(base.Now())
	if remaining < 0 {
		remaining = 0
	}
	if freezer != nil && freezer.Freezing() {
		globalFreezerDelta.publish(remaining)
	}
	return remaining, rb, ErrInterruptedRestart
}
