// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package alarmtimer

import "time"

// hrTimer is the downward high-resolution timer interface the core
// consumes (spec.md §6): init, start in absolute mode, try-cancel,
// set-expiry, callback registration. It is modeled after the way the
// teacher wraps time.Timer/time.Ticker behind package-internal
// helpers (wtimer_run.go, wtimer_ticker.go) rather than reaching for
// stdlib timer methods ad hoc at every call site.
type hrTimer interface {
	// arm (re)programs the timer to fire once at the absolute instant
	// at, cancelling any previous programming.
	arm(at time.Time)
	// disarm cancels any pending firing. It returns true if the timer
	// was actually pending (spec.md §4.1's "cancel any pending
	// dispatch-timer programming").
	disarm() bool
}

// stdHRTimer implements hrTimer on top of time.AfterFunc.
type stdHRTimer struct {
	nowFunc func() time.Time
	t       *time.Timer
}

// newHRTimer creates a disarmed hrTimer that will invoke cb (in its
// own goroutine, per time.AfterFunc semantics) when armed and fired.
func newHRTimer(nowFunc func() time.Time, cb func()) *stdHRTimer {
	t := time.AfterFunc(time.Hour, cb)
	t.Stop()
	return &stdHRTimer{nowFunc: nowFunc, t: t}
}

func (h *stdHRTimer) arm(at time.Time) {
	h.t.Stop()
	d := at.Sub(h.nowFunc())
	if d < 0 {
		d = 0
	}
	h.t.Reset(d)
}

func (h *stdHRTimer) disarm() bool {
	return h.t.Stop()
}
