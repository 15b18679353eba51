// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package alarmtimer

import "time"

// suspendWallDrift is the regression detector clock.go's wallDrift
// provides, sampled once per SuspendHook call: a host whose wall clock
// has stepped backward since the last suspend makes every RTC delta
// computed below suspect, since they are measured against that same
// wall clock (spec.md §9's "bad time" detection, applied at the one
// place a stale reading would actually mis-arm hardware).
var suspendWallDrift wallDrift

// SuspendHook is invoked by the power-management subsystem at suspend
// (spec.md §4.6, C7). It never fails: any internal anomaly is logged
// and the hook returns with the RTC left idle, because blocking
// suspend on an alarm-subsystem problem is worse than missing a
// wakeup (spec.md §7).
//
// Per spec.md §5's lock-ordering rule it takes the freezer-delta lock
// first, then each base's lock in turn — never a base lock followed by
// the freezer-delta lock.
func (f *Facade) SuspendHook() {
	if suspendWallDrift.check() && WARNon() {
		WARN("SuspendHook: wall clock regressed since the last suspend, RTC deltas may be stale\n")
	}

	if err := f.requireRTC(); err != nil {
		if WARNon() {
			WARN("SuspendHook: %s, RTC left idle\n", err)
		}
		return
	}
	dev := f.rtc.dev

	min := globalFreezerDelta.consume()

	for k := AlarmType(0); k < NumType; k++ {
		b := bases[k]
		b.mu.Lock()
		head := b.queue.head()
		var delta time.Duration
		if head != nil {
			delta = head.expiry.Sub(b.nowFunc())
		}
		b.mu.Unlock()

		if head == nil {
			continue
		}
		if min == 0 || delta < min {
			min = delta
		}
	}

	if min == 0 {
		return
	}
	if min < time.Second && WARNon() {
		WARN("SuspendHook: arming RTC for only %s, caller error likely\n", min)
	}

	if err := dev.Cancel(); err != nil && WARNon() {
		WARN("SuspendHook: failed to cancel previous RTC alarm: %s\n", err)
	}
	rtcNow := dev.Now()
	if err := dev.SetAlarm(rtcNow.Add(min)); err != nil && WARNon() {
		WARN("SuspendHook: failed to arm RTC: %s\n", err)
	}
}
