// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package alarmtimer

import (
	"time"

	"github.com/intuitivelabs/timestamp"
)

// wallNow is the REALTIME base's reference clock function. Round(0)
// strips the monotonic reading stdlib time.Now() normally attaches,
// so comparisons against it observe wall-clock step adjustments the
// way spec.md's REALTIME base is supposed to (an NTP step should be
// visible to a REALTIME alarm; it must not be visible to a BOOTTIME
// one).
func wallNow() time.Time {
	return time.Now().Round(0)
}

// bootNow is the BOOTTIME base's reference clock function. Keeping the
// monotonic reading means Sub/Before between two bootNow() samples
// tracks elapsed time since process start and ignores wall-clock step
// changes, the closest a regular process gets to "time since boot"
// without an actual boot-relative clock source.
func bootNow() time.Time {
	return time.Now()
}

// wallDrift tracks the wall clock via timestamp.TS the way the
// teacher's wtimer_ticker.go tracks lastTickT/badTime, so the suspend
// hook (suspend.go) can warn rather than silently mis-arm the RTC if
// the wall clock jumps backward between two reference reads.
type wallDrift struct {
	last    timestamp.TS
	badTime uint32
}

// check samples the current wall time and returns true if it regressed
// relative to the previous sample.
func (d *wallDrift) check() bool {
	now := timestamp.Now()
	regressed := now.Before(d.last)
	if regressed {
		d.badTime++
	} else {
		d.badTime = 0
	}
	d.last = now
	return regressed
}
