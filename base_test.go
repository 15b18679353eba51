// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package alarmtimer

import (
	"sync"
	"testing"
	"time"
)

// fakeClock is an injectable reference clock for deterministic
// dispatch tests, the white-box counterpart to the teacher's own
// practice of driving wtimer_test.go off explicit tick counts rather
// than real wall-clock sleeps.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) set(t time.Time) {
	f.mu.Lock()
	f.t = t
	f.mu.Unlock()
}

// noopTimer is a no-op hrTimer: tests call ClockBase.dispatch directly
// instead of waiting on a real time.Timer, so arming only needs to be
// observable, not functional.
type noopTimer struct {
	armed   time.Time
	isArmed bool
}

func (n *noopTimer) arm(at time.Time) {
	n.armed = at
	n.isArmed = true
}

func (n *noopTimer) disarm() bool {
	was := n.isArmed
	n.isArmed = false
	return was
}

func newTestBase() (*ClockBase, *fakeClock, *noopTimer) {
	fc := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	nt := &noopTimer{}
	b := &ClockBase{name: "test", nowFunc: fc.now, timer: nt}
	return b, fc, nt
}

func TestEnqueueArmsOnlyOnNewHead(t *testing.T) {
	b, fc, nt := newTestBase()
	now := fc.now()

	a1 := &Alarm{base: b, index: -1, fn: func(*Alarm) {}}
	Start(a1, now.Add(10*time.Second), 0)
	if !nt.isArmed || !nt.armed.Equal(now.Add(10*time.Second)) {
		t.Fatalf("timer not armed for the first alarm's expiry")
	}

	nt.isArmed = false // observe whether the next enqueue re-arms
	a2 := &Alarm{base: b, index: -1, fn: func(*Alarm) {}}
	Start(a2, now.Add(20*time.Second), 0)
	if nt.isArmed {
		t.Fatalf("timer re-armed for an alarm that is not the new head")
	}
}

func TestRemoveHeadRearmsToNextAlarm(t *testing.T) {
	b, fc, nt := newTestBase()
	now := fc.now()

	a1 := &Alarm{base: b, index: -1, fn: func(*Alarm) {}}
	a2 := &Alarm{base: b, index: -1, fn: func(*Alarm) {}}
	Start(a1, now.Add(5*time.Second), 0)
	Start(a2, now.Add(10*time.Second), 0)

	Cancel(a1)
	if !nt.isArmed || !nt.armed.Equal(now.Add(10*time.Second)) {
		t.Fatalf("timer not rearmed to the remaining alarm's expiry")
	}
}

func TestRemoveLastAlarmDisarms(t *testing.T) {
	b, fc, nt := newTestBase()
	a := &Alarm{base: b, index: -1, fn: func(*Alarm) {}}
	Start(a, fc.now().Add(time.Second), 0)
	Cancel(a)
	if nt.isArmed {
		t.Fatalf("timer still armed with an empty queue")
	}
}

func TestDispatchFiresOneShotAndDisarms(t *testing.T) {
	b, fc, nt := newTestBase()
	var ran bool
	a := &Alarm{base: b, index: -1}
	a.fn = func(al *Alarm) { ran = true }
	Start(a, fc.now().Add(time.Second), 0)

	fc.set(fc.now().Add(2 * time.Second))
	b.dispatch()

	if !ran {
		t.Fatalf("dispatch did not invoke the callback")
	}
	if a.Enabled() {
		t.Fatalf("one-shot alarm still Enabled after dispatch")
	}
	if nt.isArmed {
		t.Fatalf("timer still armed after draining the only alarm")
	}
}

func TestDispatchLeavesUnexpiredHeadArmed(t *testing.T) {
	b, fc, nt := newTestBase()
	now := fc.now()
	fired := 0
	a1 := &Alarm{base: b, index: -1, fn: func(*Alarm) { fired++ }}
	a2 := &Alarm{base: b, index: -1, fn: func(*Alarm) { fired++ }}
	Start(a1, now.Add(time.Second), 0)
	Start(a2, now.Add(time.Hour), 0)

	fc.set(now.Add(2 * time.Second))
	b.dispatch()

	if fired != 1 {
		t.Fatalf("fired = %d, want 1 (only a1 expired)", fired)
	}
	if !nt.isArmed || !nt.armed.Equal(now.Add(time.Hour)) {
		t.Fatalf("timer not rearmed to a2's still-future expiry")
	}
}

func TestDispatchPeriodicPreservesPhase(t *testing.T) {
	b, fc, _ := newTestBase()
	period := time.Second
	start := fc.now().Add(period)
	var fires []time.Time
	a := &Alarm{base: b, index: -1}
	a.fn = func(al *Alarm) { fires = append(fires, al.Expiry().Add(-period)) }
	Start(a, start, period)

	// Jump far enough ahead that three periods have elapsed in one
	// drain pass (spec.md §4.2: rearm from the original expiry, not
	// from "now", so phase never drifts no matter how late dispatch
	// runs). Stop just shy of the fourth expiry so exactly three fire.
	fc.set(start.Add(3*period - time.Nanosecond))
	b.dispatch()

	if len(fires) != 3 {
		t.Fatalf("fired %d times in one drain pass, want 3", len(fires))
	}
	for i, f := range fires {
		want := start.Add(time.Duration(i) * period)
		if !f.Equal(want) {
			t.Fatalf("fire #%d's pre-rearm expiry = %s, want %s", i, f, want)
		}
	}
	if next := a.Expiry(); !next.Equal(start.Add(3 * period)) {
		t.Fatalf("next expiry = %s, want %s", next, start.Add(3*period))
	}
}

func TestStatsReportsHeadAndCount(t *testing.T) {
	b, fc, _ := newTestBase()
	if s := b.Stats(); s.Armed != 0 || !s.Head.IsZero() {
		t.Fatalf("Stats on empty base = %+v, want zero value", s)
	}

	now := fc.now()
	a1 := &Alarm{base: b, index: -1, fn: func(*Alarm) {}}
	a2 := &Alarm{base: b, index: -1, fn: func(*Alarm) {}}
	Start(a1, now.Add(2*time.Second), 0)
	Start(a2, now.Add(time.Second), 0)

	s := b.Stats()
	if s.Armed != 2 {
		t.Fatalf("Stats.Armed = %d, want 2", s.Armed)
	}
	if !s.Head.Equal(now.Add(time.Second)) {
		t.Fatalf("Stats.Head = %s, want the earlier of the two (%s)", s.Head, now.Add(time.Second))
	}
}
