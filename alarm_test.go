// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package alarmtimer

import (
	"testing"
	"time"
)

func TestInitRejectsBadParameters(t *testing.T) {
	var a Alarm
	if err := Init(&a, NumType, func(*Alarm) {}); err != ErrInvalidParameters {
		t.Fatalf("Init with invalid AlarmType: got %v, want ErrInvalidParameters", err)
	}
	if err := Init(&a, RTCWall, nil); err != ErrInvalidParameters {
		t.Fatalf("Init with nil callback: got %v, want ErrInvalidParameters", err)
	}
}

func TestInitRejectsActiveAlarm(t *testing.T) {
	var a Alarm
	if err := Init(&a, RTCWall, func(*Alarm) {}); err != nil {
		t.Fatalf("Init: %s", err)
	}
	if err := Start(&a, time.Now().Add(time.Hour), 0); err != nil {
		t.Fatalf("Start: %s", err)
	}
	defer Cancel(&a)

	if err := Init(&a, RTCWall, func(*Alarm) {}); err != ErrActiveTimer {
		t.Fatalf("Init on active alarm: got %v, want ErrActiveTimer", err)
	}
}

func TestStartEnabledIffLinked(t *testing.T) {
	var a Alarm
	if err := Init(&a, RTCWall, func(*Alarm) {}); err != nil {
		t.Fatalf("Init: %s", err)
	}
	if a.Enabled() {
		t.Fatalf("freshly initialized alarm reports Enabled")
	}

	if err := Start(&a, time.Now().Add(time.Hour), 0); err != nil {
		t.Fatalf("Start: %s", err)
	}
	if !a.Enabled() {
		t.Fatalf("alarm not Enabled after Start")
	}

	if ok := Cancel(&a); !ok {
		t.Fatalf("Cancel on enabled alarm returned false")
	}
	if a.Enabled() {
		t.Fatalf("alarm still Enabled after Cancel")
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	var a Alarm
	Init(&a, RTCBoot, func(*Alarm) {})
	Start(&a, time.Now().Add(time.Hour), 0)

	if ok := Cancel(&a); !ok {
		t.Fatalf("first Cancel returned false")
	}
	if ok := Cancel(&a); ok {
		t.Fatalf("second Cancel on an already-cancelled alarm returned true")
	}
}

func TestCancelBeforeFireNeverRuns(t *testing.T) {
	fired := make(chan struct{})
	var a Alarm
	Init(&a, RTCWall, func(*Alarm) { close(fired) })
	Start(&a, time.Now().Add(30*time.Millisecond), 0)
	Cancel(&a)

	select {
	case <-fired:
		t.Fatalf("cancelled alarm fired")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestStartRearmsAnEnabledAlarm(t *testing.T) {
	var a Alarm
	Init(&a, RTCWall, func(*Alarm) {})
	Start(&a, time.Now().Add(time.Hour), 0)
	defer Cancel(&a)

	newExpiry := time.Now().Add(2 * time.Hour)
	if err := Start(&a, newExpiry, 0); err != nil {
		t.Fatalf("re-Start: %s", err)
	}
	if !a.Expiry().Equal(newExpiry) {
		t.Fatalf("Expiry() = %s, want %s", a.Expiry(), newExpiry)
	}
}

func TestOneShotFires(t *testing.T) {
	fired := make(chan *Alarm, 1)
	var a Alarm
	Init(&a, RTCWall, func(al *Alarm) { fired <- al })
	Start(&a, time.Now().Add(20*time.Millisecond), 0)
	defer Cancel(&a)

	select {
	case got := <-fired:
		if got != &a {
			t.Fatalf("callback ran with the wrong *Alarm")
		}
		if got.Enabled() {
			t.Fatalf("one-shot alarm still Enabled after firing")
		}
	case <-time.After(time.Second):
		t.Fatalf("alarm did not fire within 1s")
	}
}

func TestPeriodicRearmsItself(t *testing.T) {
	fired := make(chan time.Time, 8)
	var a Alarm
	period := 20 * time.Millisecond
	Init(&a, RTCWall, func(al *Alarm) { fired <- al.Expiry() })
	start := time.Now().Add(period)
	Start(&a, start, period)
	defer Cancel(&a)

	var prev time.Time
	for i := 0; i < 3; i++ {
		select {
		case got := <-fired:
			if !prev.IsZero() && got.Sub(prev) != period {
				t.Fatalf("rearm #%d expiry delta = %s, want exactly %s (phase drift)", i, got.Sub(prev), period)
			}
			prev = got
		case <-time.After(time.Second):
			t.Fatalf("periodic alarm missed firing #%d", i)
		}
	}
}
