// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

// Command alarmctl is a small demonstration CLI for the alarmtimer
// nsleep entry point and suspend hook, driven by real wall-clock time.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/intuitivelabs/alarmtimer"
	flag "github.com/spf13/pflag"
)

type alwaysCap struct{}

func (alwaysCap) HasWakeAlarm(context.Context) bool { return true }

type neverFreezing struct{}

func (neverFreezing) Freezing() bool { return false }

// memRTC is a software stand-in for a wakealarm-capable RTC device,
// enough for alarmctl to demonstrate the nsleep/suspend path on a host
// with no real one.
type memRTC struct {
	armed bool
	at    time.Time
}

func (r *memRTC) Now() time.Time { return time.Now() }
func (r *memRTC) SetAlarm(at time.Time) error {
	r.armed = true
	r.at = at
	return nil
}
func (r *memRTC) Cancel() error {
	r.armed = false
	return nil
}
func (r *memRTC) Name() string { return "mem0" }

type memRTCEnumerator struct{ dev *memRTC }

func (e memRTCEnumerator) Enumerate() []string { return []string{e.dev.Name()} }
func (e memRTCEnumerator) Open(name string) (alarmtimer.RTC, error) {
	if name != e.dev.Name() {
		return nil, fmt.Errorf("no such RTC device %q", name)
	}
	return e.dev, nil
}

func main() {
	boot := flag.BoolP("boot", "b", false, "sleep on the boottime base instead of realtime")
	d := flag.DurationP("duration", "d", time.Second, "how long to sleep")
	flag.Parse()

	clock := alarmtimer.ClockRealtimeAlarm
	if *boot {
		clock = alarmtimer.ClockBoottimeAlarm
	}

	dev := &memRTC{}
	f := alarmtimer.NewFacade(memRTCEnumerator{dev: dev}, alwaysCap{}, alarmtimer.OverrunEachFiring)
	defer f.Close()

	start := time.Now()
	kind, _ := clockKind(clock)
	fmt.Printf("sleeping %s on %s\n", *d, kind)

	// Halfway through the sleep, run the suspend hook against the
	// in-memory RTC and report the wakeup it programmed.
	go func() {
		time.Sleep(*d / 2)
		f.SuspendHook()
		if dev.armed {
			fmt.Printf("suspend hook armed %s for %s from now\n", dev.Name(), dev.at.Sub(time.Now()).Round(time.Millisecond))
		}
	}()

	remaining, rb, err := f.Nanosleep(kind, *d, context.Background(), neverFreezing{})
	elapsed := time.Since(start)
	if err != nil {
		fmt.Fprintf(os.Stderr, "interrupted after %s, remaining %s, restart=%v: %s\n",
			elapsed, remaining, rb != nil, err)
		os.Exit(1)
	}
	fmt.Printf("fired after %s\n", elapsed)
}

func clockKind(c alarmtimer.ClockID) (alarmtimer.AlarmType, string) {
	if c == alarmtimer.ClockBoottimeAlarm {
		return alarmtimer.RTCBoot, "boottime"
	}
	return alarmtimer.RTCWall, "realtime"
}
