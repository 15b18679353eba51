// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package alarmtimer

import "time"

// RTC is the downward real-time-clock device interface the core
// consumes (spec.md §6): enumerate wakealarm-capable devices, open one
// by name, read its current time, program or cancel a one-shot alarm.
// The core never arbitrates between multiple RTCs (spec.md §1's
// Non-goals): discoverRTC picks one at discovery time and rtcRegistry
// keeps it.
type RTC interface {
	// Now returns the RTC's current time.
	Now() time.Time
	// SetAlarm programs a one-shot wakeup at at, replacing any
	// previous programming.
	SetAlarm(at time.Time) error
	// Cancel disarms any programmed wakeup.
	Cancel() error
	// Name identifies the device, for logging.
	Name() string
}

// RTCEnumerator discovers wakealarm-capable RTC devices, the other
// half of the downward RTC interface (spec.md §6: "enumerate
// wakealarm-capable devices, open by name").
type RTCEnumerator interface {
	// Enumerate lists the names of wakealarm-capable RTC devices.
	Enumerate() []string
	// Open opens the named device.
	Open(name string) (RTC, error)
}

// rtcRegistry is the singleton RTC discovery described in spec.md §9's
// Design Notes: "choice of RTC is a process-wide one-time lazy
// initialization; express as an atomically-initialized optional value
// rather than a mutable global." discoverRTC runs discovery once per
// Facade, from NewFacade (no sync.Once is involved), and the result
// (or its absence) is kept for the Facade's lifetime.
type rtcRegistry struct {
	dev RTC // nil if no wakealarm-capable RTC was found
}

// discoverRTC picks the first wakealarm-capable RTC enumerator reports,
// or leaves the registry empty if none exist (spec.md §4.4: façade
// operations return ErrUnsupported when this is the case).
func discoverRTC(enum RTCEnumerator) *rtcRegistry {
	r := &rtcRegistry{}
	if enum == nil {
		return r
	}
	names := enum.Enumerate()
	if len(names) == 0 {
		return r
	}
	dev, err := enum.Open(names[0])
	if err != nil {
		if WARNon() {
			WARN("discoverRTC: failed to open %q: %s\n", names[0], err)
		}
		return r
	}
	r.dev = dev
	return r
}
