// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

// Package alarmtimer provides alarm timers: wall-clock or
// boot-relative timers that fire callbacks at a programmed absolute
// instant and that remain accurate across a simulated host suspend by
// arming an RTC wakeup before the host would suspend.
//
// The package couples an in-memory per-base priority queue of firing
// deadlines with a single high-resolution dispatch timer per clock
// base, a freezer-aware sleep path (nsleep) that lets a goroutine
// block on an alarm while participating in suspend, and a suspend hook
// that reprograms an RTC so the soonest alarm wakes the machine.
package alarmtimer

const NAME = "alarmtimer"
