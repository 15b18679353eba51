// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package alarmtimer

import (
	"github.com/intuitivelabs/slog"
)

// Log is the package-wide leveled logger, named after the package the
// way other intuitivelabs packages do it.
var Log slog.Log

func init() {
	slog.SetLevel(&Log, slog.LWARN)
}

func DBGon() bool {
	return Log.DBGon()
}

func ERRon() bool {
	return Log.ERRon()
}

func WARNon() bool {
	return Log.WARNon()
}

func DBG(f string, a ...interface{}) {
	Log.LogMux(slog.LDBG, 0, f, a...)
}

func ERR(f string, a ...interface{}) {
	Log.LogMux(slog.LERR, 0, f, a...)
}

func WARN(f string, a ...interface{}) {
	Log.LogMux(slog.LWARN, 0, f, a...)
}

// BUG logs an invariant-violation style message. It does not panic:
// callers decide whether the condition is recoverable.
func BUG(f string, a ...interface{}) {
	Log.LogMux(slog.LBUG, 0, "BUG: "+f, a...)
}

// PANIC logs at the highest level and then panics. Reserved for
// invariant violations that make it unsafe to continue (see spec.md §7:
// internal queue operations are infallible by contract, so a failure
// here is a programming error).
func PANIC(f string, a ...interface{}) {
	Log.LogMux(slog.LCRIT, 0, "PANIC: "+f, a...)
	panic(Log.Sprintf(f, a...))
}
