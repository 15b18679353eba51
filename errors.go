// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package alarmtimer

import (
	"errors"
)

// Core errors (C1-C4, alarm lifecycle and queue operations).
var ErrActiveTimer = errors.New("called on already active alarm")
var ErrInvalidParameters = errors.New("invalid parameters")
var ErrTicksTooHigh = errors.New("expire value too far in the future")

// Posix-clock façade errors (C5), named after the error taxonomy in
// spec.md §7.
var ErrUnsupported = errors.New("unsupported clock or no wakealarm RTC present")
var ErrPermissionDenied = errors.New("caller lacks the wake-alarm capability")
var ErrAddressFault = errors.New("failed to copy remaining time to caller")
var ErrInterruptedRestart = errors.New("nanosleep interrupted, restart requested")
var ErrInterruptedNoRestart = errors.New("nanosleep interrupted, no restart")
