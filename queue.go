// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package alarmtimer

import "container/heap"

// alarmQueue is a min-heap of *Alarm ordered by expiry, ties broken by
// insertion sequence (spec.md §3 Invariant 3, §4.1). It implements
// container/heap.Interface; all mutation happens under the owning
// ClockBase's lock (spec.md Invariant 4), so the heap itself needs no
// locking of its own.
type alarmQueue []*Alarm

func (q alarmQueue) Len() int { return len(q) }

func (q alarmQueue) Less(i, j int) bool {
	if q[i].expiry.Equal(q[j].expiry) {
		return q[i].seq < q[j].seq
	}
	return q[i].expiry.Before(q[j].expiry)
}

func (q alarmQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *alarmQueue) Push(x interface{}) {
	a := x.(*Alarm)
	a.index = len(*q)
	*q = append(*q, a)
}

func (q *alarmQueue) Pop() interface{} {
	old := *q
	n := len(old)
	a := old[n-1]
	old[n-1] = nil
	a.index = -1
	*q = old[:n-1]
	return a
}

// head returns the minimum-expiry alarm, or nil if the queue is empty
// (spec.md Invariant 3).
func (q alarmQueue) head() *Alarm {
	if len(q) == 0 {
		return nil
	}
	return q[0]
}

// push inserts a into the queue.
func (q *alarmQueue) push(a *Alarm) {
	heap.Push(q, a)
}

// removeAt removes the alarm currently at heap index idx.
func (q *alarmQueue) removeAt(idx int) {
	heap.Remove(q, idx)
}
