/*
 * Dioptase32 - quantum event scheduler
 *
 * Copyright 2026, Dioptase32 contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package event implements a delta-time ordered event list: each entry
// stores how many quanta remain until it fires relative to the entry
// before it, so advancing time by one quantum is an O(1) decrement of
// the head instead of a scan of every pending entry. It drives the SD
// DMA engine's quantum-per-tick transfer progress.
package event

// Callback receives the iarg the event was registered with.
type Callback func(iarg int)

type entry struct {
	owner interface{} // identity used by Cancel to find a specific registration
	cb    Callback
	iarg  int
	delta int
	prev  *entry
	next  *entry
}

// List is one delta-time queue. The zero value is ready to use.
type List struct {
	head *entry
	tail *entry
}

// Add schedules cb to fire after quanta ticks (relative to now), tagged
// with owner (for Cancel) and iarg. A zero-quantum event fires
// immediately rather than being queued, matching a same-tick DMA kickoff.
func (l *List) Add(owner interface{}, cb Callback, quanta int, iarg int) {
	if quanta <= 0 {
		cb(iarg)
		return
	}

	ev := &entry{owner: owner, cb: cb, iarg: iarg, delta: quanta}

	cur := l.head
	if cur == nil {
		l.head = ev
		l.tail = ev
		return
	}
	for cur != nil {
		if ev.delta <= cur.delta {
			cur.delta -= ev.delta
			ev.prev = cur.prev
			ev.next = cur
			cur.prev = ev
			if ev.prev != nil {
				ev.prev.next = ev
			} else {
				l.head = ev
			}
			return
		}
		ev.delta -= cur.delta
		cur = cur.next
	}
	ev.prev = l.tail
	l.tail.next = ev
	l.tail = ev
}

// Cancel removes the first pending event registered by owner with iarg,
// if any, folding its remaining delta into the following entry so total
// elapsed time for entries after it is unaffected.
func (l *List) Cancel(owner interface{}, iarg int) {
	for cur := l.head; cur != nil; cur = cur.next {
		if cur.owner != owner || cur.iarg != iarg {
			continue
		}
		if cur.next != nil {
			cur.next.delta += cur.delta
			cur.next.prev = cur.prev
		} else {
			l.tail = cur.prev
		}
		if cur.prev != nil {
			cur.prev.next = cur.next
		} else {
			l.head = cur.next
		}
		return
	}
}

// Advance moves time forward by quanta, firing (and dequeuing) every
// event whose delta reaches zero or below.
func (l *List) Advance(quanta int) {
	cur := l.head
	if cur == nil {
		return
	}
	cur.delta -= quanta
	for cur != nil && cur.delta <= 0 {
		cur.cb(cur.iarg)
		l.head = cur.next
		if l.head != nil {
			l.head.prev = nil
		} else {
			l.tail = nil
		}
		cur = l.head
	}
}

// Empty reports whether the list has no pending events.
func (l *List) Empty() bool { return l.head == nil }
