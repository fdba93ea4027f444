/*
 * Dioptase32 - TLB
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

// Package mmu implements the 16-entry fully-associative TLB keyed on
// (pid, vpn), with a global bit that bypasses pid scoping and RWXU
// permission bits packed into the low nibble of each entry's stored word.
package mmu

import (
	"fmt"
	"strings"
)

// Capacity is the number of TLB entries.
const Capacity = 16

// Access intents, matching the flag bit each one checks.
const (
	OpRead  = 0
	OpWrite = 1
	OpFetch = 2
)

const (
	flagR uint32 = 1 << 0
	flagW uint32 = 1 << 1
	flagX uint32 = 1 << 2
	flagU uint32 = 1 << 3
	flagG uint32 = 1 << 4
)

type entry struct {
	vpn    uint32
	pid    uint8
	global bool
	word   uint32 // raw rE value: ppn in bits[31:12], flags in bits[11:0]
}

// TLB is a 16-entry fully-associative cache of VPN->PPN mappings with a
// FIFO replacement policy: inserting a 17th distinct (pid, vpn) key evicts
// whichever entry was installed 16 inserts ago.
type TLB struct {
	entries [Capacity]entry
	valid   [Capacity]bool
	next    int
}

// New returns an empty TLB.
func New() *TLB {
	return &TLB{}
}

func (t *TLB) find(pid uint8, vpn uint32) (int, bool) {
	for i := 0; i < Capacity; i++ {
		if !t.valid[i] {
			continue
		}
		e := t.entries[i]
		if e.vpn == vpn && (e.global || e.pid == pid) {
			return i, true
		}
	}
	return -1, false
}

// Write inserts { vpn, ppn, flags, pid }, packed into word exactly the way
// tlbw's source register is laid out: ppn = word[31:12], flags = word[11:0].
// An existing entry for the same (pid, vpn) is updated in place rather than
// counted as a fresh insert, so only distinct keys drive eviction.
func (t *TLB) Write(pid uint8, vpn uint32, word uint32) {
	global := word&flagG != 0
	if i, ok := t.find(pid, vpn); ok {
		t.entries[i] = entry{vpn: vpn, pid: pid, global: global, word: word}
		return
	}
	i := t.next
	t.entries[i] = entry{vpn: vpn, pid: pid, global: global, word: word}
	t.valid[i] = true
	t.next = (t.next + 1) % Capacity
}

// Read returns the raw word stored for (pid, vpn), for the tlbr
// instruction, which must reproduce exactly what tlbw wrote.
func (t *TLB) Read(pid uint8, vpn uint32) (uint32, bool) {
	if i, ok := t.find(pid, vpn); ok {
		return t.entries[i].word, true
	}
	return 0, false
}

// Clear removes every entry (tlbc).
func (t *TLB) Clear() {
	*t = TLB{}
}

// Translate performs a permission-checked lookup for the given access
// intent. user selects whether the U bit is enforced (kernel mode ignores
// it). A miss — absent entry or failed permission check — is reported
// identically: both vector through the same TLB-miss trap.
func (t *TLB) Translate(pid uint8, vpn uint32, op int, user bool) (ppn uint32, ok bool) {
	i, found := t.find(pid, vpn)
	if !found {
		return 0, false
	}
	e := t.entries[i]
	var need uint32
	switch op {
	case OpRead:
		need = flagR
	case OpWrite:
		need = flagW
	case OpFetch:
		need = flagX
	}
	if e.word&need == 0 {
		return 0, false
	}
	if user && e.word&flagU == 0 {
		return 0, false
	}
	return e.word & 0xFFFFF000, true
}

// Empty reports whether the TLB holds no entries, used by the CPU to
// decide whether pid-0 accesses pass through untranslated.
func (t *TLB) Empty() bool {
	for _, v := range t.valid {
		if v {
			return false
		}
	}
	return true
}

// Dump renders every valid entry for the debugger's `info tlb` command.
func (t *TLB) Dump() string {
	var sb strings.Builder
	for i := 0; i < Capacity; i++ {
		if !t.valid[i] {
			continue
		}
		e := t.entries[i]
		fmt.Fprintf(&sb, "[%2d] pid=%d vpn=%05x ppn=%05x flags=%x global=%v\n",
			i, e.pid, e.vpn, e.word>>12, e.word&0xFFF, e.global)
	}
	if sb.Len() == 0 {
		return "(empty)"
	}
	return sb.String()
}
