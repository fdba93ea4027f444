/*
 * Dioptase32 - interactive debugger
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

// Package debugger implements a stepper REPL over a running scheduler: it
// observes and mutates core state through the same primitives the core
// exports, and never reaches into scheduler internals beyond that surface.
package debugger

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dioptase/emu32/internal/loader"
	"github.com/dioptase/emu32/internal/mmu"
	"github.com/dioptase/emu32/internal/scheduler"
)

// WatchKind selects which accesses trip a watchpoint. Only writes are
// actually observable without bus-level access hooks, so r and rw both
// degrade to w; this is a deliberate simplification, not an oversight.
type WatchKind int

const (
	WatchWrite WatchKind = iota
	WatchRead
	WatchReadWrite
)

type watch struct {
	kind WatchKind
	last uint32
}

// Break is returned by Step/Run when a breakpoint, watchpoint, or halt
// condition suspends execution. It is not an error.
type Break struct {
	Reason string
	PC     uint32
}

func (b *Break) Error() string { return b.Reason }

// Debugger drives a scheduler.Scheduler one pass (one instruction per
// core) at a time, checking breakpoints and watchpoints between passes.
type Debugger struct {
	Sched   *scheduler.Scheduler
	Symbols loader.Symbols

	breakpoints map[uint32]bool
	watches     map[uint32]*watch
}

// New builds a debugger over sched. syms may be nil if no .debug file was
// loaded; label resolution then only accepts bare hex addresses.
func New(sched *scheduler.Scheduler, syms loader.Symbols) *Debugger {
	if syms == nil {
		syms = loader.Symbols{}
	}
	return &Debugger{
		Sched:       sched,
		Symbols:     syms,
		breakpoints: map[uint32]bool{},
		watches:     map[uint32]*watch{},
	}
}

func (d *Debugger) resolve(tok string) (uint32, error) {
	addr, ok := d.Symbols.Resolve(tok)
	if !ok {
		return 0, fmt.Errorf("unresolved address or label %q", tok)
	}
	return addr, nil
}

// SetBreak installs a breakpoint at the resolved address or label.
func (d *Debugger) SetBreak(tok string) error {
	addr, err := d.resolve(tok)
	if err != nil {
		return err
	}
	d.breakpoints[addr] = true
	return nil
}

// DeleteBreak removes a breakpoint.
func (d *Debugger) DeleteBreak(tok string) error {
	addr, err := d.resolve(tok)
	if err != nil {
		return err
	}
	delete(d.breakpoints, addr)
	return nil
}

// SetWatch installs a watchpoint of the given kind at addr.
func (d *Debugger) SetWatch(kind WatchKind, tok string) error {
	addr, err := d.resolve(tok)
	if err != nil {
		return err
	}
	d.watches[addr] = &watch{kind: kind, last: d.Sched.Bus.ReadWord(addr)}
	return nil
}

// Unwatch removes a watchpoint.
func (d *Debugger) Unwatch(tok string) error {
	addr, err := d.resolve(tok)
	if err != nil {
		return err
	}
	delete(d.watches, addr)
	return nil
}

// checkStops returns the first tripped breakpoint or watchpoint after a
// pass, or nil if none fired.
func (d *Debugger) checkStops() *Break {
	for _, c := range d.Sched.Cores {
		if d.breakpoints[c.PC] {
			return &Break{Reason: fmt.Sprintf("breakpoint at %#x", c.PC), PC: c.PC}
		}
	}
	for addr, w := range d.watches {
		cur := d.Sched.Bus.ReadWord(addr)
		if cur != w.last {
			w.last = cur
			return &Break{Reason: fmt.Sprintf("watchpoint at %#x (now %#x)", addr, cur), PC: addr}
		}
	}
	return nil
}

// Step advances the scheduler by exactly one pass (one instruction per
// non-halted core), then checks stop conditions.
func (d *Debugger) Step() *Break {
	d.Sched.Pass()
	return d.checkStops()
}

// Run advances passes until a breakpoint/watchpoint fires or every core
// halts.
func (d *Debugger) Run() *Break {
	for !d.Sched.AllHalted() {
		if b := d.Step(); b != nil {
			return b
		}
	}
	return &Break{Reason: "all cores halted"}
}

// InfoRegs formats the general registers of core 0, the debugger's
// default focus.
func (d *Debugger) InfoRegs() string {
	c := d.Sched.Cores[0]
	var sb strings.Builder
	for i := 0; i < 32; i++ {
		fmt.Fprintf(&sb, "r%-2d=%08x ", i, c.GetReg(uint32(i)))
		if i%4 == 3 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// InfoCRegs formats the control registers of core 0.
func (d *Debugger) InfoCRegs() string {
	c := d.Sched.Cores[0]
	return fmt.Sprintf(
		"pid=%08x imr=%08x isr=%08x epc=%08x efg=%08x\nksp=%08x isp=%08x usp=%08x tlb=%08x\nmbi=%08x mbo=%08x cdv=%08x cid=%08x flg=%08x\nmode=%s pc=%08x",
		c.CR.PID, c.CR.IMR, c.CR.ISR, c.CR.EPC, c.CR.EFG,
		c.CR.KSP, c.CR.ISP, c.CR.USP, c.CR.TLBVA,
		c.CR.MBI, c.CR.MBO, c.CR.CDV, c.CR.CID, c.CR.FLG,
		c.Mode, c.PC,
	)
}

// SetReg writes a general register of core 0 by name ("r0".."r31").
func (d *Debugger) SetReg(name string, value uint32) error {
	idx, err := regIndex(name)
	if err != nil {
		return err
	}
	d.Sched.Cores[0].SetReg(idx, value)
	return nil
}

func regIndex(name string) (uint32, error) {
	n := strings.TrimPrefix(strings.ToLower(name), "r")
	v, err := strconv.Atoi(n)
	if err != nil || v < 0 || v > 31 {
		return 0, fmt.Errorf("invalid register %q", name)
	}
	return uint32(v), nil
}

// ExamineKind selects whether x reads virtual or physical addresses.
type ExamineKind int

const (
	ExaminePhysical ExamineKind = iota
	ExamineVirtual
)

// Examine reads len words starting at addr, through the virtual or
// physical path.
func (d *Debugger) Examine(kind ExamineKind, addr uint32, length int) ([]uint32, error) {
	words := make([]uint32, 0, length)
	c := d.Sched.Cores[0]
	for i := 0; i < length; i++ {
		a := addr + uint32(i)*4
		if kind == ExamineVirtual {
			pa, ok := c.Translate(a, mmu.OpRead)
			if !ok {
				return nil, errors.New("translation miss while examining virtual memory")
			}
			a = pa
		}
		words = append(words, d.Sched.Bus.ReadWord(a))
	}
	return words, nil
}
