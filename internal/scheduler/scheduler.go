/*
 * Dioptase32 - multi-core round-robin scheduler
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

// Package scheduler drives the fixed array of cores: one host thread,
// one instruction per non-halted core per tick, in ascending cid order.
package scheduler

import (
	"github.com/dioptase/emu32/internal/cpu"
	"github.com/dioptase/emu32/internal/device"
	"github.com/dioptase/emu32/internal/memory"
)

// Mode selects which core a pass advances. RoundRobin is the only mode
// exercised by the architectural tests; Free and Random exist for
// interactive exploration, matching the selectable scheduling policies
// the original tool exposed.
type Mode int

const (
	RoundRobin Mode = iota
	Free
	Random
)

// Scheduler owns every core and the shared bus, and is the only writer
// of isr bits from device sources.
type Scheduler struct {
	Cores []*cpu.Core
	Bus   *memory.Bus
	Mode  Mode

	seed uint64
	next int

	MaxTicks int // 0 = unbounded
	ticks    int
}

// New builds n cores sharing bus, wires each core's IPI hook back into
// the scheduler, and assigns ascending cids.
func New(n int, bus *memory.Bus, mode Mode) *Scheduler {
	s := &Scheduler{Bus: bus, Mode: mode, seed: 0x9E3779B97F4A7C15}
	for i := 0; i < n; i++ {
		c := cpu.NewCore(uint32(i), bus)
		s.Cores = append(s.Cores, c)
	}
	for _, c := range s.Cores {
		c.SendIPI = s.deliverIPI
	}
	return s
}

func (s *Scheduler) deliverIPI(targetCID uint32, payload uint32) {
	for _, c := range s.Cores {
		if c.CR.CID == targetCID {
			c.CR.MBI = payload
			c.CR.ISR |= device.IRQIPI
			c.Asleep = false
		}
	}
}

// AllHalted reports whether every core has permanently stopped.
func (s *Scheduler) AllHalted() bool {
	for _, c := range s.Cores {
		if !c.Halted {
			return false
		}
	}
	return true
}

// Pass advances the schedule by one tick: exactly one core steps (or, in
// RoundRobin/Free mode, every non-halted core steps once, ascending cid —
// the architectural contract). After the pass, the DMA engine advances
// one quantum per core tick and device interrupt lines are sampled once
// and broadcast to every core's isr, per the tick contract.
func (s *Scheduler) Pass() {
	switch s.Mode {
	case Random:
		if c := s.pickRandom(); c != nil {
			c.Step()
			s.Bus.TickDevices()
		}
	default:
		for _, c := range s.Cores {
			if c.Halted {
				continue
			}
			c.Step()
			s.Bus.TickDevices()
		}
	}
	bits := s.Bus.SampleInterrupts()
	if bits != 0 {
		for _, c := range s.Cores {
			c.CR.ISR |= bits
			if c.Asleep {
				c.Asleep = false
			}
		}
	}
	s.ticks++
}

// Run drives Pass until every core halts or MaxTicks is reached (0 means
// unbounded). It reports whether the run stopped because of a timeout.
func (s *Scheduler) Run() (timedOut bool) {
	for !s.AllHalted() {
		if s.MaxTicks > 0 && s.ticks >= s.MaxTicks {
			return true
		}
		s.Pass()
	}
	return false
}

func (s *Scheduler) pickRandom() *cpu.Core {
	var active []*cpu.Core
	for _, c := range s.Cores {
		if !c.Halted {
			active = append(active, c)
		}
	}
	if len(active) == 0 {
		return nil
	}
	s.seed = s.seed*6364136223846793005 + 1442695040888963407
	idx := int(s.seed>>33) % len(active)
	return active[idx]
}
