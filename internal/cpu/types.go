/*
 * Dioptase32 - per-core register and mode definitions
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

// Package cpu implements the per-core instruction interpreter: register
// file and banking, the decoder for the ~60-opcode ISA, the ALU, and trap
// entry/exit.
package cpu

// Mode is the CPU privilege/execution mode. User is non-privileged;
// kernel and interrupt are both privileged and share the set of
// privileged instructions, but bank a different r31 alias and are
// reached through different trap/return paths.
type Mode uint8

const (
	ModeUser Mode = iota
	ModeKernel
	ModeInterrupt
)

func (m Mode) String() string {
	switch m {
	case ModeUser:
		return "user"
	case ModeKernel:
		return "kernel"
	case ModeInterrupt:
		return "interrupt"
	default:
		return "?"
	}
}

// Condition flags packed into the flg control register.
const (
	FlagC uint32 = 1 << 0
	FlagZ uint32 = 1 << 1
	FlagN uint32 = 1 << 2
	FlagV uint32 = 1 << 3
)

// CR is the bank of control registers. pid/imr/isr/epc/efg/tlb/
// mbi/mbo/cdv/flg are addressable by name and by cr-index (for crmv);
// ksp/isp/usp are only reachable through the r31 alias or crmv, never
// through general register encodings.
type CR struct {
	PID   uint32
	IMR   uint32 // top bit: global interrupt enable
	ISR   uint32 // pending interrupt bits, one per device source
	EPC   uint32
	EFG   uint32
	KSP   uint32
	ISP   uint32
	USP   uint32
	TLBVA uint32 // last faulting virtual address
	MBI   uint32
	MBO   uint32
	CDV   uint32
	CID   uint32 // read-only core identifier
	FLG   uint32
}

// Control-register indices addressed by crmv. This numbering is this implementation's own encoding choice,
// since the register set is named but an index assignment is not; see
// DESIGN.md.
const (
	CRPid = iota
	CRImr
	CRIsr
	CREpc
	CREfg
	CRKsp
	CRIsp
	CRUsp
	CRTlb
	CRMbi
	CRMbo
	CRCdv
	CRCid
	CRFlg
	crCount
)

// Fault is the architectural exception/trap classification a step can
// raise. It never escapes to a Go error: the trap dispatcher consumes it
// before the tick loop continues.
type Fault int

const (
	FaultNone Fault = iota
	FaultInstr
	FaultPriv
	FaultTLBUser
	FaultTLBKernel
)

// Trap vectors reserved by the IVT.
const (
	VecSys       = 0x01
	VecExcInstr  = 0x80
	VecExcPriv   = 0x81
	VecTLBUMiss  = 0x82
	VecTLBKMiss  = 0x83
	VecDeviceHi  = 0xF0 // device/IPI sources occupy 0xF0..0xFF, bit k -> vec 0xF0+k
)
