package cpu

import (
	"log/slog"

	"github.com/dioptase/emu32/internal/memory"
	"github.com/dioptase/emu32/internal/mmu"
)

// Core is one hardware thread: its own register file, control register
// bank, and TLB, sharing the physical bus with every other core.
type Core struct {
	Regs [32]uint32
	CR   CR
	Mode Mode
	PC   uint32

	Halted  bool
	Asleep  bool
	savedMode Mode

	TLB *mmu.TLB
	Bus *memory.Bus

	TraceInterrupts bool

	// SendIPI is wired by the scheduler at construction time: it delivers
	// payload to the target core's mbi and sets its IPI bit in isr.
	SendIPI func(targetCID uint32, payload uint32)
}

// NewCore returns a core reset into kernel mode at PC 0, the state every
// core boots into before the firmware's IVT and stack setup runs.
func NewCore(cid uint32, bus *memory.Bus) *Core {
	c := &Core{Mode: ModeKernel, Bus: bus, TLB: mmu.New()}
	c.CR.CID = cid
	return c
}

// GetReg reads general register i, applying the r31 stack-pointer alias
// for the core's current mode. r0 always reads zero.
func (c *Core) GetReg(i uint32) uint32 {
	i &= 31
	switch {
	case i == 0:
		return 0
	case i == 31:
		return c.spAlias()
	default:
		return c.Regs[i]
	}
}

// SetReg writes general register i, applying the same r31 alias as
// GetReg. Writes to r0 are discarded.
func (c *Core) SetReg(i uint32, v uint32) {
	i &= 31
	switch {
	case i == 0:
		return
	case i == 31:
		c.setSPAlias(v)
	default:
		c.Regs[i] = v
	}
}

func (c *Core) spAlias() uint32 {
	switch c.Mode {
	case ModeUser:
		return c.CR.USP
	case ModeInterrupt:
		return c.CR.ISP
	default:
		return c.CR.KSP
	}
}

func (c *Core) setSPAlias(v uint32) {
	switch c.Mode {
	case ModeUser:
		c.CR.USP = v
	case ModeInterrupt:
		c.CR.ISP = v
	default:
		c.CR.KSP = v
	}
}

// ReadCR reads a control register by cr-index, the path crmv uses; it
// bypasses the r31 alias entirely.
func (c *Core) ReadCR(idx uint32) uint32 {
	switch idx {
	case CRPid:
		return c.CR.PID
	case CRImr:
		return c.CR.IMR
	case CRIsr:
		return c.CR.ISR
	case CREpc:
		return c.CR.EPC
	case CREfg:
		return c.CR.EFG
	case CRKsp:
		return c.CR.KSP
	case CRIsp:
		return c.CR.ISP
	case CRUsp:
		return c.CR.USP
	case CRTlb:
		return c.CR.TLBVA
	case CRMbi:
		return c.CR.MBI
	case CRMbo:
		return c.CR.MBO
	case CRCdv:
		return c.CR.CDV
	case CRCid:
		return c.CR.CID
	case CRFlg:
		return c.CR.FLG
	default:
		return 0
	}
}

// WriteCR writes a control register by cr-index. cid is read-only and
// silently discards writes.
func (c *Core) WriteCR(idx uint32, v uint32) {
	switch idx {
	case CRPid:
		c.CR.PID = v
	case CRImr:
		c.CR.IMR = v
	case CRIsr:
		c.CR.ISR = v
	case CREpc:
		c.CR.EPC = v
	case CREfg:
		c.CR.EFG = v
	case CRKsp:
		c.CR.KSP = v
	case CRIsp:
		c.CR.ISP = v
	case CRUsp:
		c.CR.USP = v
	case CRTlb:
		c.CR.TLBVA = v
	case CRMbi:
		c.CR.MBI = v
	case CRMbo:
		c.CR.MBO = v
	case CRCdv:
		c.CR.CDV = v
	case CRFlg:
		c.CR.FLG = v
	}
}

func (c *Core) translate(va uint32, op int) (uint32, bool) {
	vpn := va >> 12
	off := va & 0xFFF
	if c.CR.PID == 0 && c.TLB.Empty() {
		return va, true
	}
	ppn, ok := c.TLB.Translate(uint8(c.CR.PID), vpn, op, c.Mode == ModeUser)
	if !ok {
		return 0, false
	}
	return ppn | off, true
}

// Translate exposes the same virtual-to-physical lookup Step uses, for
// callers outside the package that need to resolve an address without
// executing an instruction (the debugger's `x v` command).
func (c *Core) Translate(va uint32, op int) (uint32, bool) {
	return c.translate(va, op)
}

// Step executes exactly one instruction, translating and raising the
// appropriate fault, then runs the trap dispatcher if a fault or pending
// interrupt warrants it. It is the only entry point the scheduler calls.
func (c *Core) Step() {
	if c.Halted || c.Asleep {
		return
	}

	if c.dispatchInterrupt() {
		return
	}

	pa, ok := c.translate(c.PC, mmu.OpFetch)
	if !ok {
		c.raiseTLBMiss(c.PC)
		return
	}
	word := c.Bus.ReadWord(pa)

	fault := c.execute(word)
	switch fault {
	case FaultInstr:
		c.trap(VecExcInstr, ModeKernel)
	case FaultPriv:
		c.trap(VecExcPriv, ModeKernel)
	case FaultTLBUser:
		c.trap(VecTLBUMiss, ModeKernel)
	case FaultTLBKernel:
		c.trap(VecTLBKMiss, ModeKernel)
	}
}

func (c *Core) raiseTLBMiss(va uint32) {
	c.CR.TLBVA = va
	if c.Mode == ModeUser {
		c.trap(VecTLBUMiss, ModeKernel)
	} else {
		c.trap(VecTLBKMiss, ModeKernel)
	}
}

// dispatchInterrupt delivers the highest-priority pending, unmasked
// interrupt if any, and reports whether it did so (in which case the
// instruction at PC has not executed this tick).
func (c *Core) dispatchInterrupt() bool {
	if c.CR.IMR&0x80000000 == 0 {
		return false
	}
	pending := c.CR.ISR &^ c.CR.IMR
	if pending == 0 {
		return false
	}
	for bit := 0; bit < 32; bit++ {
		if pending&(1<<uint(bit)) == 0 {
			continue
		}
		if c.TraceInterrupts {
			slog.Debug("interrupt dispatch", "core", c.CR.CID, "bit", bit, "isr", c.CR.ISR, "imr", c.CR.IMR, "pc", c.PC)
		}
		c.CR.ISR &^= 1 << uint(bit)
		c.trap(VecDeviceHi+uint32(bit), ModeInterrupt)
		return true
	}
	return false
}
