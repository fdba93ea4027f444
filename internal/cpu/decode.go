package cpu

import "github.com/dioptase/emu32/internal/mmu"

// Opcode families (bits[31:27] of the instruction word). This numbering,
// and the field layouts decoded per case in execute below, are this
// implementation's own encoding choice — the ISA is defined by mnemonic
// and semantics, not by wire format; see DESIGN.md.
const (
	opALU     = 0x00
	opMovi    = 0x01
	opAdpc    = 0x02
	opCRMv    = 0x03
	opLSW     = 0x04
	opLSWA    = 0x05
	opLSBA    = 0x06
	opLSDA    = 0x07
	opFADA    = 0x08
	opCallRet = 0x09
	opPushPop = 0x0A
	opMisc    = 0x0B
	opBranch0 = 0x0C // 0x0C..0x19 inclusive: 14 condition codes
	opSys     = 0x1D
	opIPIMode = 0x1E
	opPriv    = 0x1F
)

// R-type func field (bits[11:7]) values for opALU. 0..8 map 1:1 onto the
// Alu* selectors in alu.go; funcMov is handled here rather than in
// Compute, since a plain move touches no flags.
const funcMov = 9

func signExt(v uint32, bits uint) uint32 {
	shift := 32 - bits
	return uint32(int32(v<<shift) >> shift)
}

func fieldOp(w uint32) uint32  { return w >> 27 & 0x1F }
func fieldRd(w uint32) uint32  { return w >> 22 & 0x1F }
func fieldRa(w uint32) uint32  { return w >> 17 & 0x1F }
func fieldRb(w uint32) uint32  { return w >> 12 & 0x1F }
func fieldFn(w uint32) uint32  { return w >> 7 & 0x1F }
func fieldSub(w uint32) uint32 { return w >> 22 & 0x1F } // subop reuses the rd slot for family dispatch

// execute decodes and runs one instruction, returning the fault it raised
// (FaultNone if it completed). PC advancement is the caller's job only in
// the sense that every non-branching op below advances PC itself before
// returning, keeping control flow (branch/call/ret/rfe/...) uniform: they
// set PC to their own target instead.
func (c *Core) execute(w uint32) Fault {
	op := fieldOp(w)
	next := c.PC + 4

	switch op {
	case opALU:
		rd, ra, rb, fn := fieldRd(w), fieldRa(w), fieldRb(w), fieldFn(w)
		a, b := c.GetReg(ra), c.GetReg(rb)
		if fn == funcMov {
			c.SetReg(rd, b)
		} else if fn <= AluRotr {
			result, flags := Compute(int(fn), a, b)
			c.CR.FLG = flags
			if fn != AluCmp {
				c.SetReg(rd, result)
			}
		} else {
			return FaultInstr
		}
		c.PC = next

	case opMovi:
		rd := fieldRd(w)
		imm := signExt(w&0x1FFFF, 17)
		c.SetReg(rd, imm)
		c.PC = next

	case opAdpc:
		rd := fieldRd(w)
		disp := signExt(w&0x1FFFF, 17)
		c.SetReg(rd, c.PC+disp*4)
		c.PC = next

	case opCRMv:
		if c.Mode == ModeUser {
			return FaultPriv
		}
		toCR := w>>12&1 == 0
		if toCR {
			crIdx, rs := fieldRd(w), fieldRa(w)
			c.WriteCR(crIdx, c.GetReg(rs))
		} else {
			rd, crIdx := fieldRd(w), fieldRa(w)
			c.SetReg(rd, c.ReadCR(crIdx))
		}
		c.PC = next

	case opLSW:
		rd := fieldRd(w)
		dir := w >> 21 & 1
		disp := signExt(w&0x1FFFFF, 21)
		addr := c.PC + disp
		return c.memAccess32(rd, addr, dir == 1, next)

	case opLSWA:
		rd, rb := fieldRd(w), fieldRa(w)
		dir := w >> 16 & 1
		disp := signExt(w&0xFFFF, 16)
		addr := c.GetReg(rb) + disp
		return c.memAccess32(rd, addr, dir == 1, next)

	case opLSBA:
		rd, rb := fieldRd(w), fieldRa(w)
		dir := w >> 16 & 1
		disp := signExt(w&0xFFFF, 16)
		addr := c.GetReg(rb) + disp
		return c.memAccessByte(rd, addr, dir == 1, next)

	case opLSDA:
		rd, rb := fieldRd(w), fieldRa(w)
		dir := w >> 16 & 1
		disp := signExt(w&0xFFFF, 16)
		addr := c.GetReg(rb) + disp
		return c.memAccessHalf(rd, addr, dir == 1, next)

	case opFADA:
		rd, rv, ra := fieldRd(w), fieldRa(w), fieldRb(w)
		disp := signExt(w&0xFFF, 12)
		addr := c.GetReg(ra) + disp
		pa, ok := c.translate(addr, mmu.OpWrite)
		if !ok {
			c.raiseTLBMiss(addr)
			return FaultNone
		}
		prev := c.Bus.AtomicAdd(pa, c.GetReg(rv))
		c.SetReg(rd, prev)
		c.PC = next

	case opCallRet:
		sub := fieldSub(w)
		if sub == 0 {
			disp := signExt(w&0x3FFFFF, 22)
			sp := c.GetReg(31) - 4
			pa, ok := c.translate(sp, mmu.OpWrite)
			if !ok {
				c.raiseTLBMiss(sp)
				return FaultNone
			}
			c.Bus.WriteWord(pa, next)
			c.SetReg(31, sp)
			c.PC = c.PC + disp*4
		} else {
			sp := c.GetReg(31)
			pa, ok := c.translate(sp, mmu.OpRead)
			if !ok {
				c.raiseTLBMiss(sp)
				return FaultNone
			}
			c.PC = c.Bus.ReadWord(pa)
			c.SetReg(31, sp+4)
		}

	case opPushPop:
		sub, rx := fieldSub(w), fieldRa(w)
		if sub == 0 {
			sp := c.GetReg(31) - 4
			pa, ok := c.translate(sp, mmu.OpWrite)
			if !ok {
				c.raiseTLBMiss(sp)
				return FaultNone
			}
			c.Bus.WriteWord(pa, c.GetReg(rx))
			c.SetReg(31, sp)
		} else {
			sp := c.GetReg(31)
			pa, ok := c.translate(sp, mmu.OpRead)
			if !ok {
				c.raiseTLBMiss(sp)
				return FaultNone
			}
			c.SetReg(rx, c.Bus.ReadWord(pa))
			c.SetReg(31, sp+4)
		}
		c.PC = next

	case opMisc:
		sub := fieldSub(w)
		switch sub {
		case 0: // nop
			c.PC = next
		case 1: // br
			disp := signExt(w&0x3FFFFF, 22)
			c.PC = c.PC + disp*4
		case 2: // jmp
			rx := fieldRa(w)
			c.PC = c.GetReg(rx)
		default:
			return FaultInstr
		}

	case opSys:
		vec := w & 0xFF
		c.PC = next
		c.trap(vec, ModeKernel)

	case opIPIMode:
		if c.Mode == ModeUser {
			return FaultPriv
		}
		sub := fieldSub(w)
		if sub == 0 {
			rt := fieldRa(w)
			target := c.GetReg(rt)
			if c.SendIPI != nil {
				c.SendIPI(target, c.CR.MBO)
			}
			c.PC = next
		} else {
			modeSub := w >> 12 & 0x1F
			if modeSub == 0 {
				c.Halted = true
			} else {
				c.Asleep = true
			}
			c.PC = next
		}

	default:
		if op >= opBranch0 && op < opBranch0+condCount {
			cc := int(op - opBranch0)
			disp := signExt(w&0x3FFFFF, 22)
			if EvalCond(cc, c.CR.FLG) {
				c.PC = c.PC + disp*4
			} else {
				c.PC = next
			}
			return FaultNone
		}
		if op == opPriv {
			return c.executePriv(w, next)
		}
		return FaultInstr
	}
	return FaultNone
}

func (c *Core) executePriv(w, next uint32) Fault {
	if c.Mode == ModeUser {
		return FaultPriv
	}
	sub := w >> 12 & 0x1F
	re, rv := fieldRd(w), fieldRa(w)
	switch sub {
	case 0: // tlbw
		vpn := c.GetReg(re) >> 12
		c.TLB.Write(uint8(c.CR.PID), vpn, c.GetReg(rv))
		c.PC = next
	case 1: // tlbr
		vpn := c.GetReg(re) >> 12
		word, _ := c.TLB.Read(uint8(c.CR.PID), vpn)
		c.SetReg(rv, word)
		c.PC = next
	case 2: // tlbc
		c.TLB.Clear()
		c.PC = next
	case 3: // rfe
		c.ReturnFromException()
	case 4: // rfi
		c.ReturnFromInterrupt()
	case 5: // rft
		c.ReturnFromTrap()
	default:
		return FaultInstr
	}
	return FaultNone
}

func (c *Core) memAccess32(rd, addr uint32, isStore bool, next uint32) Fault {
	op := mmu.OpRead
	if isStore {
		op = mmu.OpWrite
	}
	pa, ok := c.translate(addr, op)
	if !ok {
		c.raiseTLBMiss(addr)
		return FaultNone
	}
	if isStore {
		c.Bus.WriteWord(pa, c.GetReg(rd))
	} else {
		c.SetReg(rd, c.Bus.ReadWord(pa))
	}
	c.PC = next
	return FaultNone
}

func (c *Core) memAccessHalf(rd, addr uint32, isStore bool, next uint32) Fault {
	op := mmu.OpRead
	if isStore {
		op = mmu.OpWrite
	}
	pa, ok := c.translate(addr, op)
	if !ok {
		c.raiseTLBMiss(addr)
		return FaultNone
	}
	if isStore {
		c.Bus.WriteHalf(pa, uint16(c.GetReg(rd)))
	} else {
		c.SetReg(rd, uint32(c.Bus.ReadHalf(pa)))
	}
	c.PC = next
	return FaultNone
}

func (c *Core) memAccessByte(rd, addr uint32, isStore bool, next uint32) Fault {
	op := mmu.OpRead
	if isStore {
		op = mmu.OpWrite
	}
	pa, ok := c.translate(addr, op)
	if !ok {
		c.raiseTLBMiss(addr)
		return FaultNone
	}
	if isStore {
		c.Bus.WriteByte(pa, uint8(c.GetReg(rd)))
	} else {
		c.SetReg(rd, uint32(c.Bus.ReadByte(pa)))
	}
	c.PC = next
	return FaultNone
}
