package scheduler

import (
	"path/filepath"
	"testing"

	"github.com/dioptase/emu32/internal/cpu"
	"github.com/dioptase/emu32/internal/device"
	"github.com/dioptase/emu32/internal/memory"
	"github.com/dioptase/emu32/util/sdimage"
)

const (
	opALU     = 0x00
	opMovi    = 0x01
	opCRMv    = 0x03
	opLSWA    = 0x05
	opFADA    = 0x08
	opBranch0 = 0x0C
	opMisc    = 0x0B
	opIPIMode = 0x1E
)

const crMbo = 10

func encImm(op, rd, imm17 uint32) uint32 {
	return op<<27 | rd<<22 | imm17&0x1FFFF
}

func encCRMvToCR(cr, rs uint32) uint32 {
	return opCRMv<<27 | cr<<22 | rs<<17
}

func encIPI(rt uint32) uint32 {
	return opIPIMode << 27 | 0<<22 | rt<<17
}

func encSleep() uint32 {
	return opIPIMode<<27 | 1<<22 | 1<<12
}

func encHalt() uint32 {
	return opIPIMode<<27 | 1<<22 | 0<<12
}

func encFADA(rd, rv, ra, disp12 uint32) uint32 {
	return opFADA<<27 | rd<<22 | rv<<17 | ra<<12 | disp12&0xFFF
}

func encLSWA(dir, rd, rb, disp16 uint32) uint32 {
	return opLSWA<<27 | rd<<22 | rb<<17 | dir<<16 | disp16&0xFFFF
}

func encR(op, rd, ra, rb, fn uint32) uint32 {
	return op<<27 | rd<<22 | ra<<17 | rb<<12 | fn<<7
}

func encBranch(cc, disp22 uint32) uint32 {
	return (opBranch0+cc)<<27 | disp22&0x3FFFFF
}

func encBr(disp22 uint32) uint32 {
	return opMisc<<27 | 1<<22 | disp22&0x3FFFFF
}

// loadConst32 returns the movi/lsl/movi/or sequence that assembles an
// arbitrary 32-bit constant into rd, since movi's immediate is only 17
// bits. shiftReg must already hold 16; tmp is clobbered.
func loadConst32(rd, tmp, shiftReg, value uint32) []uint32 {
	hi, lo := value>>16, value&0xFFFF
	return []uint32{
		encImm(opMovi, rd, hi),
		encR(opALU, rd, rd, shiftReg, uint32(cpu.AluLsl)),
		encImm(opMovi, tmp, lo),
		encR(opALU, rd, rd, tmp, uint32(cpu.AluOr)),
	}
}

func TestRoundRobinAdvancesEachCoreOncePerPass(t *testing.T) {
	bus := memory.NewBus(4096)
	s := New(2, bus, RoundRobin)

	bus.LoadWords([]uint32{encImm(opMovi, 1, 5)}) // core 0's program at 0x0
	bus.WriteWord(0x100, encImm(opMovi, 1, 7))     // core 1's program at 0x100
	s.Cores[1].PC = 0x100

	s.Pass()

	if s.Cores[0].GetReg(1) != 5 {
		t.Errorf("core0 r1 = %d, want 5", s.Cores[0].GetReg(1))
	}
	if s.Cores[1].GetReg(1) != 7 {
		t.Errorf("core1 r1 = %d, want 7", s.Cores[1].GetReg(1))
	}
}

func TestIPIWakesSleepingCoreAndDeliversMailbox(t *testing.T) {
	bus := memory.NewBus(4096)
	s := New(2, bus, RoundRobin)

	prog0 := []uint32{
		encImm(opMovi, 1, 1),       // r1 = target cid
		encImm(opMovi, 2, 0x1234), // r2 = payload
		encCRMvToCR(crMbo, 2),     // mbo = r2
		encIPI(1),                 // ipi r1
	}
	bus.LoadWords(prog0)

	bus.WriteWord(0x100, encSleep())
	bus.WriteWord(0x104, encImm(opMovi, 5, 99))
	s.Cores[1].PC = 0x100

	for i := 0; i < 4; i++ {
		s.Pass()
	}

	if !s.Cores[1].Asleep && s.Cores[1].GetReg(5) != 99 {
		t.Errorf("core1 r5 = %d, want 99 after waking", s.Cores[1].GetReg(5))
	}
	if s.Cores[1].CR.MBI != 0x1234 {
		t.Errorf("core1 mbi = %#x, want 0x1234", s.Cores[1].CR.MBI)
	}
	if s.Cores[1].CR.ISR&device.IRQIPI == 0 {
		t.Error("expected the IPI isr bit set on the target core")
	}
}

func TestHaltedCoreIsPermanentlyInert(t *testing.T) {
	bus := memory.NewBus(4096)
	s := New(1, bus, RoundRobin)

	bus.LoadWords([]uint32{
		encImm(opMovi, 1, 1),
		encHalt(),
		encImm(opMovi, 1, 2), // must never execute
	})

	for i := 0; i < 5; i++ {
		s.Pass()
	}

	if !s.Cores[0].Halted {
		t.Fatal("expected the core to be halted")
	}
	if s.Cores[0].GetReg(1) != 1 {
		t.Errorf("r1 = %d, want 1 (halt must stop execution before the next instruction)", s.Cores[0].GetReg(1))
	}
}

func TestAllHaltedStopsRun(t *testing.T) {
	bus := memory.NewBus(4096)
	s := New(1, bus, RoundRobin)
	bus.LoadWords([]uint32{encHalt()})

	timedOut := s.Run()
	if timedOut {
		t.Error("did not expect a timeout")
	}
	if !s.AllHalted() {
		t.Error("expected the run to stop once the only core halted")
	}
}

func TestRunRespectsMaxTicks(t *testing.T) {
	bus := memory.NewBus(4096)
	s := New(1, bus, RoundRobin)
	s.MaxTicks = 3
	bus.LoadWords([]uint32{
		encImm(opMovi, 1, 1),
		encImm(opMovi, 1, 2),
		encImm(opMovi, 1, 3),
		encImm(opMovi, 1, 4),
	})

	timedOut := s.Run()
	if !timedOut {
		t.Error("expected a timeout since the core never halts")
	}
}

// TestCrossCoreAtomicAddIsInterleaveSafe hand-assembles the two-core
// fetch-and-add fixture: core0 and core1 each atomically add 1 to the
// same shared word, then core0 reads it back. Regardless of which core's
// fada lands first, the read must observe both additions.
func TestCrossCoreAtomicAddIsInterleaveSafe(t *testing.T) {
	bus := memory.NewBus(0x2000)
	s := New(2, bus, RoundRobin)
	const sharedAddr = 0x1000

	prog0 := []uint32{
		encImm(opMovi, 2, sharedAddr),
		encImm(opMovi, 3, 1),
		encFADA(8, 3, 2, 0), // fada r8, r3, [r2+0] (prev discarded)
		encLSWA(0, 1, 2, 0), // r1 <- mem[r2+0], the value both cores' adds produced
		encHalt(),
	}
	bus.LoadWords(prog0)

	prog1 := []uint32{
		encImm(opMovi, 2, sharedAddr),
		encImm(opMovi, 3, 1),
		encFADA(8, 3, 2, 0),
		encHalt(),
	}
	for i, w := range prog1 {
		bus.WriteWord(0x100+uint32(i)*4, w)
	}
	s.Cores[1].PC = 0x100

	for i := 0; i < 5; i++ {
		s.Pass()
	}

	if got := s.Cores[0].GetReg(1); got != 2 {
		t.Errorf("core0 r1 = %d, want 2 (both cores' atomic adds must be visible)", got)
	}
	if got := bus.ReadWord(sharedAddr); got != 2 {
		t.Errorf("mem[%#x] = %d, want 2", sharedAddr, got)
	}
}

// TestSDCardRoundTripFixture hand-assembles the SD-card round-trip
// fixture: a core drives the DMA slot to write a two-word pattern from
// RAM to SD block 3, then reads the same block back to a different RAM
// address, and compares the two halves.
func TestSDCardRoundTripFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.img")
	img, err := sdimage.Create(path, 8)
	if err != nil {
		t.Fatal(err)
	}
	defer img.Close()

	bus := memory.NewBus(0x4000)
	dma := device.NewSDDMA(memory.SDSlot1Base, bus, 1, sdimage.BlockSize)
	dma.Image = img
	bus.Attach(dma)

	const (
		srcAddr = 0x2000
		dstAddr = 0x3000
		patLo   = 0xA1B2C3D4
		patHi   = 0x55667788
	)

	var prog []uint32
	prog = append(prog, encImm(opMovi, 20, 16)) // r20 = 16, shared shift amount
	prog = append(prog, loadConst32(1, 21, 20, patLo)...)
	prog = append(prog, loadConst32(2, 21, 20, patHi)...)
	prog = append(prog, encImm(opMovi, 3, srcAddr))
	prog = append(prog, encLSWA(1, 1, 3, 0)) // mem[srcAddr+0]   = patLo
	prog = append(prog, encLSWA(1, 2, 3, 4)) // mem[srcAddr+4]   = patHi

	prog = append(prog, loadConst32(4, 21, 20, memory.SDSlot1Base)...)
	prog = append(prog, encLSWA(1, 3, 4, 0x0)) // MEM_ADDR = srcAddr
	prog = append(prog, encImm(opMovi, 6, 3))
	prog = append(prog, encLSWA(1, 6, 4, 0x4)) // SD_BLOCK = 3
	prog = append(prog, encImm(opMovi, 7, 8))
	prog = append(prog, encLSWA(1, 7, 4, 0x8)) // LEN = 8 bytes
	prog = append(prog, encImm(opMovi, 10, 1)) // r10 = busy-bit mask
	prog = append(prog, encImm(opMovi, 8, device.SDCmdWriteToSD))
	prog = append(prog, encLSWA(1, 8, 4, 0xC)) // CMD = WriteToSD, starts the transfer

	writePoll := len(prog)
	prog = append(prog, encLSWA(0, 9, 4, 0xC))       // r9 <- status
	prog = append(prog, encR(opALU, 11, 9, 10, uint32(cpu.AluAnd)))
	prog = append(prog, encBranch(uint32(cpu.CondNZ), uint32(writePoll-len(prog)))) // loop while busy

	prog = append(prog, encImm(opMovi, 12, dstAddr))
	prog = append(prog, encLSWA(1, 12, 4, 0x0)) // MEM_ADDR = dstAddr
	prog = append(prog, encLSWA(1, 6, 4, 0x4))  // SD_BLOCK = 3 (unchanged)
	prog = append(prog, encLSWA(1, 7, 4, 0x8))  // LEN = 8 (unchanged)
	prog = append(prog, encImm(opMovi, 8, device.SDCmdReadToRAM))
	prog = append(prog, encLSWA(1, 8, 4, 0xC)) // CMD = ReadToRAM, starts the transfer back

	readPoll := len(prog)
	prog = append(prog, encLSWA(0, 9, 4, 0xC))
	prog = append(prog, encR(opALU, 11, 9, 10, uint32(cpu.AluAnd)))
	prog = append(prog, encBranch(uint32(cpu.CondNZ), uint32(readPoll-len(prog))))

	prog = append(prog, encLSWA(0, 13, 3, 0))                        // r13 <- mem[srcAddr+0]
	prog = append(prog, encLSWA(0, 14, 12, 0))                       // r14 <- mem[dstAddr+0]
	prog = append(prog, encR(opALU, 17, 13, 14, uint32(cpu.AluXor))) // r17 = r13 ^ r14
	prog = append(prog, encLSWA(0, 15, 3, 4))                        // r15 <- mem[srcAddr+4]
	prog = append(prog, encLSWA(0, 16, 12, 4))                       // r16 <- mem[dstAddr+4]
	prog = append(prog, encR(opALU, 18, 15, 16, uint32(cpu.AluXor))) // r18 = r15 ^ r16
	prog = append(prog, encR(opALU, 19, 17, 18, uint32(cpu.AluOr)))  // r19 = r17 | r18, Z set iff both words matched
	prog = append(prog, encImm(opMovi, 1, 0))                        // r1 = 0 (match)
	prog = append(prog, encBranch(uint32(cpu.CondZ), 2))             // skip the mismatch override
	prog = append(prog, encImm(opMovi, 1, 1))                        // r1 = 1 (mismatch)
	prog = append(prog, encHalt())

	bus.LoadWords(prog)
	s := New(1, bus, RoundRobin)
	s.Cores[0].PC = 0

	for i := 0; i < 200 && !s.Cores[0].Halted; i++ {
		s.Pass()
	}
	if !s.Cores[0].Halted {
		t.Fatal("SD round-trip program did not halt")
	}
	if got := s.Cores[0].GetReg(1); got != 0 {
		t.Errorf("r1 = %d, want 0 (the round-tripped block must match the original pattern)", got)
	}
}

func TestDeviceInterruptBroadcastsToAllCores(t *testing.T) {
	bus := memory.NewBus(4096)
	pit := device.NewPIT(0x300)
	bus.Attach(pit)
	pit.WriteWord(0, 1)

	s := New(2, bus, RoundRobin)
	bus.LoadWords([]uint32{encImm(opMovi, 1, 1)})
	bus.WriteWord(0x100, encImm(opMovi, 1, 1))
	s.Cores[1].PC = 0x100

	s.Pass()

	for _, c := range s.Cores {
		if c.CR.ISR&device.IRQPIT == 0 {
			t.Errorf("core %d isr = %#x, want IRQPIT set", c.CR.CID, c.CR.ISR)
		}
	}
}
