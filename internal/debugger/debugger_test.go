package debugger

import (
	"strings"
	"testing"

	"github.com/dioptase/emu32/internal/loader"
	"github.com/dioptase/emu32/internal/memory"
	"github.com/dioptase/emu32/internal/scheduler"
)

const (
	opALU  = 0x00
	opMovi = 0x01
)

func encImm(op, rd, imm17 uint32) uint32 {
	return op<<27 | rd<<22 | imm17&0x1FFFF
}

func newSched(words []uint32) *scheduler.Scheduler {
	bus := memory.NewBus(4096)
	bus.LoadWords(words)
	return scheduler.New(1, bus, scheduler.RoundRobin)
}

func TestBreakpointStopsRun(t *testing.T) {
	s := newSched([]uint32{
		encImm(opMovi, 1, 1),
		encImm(opMovi, 1, 2),
		encImm(opMovi, 1, 3),
	})
	d := New(s, loader.Symbols{"target": 0x8})
	if err := d.SetBreak("target"); err != nil {
		t.Fatal(err)
	}
	b := d.Run()
	if b.PC != 0x8 {
		t.Errorf("stopped at pc=%#x, want 0x8", b.PC)
	}
	if s.Cores[0].GetReg(1) != 2 {
		t.Errorf("r1 = %d, want 2 (must not execute the instruction at the breakpoint)", s.Cores[0].GetReg(1))
	}
}

func TestWatchpointFiresOnWrite(t *testing.T) {
	s := newSched(nil)
	s.Bus.WriteWord(0x800, 0)
	d := New(s, nil)
	if err := d.SetWatch(WatchWrite, "0x800"); err != nil {
		t.Fatal(err)
	}
	s.Bus.WriteWord(0x800, 42)
	b := d.checkStops()
	if b == nil {
		t.Fatal("expected the watchpoint to fire")
	}
}

func TestDispatchSetRegAndInfoReg(t *testing.T) {
	s := newSched(nil)
	d := New(s, nil)
	if _, _, err := d.dispatch(strings.Fields("set reg r3 123")); err != nil {
		t.Fatal(err)
	}
	out, _, err := d.dispatch(strings.Fields("info r3"))
	if err != nil {
		t.Fatal(err)
	}
	if out != "0000007b" {
		t.Errorf("info r3 = %q, want 0000007b", out)
	}
}

func TestDispatchXExaminesPhysicalMemory(t *testing.T) {
	s := newSched([]uint32{0xDEADBEEF})
	d := New(s, nil)
	out, _, err := d.dispatch(strings.Fields("x p 0 1"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "deadbeef") {
		t.Errorf("x p 0 1 = %q, want it to contain deadbeef", out)
	}
}

func TestDispatchQuit(t *testing.T) {
	s := newSched(nil)
	d := New(s, nil)
	_, quit, err := d.dispatch(strings.Fields("q"))
	if err != nil {
		t.Fatal(err)
	}
	if !quit {
		t.Error("expected q to request quit")
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	s := newSched(nil)
	d := New(s, nil)
	_, _, err := d.dispatch(strings.Fields("frobnicate"))
	if err == nil {
		t.Error("expected an error for an unknown command")
	}
}
