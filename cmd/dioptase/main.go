/*
 * Dioptase32 - command-line front-end
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

package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"syscall"

	getopt "github.com/pborman/getopt/v2"
	"golang.org/x/term"

	"github.com/dioptase/emu32/internal/debugger"
	"github.com/dioptase/emu32/internal/device"
	"github.com/dioptase/emu32/internal/loader"
	"github.com/dioptase/emu32/internal/memory"
	"github.com/dioptase/emu32/internal/scheduler"
	"github.com/dioptase/emu32/internal/vga"
	"github.com/dioptase/emu32/util/logger"
	"github.com/dioptase/emu32/util/sdimage"
)

// busRAMSize covers every MMIO window firmware convention places above
// RAM proper (pixel/tile framebuffers, tilemap, sprite map) as ordinary
// addressable bytes; only the narrow device ports get an attached Device.
const busRAMSize = memory.SpriteMapBase + memory.SpriteMapSize

func main() {
	optRAM := getopt.StringLong("ram", 0, "", "firmware .hex image")
	optSD0 := getopt.StringLong("sd0", 0, "", "raw binary SD0 image")
	optSD1 := getopt.StringLong("sd1", 0, "", "raw binary SD1 image")
	optVGA := getopt.BoolLong("vga", 0, "open graphical framebuffer window")
	optUART := getopt.BoolLong("uart", 0, "route host keystrokes to UART RX")
	optDebug := getopt.BoolLong("debug", 0, "launch interactive REPL")
	optDMATicks := getopt.IntLong("sd-dma-ticks", 0, 1, "ticks per DMA chunk quantum")
	optCores := getopt.IntLong("cores", 0, 2, "number of cores (1..4)")
	optSchedule := getopt.StringLong("schedule", 0, "rr", "scheduling policy: free|rr|rand")
	optTraceIRQ := getopt.BoolLong("trace-interrupts", 0, "log every interrupt dispatch")
	optMaxTicks := getopt.IntLong("max-ticks", 0, 0, "stop after N scheduler passes (0 = unbounded)")
	optLog := getopt.StringLong("log", 'l', "", "log file")
	optLogDebug := getopt.BoolLong("log-debug", 0, "echo debug-level log lines to stderr")
	optHelp := getopt.BoolLong("help", 'h', "help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	args := getopt.Args()
	ramPath := *optRAM
	sd0Path, sd1Path := *optSD0, *optSD1
	if ramPath == "" && len(args) > 0 {
		ramPath = args[0]
	}
	if sd0Path == "" && len(args) > 1 {
		sd0Path = args[1]
	}
	if sd1Path == "" && len(args) > 2 {
		sd1Path = args[2]
	}

	var logFile *os.File
	if *optLog != "" {
		f, err := os.Create(*optLog)
		if err != nil {
			fmt.Fprintln(os.Stderr, "dioptase:", err)
			os.Exit(1)
		}
		logFile = f
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelDebug)
	log := slog.New(logger.NewHandler(logFile, &slog.HandlerOptions{Level: programLevel}, optLogDebug))
	slog.SetDefault(log)

	if ramPath == "" {
		fmt.Fprintln(os.Stderr, "dioptase: no firmware image given")
		os.Exit(1)
	}

	bus := memory.NewBus(busRAMSize)

	words, syms, err := loadFirmware(ramPath)
	if err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
	bus.LoadWords(words)

	uart := device.NewUART(memory.UARTTx, os.Stdout)
	ps2 := device.NewPS2(memory.PS2Data)
	pit := device.NewPIT(memory.PITInterval)
	vgaCtrl := device.NewVGACtrl(memory.VGACtrlBase)
	sd0 := device.NewSDDMA(memory.SDSlot0Base, bus, *optDMATicks, 4)
	sd1 := device.NewSDDMA(memory.SDSlot1Base, bus, *optDMATicks, 4)
	bus.Attach(uart)
	bus.Attach(ps2)
	bus.Attach(pit)
	bus.Attach(vgaCtrl)
	bus.Attach(sd0)
	bus.Attach(sd1)

	if sd0Path != "" {
		img, err := openOrCreateImage(sd0Path)
		if err != nil {
			log.Error(err.Error())
			os.Exit(1)
		}
		sd0.Image = img
		defer img.Close()
	}
	if sd1Path != "" {
		img, err := openOrCreateImage(sd1Path)
		if err != nil {
			log.Error(err.Error())
			os.Exit(1)
		}
		sd1.Image = img
		defer img.Close()
	}

	cores := *optCores
	if cores < 1 {
		cores = 1
	}
	if cores > 4 {
		cores = 4
	}
	mode, err := parseSchedule(*optSchedule)
	if err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}

	sched := scheduler.New(cores, bus, mode)
	sched.MaxTicks = *optMaxTicks
	for _, c := range sched.Cores {
		c.TraceInterrupts = *optTraceIRQ
	}

	if *optUART {
		restore, err := startRawStdin(uart)
		if err != nil {
			log.Error(err.Error())
			os.Exit(1)
		}
		defer restore()
	}

	if *optVGA {
		runWithWindow(sched, bus, vgaCtrl, log)
		return
	}

	if *optDebug {
		debugger.RunREPL(debugger.New(sched, syms))
		return
	}

	timedOut := sched.Run()
	if timedOut {
		fmt.Fprintln(os.Stderr, "dioptase: stopped after reaching --max-ticks without every core halting")
		os.Exit(1)
	}
}

func loadFirmware(path string) ([]uint32, loader.Symbols, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	words, err := loader.ParseHex(f)
	if err != nil {
		return nil, nil, err
	}

	syms := loader.Symbols{}
	debugPath := strings.TrimSuffix(path, ".hex") + ".debug"
	if df, err := os.Open(debugPath); err == nil {
		defer df.Close()
		if syms, err = loader.ParseDebug(df); err != nil {
			return nil, nil, err
		}
	}
	return words, syms, nil
}

func openOrCreateImage(path string) (*sdimage.Image, error) {
	if _, err := os.Stat(path); err == nil {
		return sdimage.Open(path)
	}
	const defaultBlocks = 1024
	return sdimage.Create(path, defaultBlocks)
}

func parseSchedule(s string) (scheduler.Mode, error) {
	switch s {
	case "free":
		return scheduler.Free, nil
	case "rr", "round-robin", "roundrobin":
		return scheduler.RoundRobin, nil
	case "rand", "random":
		return scheduler.Random, nil
	default:
		return 0, fmt.Errorf("dioptase: unknown --schedule %q", s)
	}
}

func runWithWindow(sched *scheduler.Scheduler, bus *memory.Bus, ctrl *device.VGACtrl, log *slog.Logger) {
	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
			}
			if sched.AllHalted() {
				close(stop)
				return
			}
			sched.Pass()
		}
	}()

	win := vga.NewWindow(bus, ctrl, func() {
		select {
		case <-stop:
		default:
			close(stop)
		}
	})
	if err := win.Run(); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}

func startRawStdin(uart *device.UART) (func(), error) {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("dioptase: failed to set raw stdin: %w", err)
	}
	if err := syscall.SetNonblock(fd, true); err != nil {
		_ = term.Restore(fd, oldState)
		return nil, fmt.Errorf("dioptase: failed to set stdin nonblocking: %w", err)
	}

	stop := make(chan struct{})
	go func() {
		buf := make([]byte, 1)
		for {
			select {
			case <-stop:
				return
			default:
			}
			n, err := syscall.Read(fd, buf)
			if n > 0 {
				uart.Feed(buf[0])
			}
			if err != nil && err != syscall.EAGAIN && err != syscall.EWOULDBLOCK {
				return
			}
		}
	}()

	return func() {
		close(stop)
		_ = syscall.SetNonblock(fd, false)
		_ = term.Restore(fd, oldState)
	}, nil
}
