/*
 * Dioptase32 - debugger REPL
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

package debugger

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/peterh/liner"
)

// dispatch executes one parsed command line and returns text to print, or
// an error. A returned quit=true ends the REPL.
func (d *Debugger) dispatch(fields []string) (out string, quit bool, err error) {
	if len(fields) == 0 {
		return "", false, nil
	}
	switch fields[0] {
	case "r", "run":
		b := d.Run()
		return b.Reason, false, nil
	case "c", "continue":
		b := d.Run()
		return b.Reason, false, nil
	case "n", "next":
		if b := d.Step(); b != nil {
			return b.Reason, false, nil
		}
		return fmt.Sprintf("pc=%#x", d.Sched.Cores[0].PC), false, nil
	case "q", "quit":
		return "", true, nil
	case "break":
		if len(fields) != 2 {
			return "", false, errors.New("usage: break <addr|label>")
		}
		return "", false, d.SetBreak(fields[1])
	case "delete":
		if len(fields) != 2 {
			return "", false, errors.New("usage: delete <addr|label>")
		}
		return "", false, d.DeleteBreak(fields[1])
	case "unwatch":
		if len(fields) != 2 {
			return "", false, errors.New("usage: unwatch <addr|label>")
		}
		return "", false, d.Unwatch(fields[1])
	case "watch":
		return "", false, dispatchWatch(d, fields[1:])
	case "info":
		return dispatchInfo(d, fields[1:])
	case "set":
		return "", false, dispatchSet(d, fields[1:])
	case "x":
		return dispatchExamine(d, fields[1:])
	default:
		return "", false, fmt.Errorf("unknown command %q", fields[0])
	}
}

func dispatchWatch(d *Debugger, args []string) error {
	kind := WatchWrite
	tok := ""
	switch len(args) {
	case 1:
		tok = args[0]
	case 2:
		switch args[0] {
		case "r":
			kind = WatchRead
		case "w":
			kind = WatchWrite
		case "rw":
			kind = WatchReadWrite
		default:
			return fmt.Errorf("unknown watch kind %q", args[0])
		}
		tok = args[1]
	default:
		return errors.New("usage: watch [r|w|rw] <addr>")
	}
	return d.SetWatch(kind, tok)
}

func dispatchInfo(d *Debugger, args []string) (string, bool, error) {
	if len(args) == 0 {
		return "", false, errors.New("usage: info {regs,cregs,<reg>,tlb,p <addr>,v <addr>}")
	}
	switch args[0] {
	case "regs":
		return d.InfoRegs(), false, nil
	case "cregs":
		return d.InfoCRegs(), false, nil
	case "tlb":
		return d.Sched.Cores[0].TLB.Dump(), false, nil
	case "p":
		if len(args) != 2 {
			return "", false, errors.New("usage: info p <addr>")
		}
		addr, err := d.resolve(args[1])
		if err != nil {
			return "", false, err
		}
		return fmt.Sprintf("%08x", d.Sched.Bus.ReadWord(addr)), false, nil
	case "v":
		if len(args) != 2 {
			return "", false, errors.New("usage: info v <addr>")
		}
		addr, err := d.resolve(args[1])
		if err != nil {
			return "", false, err
		}
		words, err := d.Examine(ExamineVirtual, addr, 1)
		if err != nil {
			return "", false, err
		}
		return fmt.Sprintf("%08x", words[0]), false, nil
	default:
		idx, err := regIndex(args[0])
		if err != nil {
			return "", false, fmt.Errorf("unknown info target %q", args[0])
		}
		return fmt.Sprintf("%08x", d.Sched.Cores[0].GetReg(idx)), false, nil
	}
}

func dispatchSet(d *Debugger, args []string) error {
	if len(args) != 3 || args[0] != "reg" {
		return errors.New("usage: set reg <reg> <value>")
	}
	v, err := strconv.ParseUint(args[2], 0, 32)
	if err != nil {
		return fmt.Errorf("invalid value %q", args[2])
	}
	return d.SetReg(args[1], uint32(v))
}

func dispatchExamine(d *Debugger, args []string) (string, bool, error) {
	kind := ExaminePhysical
	rest := args
	if len(args) > 0 && (args[0] == "v" || args[0] == "p") {
		if args[0] == "v" {
			kind = ExamineVirtual
		}
		rest = args[1:]
	}
	if len(rest) != 2 {
		return "", false, errors.New("usage: x [v|p] <addr> <len>")
	}
	addr, err := d.resolve(rest[0])
	if err != nil {
		return "", false, err
	}
	n, err := strconv.Atoi(rest[1])
	if err != nil || n <= 0 {
		return "", false, fmt.Errorf("invalid length %q", rest[1])
	}
	words, err := d.Examine(kind, addr, n)
	if err != nil {
		return "", false, err
	}
	var sb strings.Builder
	for i, w := range words {
		fmt.Fprintf(&sb, "%08x: %08x\n", addr+uint32(i)*4, w)
	}
	return sb.String(), false, nil
}

// RunREPL drives an interactive liner session until the user quits.
func RunREPL(d *Debugger) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	for {
		text, err := line.Prompt("dioptase> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				return
			}
			fmt.Println("error reading line: " + err.Error())
			return
		}
		line.AppendHistory(text)

		out, quit, err := d.dispatch(strings.Fields(text))
		if err != nil {
			fmt.Println("error: " + err.Error())
			continue
		}
		if out != "" {
			fmt.Println(out)
		}
		if quit {
			return
		}
	}
}
