/*
 * Dioptase32 - firmware image loader
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

// Package loader reads firmware images and the adjacent debug-label files
// the debugger resolves symbols against.
package loader

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// LoadError reports a malformed image or a file I/O failure.
type LoadError struct {
	Line int
	Msg  string
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("loader: line %d: %s", e.Line, e.Msg)
	}
	return fmt.Sprintf("loader: %s", e.Msg)
}

// ParseHex reads whitespace-separated 32-bit little-endian hex words, one
// or more per line. '#' and ';' begin a comment that runs to end of line.
// Missing trailing words are not implied; the caller decides how much RAM
// to zero beyond the returned slice.
func ParseHex(r io.Reader) ([]uint32, error) {
	var words []uint32
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := stripComment(scanner.Text())
		for _, tok := range strings.Fields(line) {
			v, err := strconv.ParseUint(tok, 16, 32)
			if err != nil {
				return nil, &LoadError{Line: lineNo, Msg: fmt.Sprintf("malformed hex word %q", tok)}
			}
			words = append(words, uint32(v))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &LoadError{Msg: err.Error()}
	}
	return words, nil
}

func stripComment(line string) string {
	if i := strings.IndexAny(line, "#;"); i >= 0 {
		return line[:i]
	}
	return line
}

// Symbols maps a label to its physical address, as produced by a .debug
// file adjacent to a .hex image.
type Symbols map[string]uint32

// ParseDebug reads "<label> <hex-address>" pairs, one per line. Comment
// and blank-line rules match ParseHex.
func ParseDebug(r io.Reader) (Symbols, error) {
	syms := Symbols{}
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(stripComment(scanner.Text()))
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, &LoadError{Line: lineNo, Msg: fmt.Sprintf("expected \"label address\", got %q", line)}
		}
		addr, err := strconv.ParseUint(fields[1], 16, 32)
		if err != nil {
			return nil, &LoadError{Line: lineNo, Msg: fmt.Sprintf("malformed address %q", fields[1])}
		}
		syms[fields[0]] = uint32(addr)
	}
	if err := scanner.Err(); err != nil {
		return nil, &LoadError{Msg: err.Error()}
	}
	return syms, nil
}

// Resolve looks up a label, or parses tok as a bare hex address if it
// isn't a known label (the debugger accepts either where an address is
// expected).
func (s Symbols) Resolve(tok string) (uint32, bool) {
	if addr, ok := s[tok]; ok {
		return addr, true
	}
	v, err := strconv.ParseUint(strings.TrimPrefix(tok, "0x"), 16, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}
