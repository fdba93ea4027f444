/*
 * Dioptase32 - MMIO device interface
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

// Package device defines the MMIO device contract shared by the UART, PS/2,
// PIT, VGA control ports, and SD DMA engine, and the bit
// assignments devices use to raise interrupts.
package device

// Interrupt source bits. Bit k routes through IVT slot 0xF0+k (see
// internal/cpu's trap dispatcher), matching the reserved vectors named in
// the physical address map.
const (
	IRQPIT  uint32 = 1 << 0 // 0xF0
	IRQKbd  uint32 = 1 << 1 // 0xF1
	IRQUart uint32 = 1 << 2 // 0xF2
	IRQSD   uint32 = 1 << 3 // 0xF3
	IRQVGA  uint32 = 1 << 4 // 0xF4
	IRQIPI  uint32 = 1 << 5 // 0xF5
)

// Device is a memory-mapped peripheral addressed by an offset relative to
// its own base. The bus decomposes byte/halfword/word accesses and routes
// them here; a device that doesn't implement a given width composes it
// from ReadByte/WriteByte.
type Device interface {
	// Base returns the device's physical base address.
	Base() uint32
	// Size returns the size in bytes of the device's address window.
	Size() uint32
	ReadByte(offset uint32) uint8
	WriteByte(offset uint32, value uint8)
	ReadHalf(offset uint32) uint16
	WriteHalf(offset uint32, value uint16)
	ReadWord(offset uint32) uint32
	WriteWord(offset uint32, value uint32)
}

// InterruptSource is implemented by devices that can assert an isr bit.
// Bus.SampleInterrupts polls every registered source once per scheduler
// pass and ORs the result into every core's isr. The UART, PS/2 and VGA
// lines stay asserted until the device is drained or the frame consumed;
// the PIT and SD DMA engine report each fire or completion once, clearing
// on the Pending call that observes it.
type InterruptSource interface {
	Pending() uint32
}

// Ticker is implemented by devices with time-based behavior that must
// advance once per core tick regardless of MMIO traffic (the PIT, the SD
// DMA engine).
type Ticker interface {
	Tick()
}

// Base can be embedded to supply Base and Size from a fixed window. It
// supplies no data-access methods; each device implements its own
// byte/halfword/word access.
type Base struct {
	BaseAddr uint32
	SizeOf   uint32
}

func (b *Base) Base() uint32 { return b.BaseAddr }
func (b *Base) Size() uint32 { return b.SizeOf }
