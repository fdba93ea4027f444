/*
 * Dioptase32 - physical memory and MMIO bus
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

// Package memory implements the flat 32-bit physical address space routed
// to RAM or to one of the attached MMIO devices, with byte/halfword/word
// access and little-endian multi-byte layout.
package memory

import "github.com/dioptase/emu32/internal/device"

// Bus is the physical memory + MMIO fabric shared by every core and device.
// There is exactly one Bus per emulator instance; cores reference it by
// pointer rather than owning it, mirroring the shared-arena design the
// cyclic core/memory/device graph calls for.
type Bus struct {
	ram     []byte
	devices []device.Device
}

// NewBus allocates RAM sized to size bytes (rounded down to a multiple of
// 4) and an empty device list.
func NewBus(size uint32) *Bus {
	return &Bus{ram: make([]byte, size&^3)}
}

// Attach registers a device at its own Base()/Size() window. Overlapping
// windows are not validated; firmware convention keeps them disjoint.
func (b *Bus) Attach(d device.Device) {
	b.devices = append(b.devices, d)
}

// Devices returns the attached device list, for callers that need to
// iterate the devices directly rather than through SampleInterrupts or
// TickDevices.
func (b *Bus) Devices() []device.Device { return b.devices }

// LoadWords writes words (little-endian) into RAM starting at physical 0,
// the layout the hex loader and fixture tests use.
func (b *Bus) LoadWords(words []uint32) {
	for i, w := range words {
		addr := uint32(i) * 4
		if int(addr)+4 > len(b.ram) {
			return
		}
		b.ram[addr] = byte(w)
		b.ram[addr+1] = byte(w >> 8)
		b.ram[addr+2] = byte(w >> 16)
		b.ram[addr+3] = byte(w >> 24)
	}
}

// deviceFor returns the device whose window contains addr, or nil if addr
// falls in RAM or in no window at all.
func (b *Bus) deviceFor(addr uint32) device.Device {
	for _, d := range b.devices {
		base := d.Base()
		if addr >= base && addr < base+d.Size() {
			return d
		}
	}
	return nil
}

func (b *Bus) ReadByte(addr uint32) uint8 {
	if d := b.deviceFor(addr); d != nil {
		return d.ReadByte(addr - d.Base())
	}
	if int(addr) < len(b.ram) {
		return b.ram[addr]
	}
	return 0
}

func (b *Bus) WriteByte(addr uint32, v uint8) {
	if d := b.deviceFor(addr); d != nil {
		d.WriteByte(addr-d.Base(), v)
		return
	}
	if int(addr) < len(b.ram) {
		b.ram[addr] = v
	}
}

func (b *Bus) ReadHalf(addr uint32) uint16 {
	if d := b.deviceFor(addr); d != nil {
		return d.ReadHalf(addr - d.Base())
	}
	return uint16(b.ReadByte(addr)) | uint16(b.ReadByte(addr+1))<<8
}

func (b *Bus) WriteHalf(addr uint32, v uint16) {
	if d := b.deviceFor(addr); d != nil {
		d.WriteHalf(addr-d.Base(), v)
		return
	}
	b.WriteByte(addr, uint8(v))
	b.WriteByte(addr+1, uint8(v>>8))
}

func (b *Bus) ReadWord(addr uint32) uint32 {
	if d := b.deviceFor(addr); d != nil {
		return d.ReadWord(addr - d.Base())
	}
	return uint32(b.ReadByte(addr)) | uint32(b.ReadByte(addr+1))<<8 |
		uint32(b.ReadByte(addr+2))<<16 | uint32(b.ReadByte(addr+3))<<24
}

func (b *Bus) WriteWord(addr uint32, v uint32) {
	if d := b.deviceFor(addr); d != nil {
		d.WriteWord(addr-d.Base(), v)
		return
	}
	b.WriteByte(addr, uint8(v))
	b.WriteByte(addr+1, uint8(v>>8))
	b.WriteByte(addr+2, uint8(v>>16))
	b.WriteByte(addr+3, uint8(v>>24))
}

// AtomicAdd performs the RMW fada needs. The bus has no internal locking:
// a single core ticks at a time, so the read and write in this call can
// never interleave with another core's access.
func (b *Bus) AtomicAdd(addr uint32, delta uint32) uint32 {
	prev := b.ReadWord(addr)
	b.WriteWord(addr, prev+delta)
	return prev
}

// SampleInterrupts polls every attached device that implements
// InterruptSource and ORs the asserted bits together. Called once per
// scheduler pass; the result is ORed into every core's isr.
func (b *Bus) SampleInterrupts() uint32 {
	var bits uint32
	for _, d := range b.devices {
		if src, ok := d.(device.InterruptSource); ok {
			bits |= src.Pending()
		}
	}
	return bits
}

// TickDevices advances every attached Ticker device by one quantum. Called
// once per core tick, so time-based devices (the PIT, the SD DMA engine)
// make progress independent of whether anyone polls their registers.
func (b *Bus) TickDevices() {
	for _, d := range b.devices {
		if t, ok := d.(device.Ticker); ok {
			t.Tick()
		}
	}
}
