/*
 * Dioptase32 - physical address map
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

package memory

// Firmware-convention physical address map.
const (
	RAMEnd uint32 = 0x00200000

	VGAPixelFB   uint32 = 0x07FC0000
	VGAPixelEnd  uint32 = 0x07FDFFFF
	VGATileFB    uint32 = 0x07FBD000
	VGATileSize  uint32 = 0x4000 // tile framebuffer window

	PS2Data uint32 = 0x07FE5800

	UARTTx uint32 = 0x07FE5802
	UARTRx uint32 = 0x07FE5803

	PITInterval uint32 = 0x07FE5804

	SDSlot0Base uint32 = 0x07FE5810
	SDSlot0End  uint32 = 0x07FE5820
	SDSlot1Base uint32 = 0x07FE5908
	SDSlot1End  uint32 = 0x07FE5918

	VGACtrlBase uint32 = 0x07FE5B40
	VGACtrlEnd  uint32 = 0x07FE5B4F

	TilemapBase uint32 = 0x07FE8000
	TilemapSize uint32 = 0x8000

	SpriteMapBase uint32 = 0x07FF0000
	SpriteMapSize uint32 = 0x1000

	// IVT: 256 word slots at physical 0.
	IVTBase uint32 = 0x00000000
	IVTSize uint32 = 0x400
)
