/*
 * Dioptase32 - VGA framebuffer window
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

// Package vga renders the RGB332 pixel framebuffer to a window via ebiten.
// It is a pure blit sink: the bus remains the source of truth for
// framebuffer bytes, and this package only ever reads them.
package vga

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/dioptase/emu32/internal/device"
	"github.com/dioptase/emu32/internal/memory"
)

const (
	Width  = 512
	Height = 256
)

// rgb332Palette expands an 8-bit rrrgggbb index to 24-bit RGB.
var rgb332Palette [256][3]byte

func init() {
	for i := 0; i < 256; i++ {
		r := (i >> 5) & 0x7
		g := (i >> 2) & 0x7
		b := i & 0x3
		rgb332Palette[i] = [3]byte{
			byte(r * 255 / 7),
			byte(g * 255 / 7),
			byte(b * 255 / 3),
		}
	}
}

// Window is an ebiten.Game that blits the bus's pixel framebuffer once per
// rendered frame and clears the VGA controller's frame-ready interrupt once
// consumed.
type Window struct {
	Bus   *memory.Bus
	Ctrl  *device.VGACtrl
	Title string

	img       *ebiten.Image
	rgba      []byte
	closeFunc func()
}

// NewWindow builds a window bound to bus and ctrl. onClose, if non-nil, is
// invoked when the host window is closed so the caller can stop the
// scheduler loop.
func NewWindow(bus *memory.Bus, ctrl *device.VGACtrl, onClose func()) *Window {
	return &Window{
		Bus:       bus,
		Ctrl:      ctrl,
		Title:     "dioptase32",
		rgba:      make([]byte, Width*Height*4),
		closeFunc: onClose,
	}
}

func (w *Window) Update() error {
	if ebiten.IsWindowBeingClosed() {
		if w.closeFunc != nil {
			w.closeFunc()
		}
		return ebiten.Termination
	}
	return nil
}

func (w *Window) Draw(screen *ebiten.Image) {
	if w.img == nil {
		w.img = ebiten.NewImage(Width, Height)
	}
	w.blit()
	w.img.WritePixels(w.rgba)
	screen.DrawImage(w.img, nil)
	if w.Ctrl != nil && w.Ctrl.Pending()&device.IRQVGA != 0 {
		w.Ctrl.FrameConsumed()
	}
}

func (w *Window) blit() {
	hscroll := uint32(0)
	vscroll := uint32(0)
	if w.Ctrl != nil {
		hscroll, vscroll = w.Ctrl.HScroll, w.Ctrl.VScroll
	}
	for y := 0; y < Height; y++ {
		srcY := (uint32(y) + vscroll) % Height
		for x := 0; x < Width; x++ {
			srcX := (uint32(x) + hscroll) % Width
			idx := w.Bus.ReadByte(memory.VGAPixelFB + srcY*Width + srcX)
			rgb := rgb332Palette[idx]
			o := (y*Width + x) * 4
			w.rgba[o] = rgb[0]
			w.rgba[o+1] = rgb[1]
			w.rgba[o+2] = rgb[2]
			w.rgba[o+3] = 0xFF
		}
	}
}

func (w *Window) Layout(_, _ int) (int, int) {
	return Width, Height
}

// Run opens the window and blocks until the user closes it or onClose
// requests termination.
func (w *Window) Run() error {
	ebiten.SetWindowSize(Width*2, Height*2)
	ebiten.SetWindowTitle(w.Title)
	ebiten.SetWindowResizable(true)
	if err := ebiten.RunGame(w); err != nil {
		return fmt.Errorf("vga: %w", err)
	}
	return nil
}
