package vga

import (
	"testing"

	"github.com/dioptase/emu32/internal/device"
	"github.com/dioptase/emu32/internal/memory"
)

func TestRGB332PaletteExpandsPureWhiteAndBlack(t *testing.T) {
	white := rgb332Palette[0xFF]
	if white[0] != 255 || white[1] != 255 || white[2] != 255 {
		t.Errorf("0xff = %v, want {255,255,255}", white)
	}
	black := rgb332Palette[0x00]
	if black != [3]byte{0, 0, 0} {
		t.Errorf("0x00 = %v, want {0,0,0}", black)
	}
}

func TestBlitCopiesPixelsAtOrigin(t *testing.T) {
	bus := memory.NewBus(memory.VGAPixelFB + Width*Height + 16)
	bus.WriteByte(memory.VGAPixelFB, 0xE0) // pure red index
	w := &Window{Bus: bus, rgba: make([]byte, Width*Height*4)}
	w.blit()
	if w.rgba[0] != rgb332Palette[0xE0][0] || w.rgba[3] != 0xFF {
		t.Errorf("pixel(0,0) rgba = %v", w.rgba[:4])
	}
}

func TestBlitAppliesScroll(t *testing.T) {
	bus := memory.NewBus(memory.VGAPixelFB + Width*Height + 16)
	bus.WriteByte(memory.VGAPixelFB+5, 0x1C) // pixel at x=5,y=0
	ctrl := device.NewVGACtrl(memory.VGACtrlBase)
	ctrl.HScroll = 5
	w := &Window{Bus: bus, Ctrl: ctrl, rgba: make([]byte, Width*Height*4)}
	w.blit()
	want := rgb332Palette[0x1C]
	if w.rgba[0] != want[0] || w.rgba[1] != want[1] || w.rgba[2] != want[2] {
		t.Errorf("pixel(0,0) after hscroll=5 = %v, want %v", w.rgba[:3], want)
	}
}
