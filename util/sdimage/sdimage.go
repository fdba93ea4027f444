/*
 * Dioptase32 - raw block-addressed SD card image backing store
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

// Package sdimage backs the SD DMA engine's two slots with a flat file of
// fixed-size blocks, read and written in place — no tape-style framing,
// just a byte offset computed from a block number.
package sdimage

import (
	"errors"
	"fmt"
	"os"
)

// BlockSize is the unit the DMA engine transfers in; LEN in the slot's
// control registers is expressed in bytes but rounded up to whole blocks
// for the backing file.
const BlockSize = 512

var ErrClosed = errors.New("sdimage: image is closed")

// Image is one open backing file. The zero value is not usable; call
// Open or Create.
type Image struct {
	file *os.File
	path string
}

// Open opens an existing image file for read/write.
func Open(path string) (*Image, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("sdimage: open %s: %w", path, err)
	}
	return &Image{file: f, path: path}, nil
}

// Create makes a new zero-filled image of size blocks.
func Create(path string, blocks int) (*Image, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("sdimage: create %s: %w", path, err)
	}
	if err := f.Truncate(int64(blocks) * BlockSize); err != nil {
		f.Close()
		return nil, fmt.Errorf("sdimage: truncate %s: %w", path, err)
	}
	return &Image{file: f, path: path}, nil
}

// ReadBlock fills buf (len(buf) bytes, rounded by the caller to whole
// blocks) starting at the given block number.
func (i *Image) ReadBlock(block uint32, buf []byte) error {
	if i.file == nil {
		return ErrClosed
	}
	_, err := i.file.ReadAt(buf, int64(block)*BlockSize)
	return err
}

// WriteBlock writes buf to the image starting at the given block number.
func (i *Image) WriteBlock(block uint32, buf []byte) error {
	if i.file == nil {
		return ErrClosed
	}
	_, err := i.file.WriteAt(buf, int64(block)*BlockSize)
	return err
}

func (i *Image) Close() error {
	if i.file == nil {
		return nil
	}
	err := i.file.Close()
	i.file = nil
	return err
}

func (i *Image) Path() string { return i.path }
