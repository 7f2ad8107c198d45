/*
   KilnCtl - temperature profile controller
   Copyright (c) 2026, Alexander Vollschwitz

   This file is part of KilnCtl.

   KilnCtl is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   KilnCtl is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with KilnCtl. If not, see <http://www.gnu.org/licenses/>.
*/

package microfs

import (
	"fmt"

	"github.com/xelalexv/kilnctl/pkg/eeprom"
)

//
func newFile(store eeprom.Store, h header) *File {
	return &File{store: store, info: h.info()}
}

// File is a handle to a file on the store. It stays valid until the file is
// removed; it does not notice removal. A nil File is an invalid handle, reads
// from it return 0 and writes to it fail.
type File struct {
	store eeprom.Store
	info  FileInfo
}

// IsValid returns true if this handle refers to a file on the store.
func (f *File) IsValid() bool {
	return f != nil && f.store != nil && f.info.Offset >= 0
}

//
func (f *File) ID() byte {
	if !f.IsValid() {
		return 0
	}
	return f.info.ID
}

// Size returns the data length of the file.
func (f *File) Size() int {
	if !f.IsValid() {
		return 0
	}
	return f.info.Length
}

// Offset returns the store offset of the file's header.
func (f *File) Offset() int {
	if !f.IsValid() {
		return -1
	}
	return f.info.Offset
}

//
func (f *File) Info() FileInfo {
	if !f.IsValid() {
		return invalid.info()
	}
	return f.info
}

// ByteAt returns the byte at pos, or 0 if pos is out of range.
func (f *File) ByteAt(pos int) byte {
	if !f.IsValid() || pos < 0 || pos >= f.info.Length {
		return 0
	}
	return f.store.Load(f.addr(pos))
}

// SetByteAt writes val to pos. Returns false if pos is out of range or the
// write could not be verified.
func (f *File) SetByteAt(pos int, val byte) bool {
	if !f.IsValid() || pos < 0 || pos >= f.info.Length {
		return false
	}
	return f.store.Update(f.addr(pos), val)
}

// ReadBytes reads from pos into buf, up to the end of the file, and returns
// the number of bytes read.
func (f *File) ReadBytes(pos int, buf []byte) int {
	n := f.clamp(pos, len(buf))
	for ix := 0; ix < n; ix++ {
		buf[ix] = f.store.Load(f.addr(pos + ix))
	}
	return n
}

// WriteBytes writes buf to pos, up to the end of the file, and returns the
// number of bytes written. Writing stops at the first byte that could not be
// verified.
func (f *File) WriteBytes(pos int, buf []byte) int {
	n := f.clamp(pos, len(buf))
	for ix := 0; ix < n; ix++ {
		if !f.store.Update(f.addr(pos+ix), buf[ix]) {
			return ix
		}
	}
	return n
}

// Bytes returns the complete contents of the file.
func (f *File) Bytes() ([]byte, error) {
	if !f.IsValid() {
		return nil, fmt.Errorf("invalid file handle")
	}
	ret := make([]byte, f.info.Length)
	f.ReadBytes(0, ret)
	return ret, nil
}

//
func (f *File) addr(pos int) int {
	return f.info.Offset + HeaderLength + pos
}

// clamp returns how many of n bytes starting at pos fit into the file
func (f *File) clamp(pos, n int) int {
	if !f.IsValid() || pos < 0 || pos >= f.info.Length {
		return 0
	}
	if rest := f.info.Length - pos; n > rest {
		return rest
	}
	return n
}
