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

// Package microfs is a low footprint, wear-leveling file system for small
// EEPROM style stores.
//
// Each file on the store is a contiguous chunk made of a two byte header
// followed by the file data:
//
//	+---- stride (length + 2) ----+
//	|                             |
//	ILDDDDDDDDDDDDDDDDDDDDDDDDDDDDILDDD...
//	|||                          |
//	||+-- length bytes of data --+
//	|+- length
//	+- id
//
// Files follow one another without padding, so the headers form an implicit
// linked list starting at offset 0 that tiles the whole store. Ids 1-255
// denote files and need to be unique, id 0 marks free space and may occur
// any number of times.
//
// Multi-header updates in Create, Remove and Format are not atomic. If the
// device loses power in between, the chain may be left malformed. Check will
// usually, but not always, notice that.
package microfs

import (
	"errors"
	"fmt"
)

const (
	// HeaderLength is the number of bytes occupied by a file header.
	HeaderLength = 2
	// MaxLength is the largest data length a single header can describe.
	MaxLength = 255
	// MaxStride is the stride of a file with MaxLength data bytes.
	MaxStride = HeaderLength + MaxLength
)

var (
	// ErrOutOfSpace is returned when no free chunk can hold a new file.
	ErrOutOfSpace = errors.New("out of space")
	// ErrIDInUse is returned when creating a file with an id that exists.
	ErrIDInUse = errors.New("file id in use")
	// ErrIDExhausted is returned when all file ids are taken.
	ErrIDExhausted = errors.New("no free file id")
	// ErrInvalidID is returned for operations on id 0.
	ErrInvalidID = errors.New("invalid file id")
	// ErrInvalidLength is returned for file lengths outside 0-255.
	ErrInvalidLength = errors.New("invalid file length")
	//
	ErrNotFound = errors.New("file not found")
	// ErrWriteFailed is returned when a header write could not be verified.
	ErrWriteFailed = errors.New("write failed")
	// ErrInconsistent is returned when the header chain does not tile the
	// store.
	ErrInconsistent = errors.New("inconsistent file system")
)

// FileInfo describes one header in the chain.
type FileInfo struct {
	ID     byte `json:"id"`
	Length int  `json:"length"`
	Offset int  `json:"offset"`
}

// Stride returns the distance from this header to the next one.
func (fi FileInfo) Stride() int {
	return HeaderLength + fi.Length
}

//
func (fi FileInfo) IsFree() bool {
	return fi.ID == 0
}

//
func (fi FileInfo) String() string {
	if fi.IsFree() {
		return fmt.Sprintf("free %3d bytes @ %d", fi.Length, fi.Offset)
	}
	return fmt.Sprintf("file %3d, %3d bytes @ %d", fi.ID, fi.Length, fi.Offset)
}

// Stats holds the space accounting of a file system. Used and Free count data
// bytes only, headers are not included.
type Stats struct {
	Total        int  `json:"total"`
	Used         int  `json:"used"`
	Free         int  `json:"free"`
	Files        int  `json:"files"`
	MaxFreeChunk int  `json:"maxFreeChunk"`
	Consistent   bool `json:"consistent"`
}

//
func (s *Stats) String() string {
	state := "consistent"
	if !s.Consistent {
		state = "INCONSISTENT"
	}
	return fmt.Sprintf(
		"%d files, %d of %d bytes used, %d free, largest free chunk %d (%s)",
		s.Files, s.Used, s.Total, s.Free, s.MaxFreeChunk, state)
}
