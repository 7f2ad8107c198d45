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
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/kilnctl/pkg/eeprom"
)

// header is a file header as read from the store; offset is -1 for a header
// that could not be read
type header struct {
	id     byte
	length int
	offset int
}

var invalid = header{offset: -1}

//
func (h header) stride() int {
	return HeaderLength + h.length
}

//
func (h header) valid() bool {
	return h.offset >= 0
}

// mergeable is true for a free chunk that still has room to absorb a
// neighbor
func (h header) mergeable() bool {
	return h.valid() && h.id == 0 && h.length < MaxLength
}

//
func (h header) info() FileInfo {
	return FileInfo{ID: h.id, Length: h.length, Offset: h.offset}
}

/*
	NewFileSystem creates a file system on top of store. The store is not
	touched; use Format for initializing a new store. If placement is nil, a
	random placement seeded from the clock is used.
*/
func NewFileSystem(store eeprom.Store, placement Placement) (*FileSystem, error) {

	if store.Size() < HeaderLength {
		return nil, fmt.Errorf("store too small: %d bytes", store.Size())
	}

	if placement == nil {
		placement = NewRandomPlacement(time.Now().UnixNano())
	}

	return &FileSystem{
		store:     store,
		size:      store.Size(),
		placement: placement,
	}, nil
}

//
type FileSystem struct {
	store     eeprom.Store
	size      int
	placement Placement
}

//
func (fs *FileSystem) Store() eeprom.Store {
	return fs.store
}

// Format overwrites the whole store with a chain of free chunks of maximum
// length. This is not atomic, an interrupted format leaves a partially
// rewritten chain.
func (fs *FileSystem) Format() error {
	log.WithField("size", fs.size).Info("formatting")
	return fs.freeRun(0, fs.size)
}

// Check returns true if the store appears to be in a consistent state, i.e.
// the header chain tiles the store and no file id repeats. This only checks
// the shape of the chain, file data may well be damaged anyway.
func (fs *FileSystem) Check() bool {

	var seen [256]bool
	dup := false

	err := fs.walk(func(h header) bool {
		if h.id != 0 && seen[h.id] {
			log.WithFields(log.Fields{
				"id": h.id, "offset": h.offset}).Warn("duplicate file id")
			dup = true
			return false
		}
		seen[h.id] = true
		return true
	})

	if err != nil {
		log.Warnf("consistency check failed: %v", err)
		return false
	}

	return !dup
}

// Stats returns the space accounting of the file system. Counting stops at
// the first malformed header.
func (fs *FileSystem) Stats() *Stats {

	ret := &Stats{Total: fs.size}

	fs.walk(func(h header) bool {
		if h.id == 0 {
			ret.Free += h.length
			if h.length > ret.MaxFreeChunk {
				ret.MaxFreeChunk = h.length
			}
		} else {
			ret.Used += h.length
			ret.Files++
		}
		return true
	})

	ret.Consistent = fs.Check()
	return ret
}

// Used returns the number of data bytes taken by files.
func (fs *FileSystem) Used() int {
	ret := 0
	fs.walk(func(h header) bool {
		if h.id != 0 {
			ret += h.length
		}
		return true
	})
	return ret
}

// Free returns the number of data bytes in free chunks. This is an upper
// bound for what can be allocated, since each file needs its own header.
func (fs *FileSystem) Free() int {
	ret := 0
	fs.walk(func(h header) bool {
		if h.id == 0 {
			ret += h.length
		}
		return true
	})
	return ret
}

// Total returns the size of the store.
func (fs *FileSystem) Total() int {
	return fs.size
}

// Count returns the number of files.
func (fs *FileSystem) Count() int {
	ret := 0
	fs.walk(func(h header) bool {
		if h.id != 0 {
			ret++
		}
		return true
	})
	return ret
}

// MaxFreeChunk returns the length of the largest free chunk.
func (fs *FileSystem) MaxFreeChunk() int {
	ret := 0
	fs.walk(func(h header) bool {
		if h.id == 0 && h.length > ret {
			ret = h.length
		}
		return true
	})
	return ret
}

// Ls lists all files in chain order.
func (fs *FileSystem) Ls() ([]FileInfo, error) {
	var ret []FileInfo
	err := fs.walk(func(h header) bool {
		if h.id != 0 {
			ret = append(ret, h.info())
		}
		return true
	})
	return ret, err
}

// Chain lists all headers in chain order, including free chunks.
func (fs *FileSystem) Chain() ([]FileInfo, error) {
	var ret []FileInfo
	err := fs.walk(func(h header) bool {
		ret = append(ret, h.info())
		return true
	})
	return ret, err
}

// Open opens the file with the given id.
func (fs *FileSystem) Open(id byte) (*File, error) {

	if id == 0 {
		return nil, ErrInvalidID
	}

	found := invalid
	err := fs.walk(func(h header) bool {
		if h.id == id {
			found = h
			return false
		}
		return true
	})

	if found.valid() {
		return newFile(fs.store, found), nil
	}
	if err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
}

/*
	Create allocates a new file with length data bytes. If id is 0, the lowest
	unused id is assigned, otherwise the requested id must not exist yet.

	The chosen free chunk either has exactly the requested length, or is large
	enough to leave a legal free chunk with its own header behind. In the
	latter case, a free header for the remainder is written first, followed by
	the header of the new file. An interruption in between leaves the chain
	malformed.
*/
func (fs *FileSystem) Create(length int, id byte) (*File, error) {

	if length < 0 || length > MaxLength {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLength, length)
	}

	free, err := fs.findAlloc(length)
	if err != nil {
		return nil, err
	}

	if id == 0 {
		if id, err = fs.findID(); err != nil {
			return nil, err
		}
	} else if _, err := fs.Open(id); err == nil {
		return nil, fmt.Errorf("%w: %d", ErrIDInUse, id)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	logger := log.WithFields(log.Fields{
		"id": id, "length": length, "offset": free.offset})

	if free.length > length {
		if _, err := fs.writeHeader(free.offset+HeaderLength+length,
			0, free.length-length-HeaderLength); err != nil {
			return nil, err
		}
	}

	h, err := fs.writeHeader(free.offset, id, length)
	if err != nil {
		return nil, err
	}

	logger.Debug("file created")
	return newFile(fs.store, h), nil
}

/*
	Remove deletes the file with the given id. The freed chunk is merged with
	a free predecessor and/or successor, as long as these still have room. A
	merged run too long for a single header is written as a series of maximum
	length free chunks plus a remainder. The header writes are not atomic.
*/
func (fs *FileSystem) Remove(id byte) error {

	if id == 0 {
		return ErrInvalidID
	}

	prev, cur, last := invalid, invalid, invalid

	err := fs.walk(func(h header) bool {
		if h.id == id {
			prev = last
			cur = h
			return false
		}
		last = h
		return true
	})

	if !cur.valid() {
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}

	next := fs.readHeader(cur.offset + cur.stride())
	pos, span := cur.offset, cur.stride()

	if prev.mergeable() {
		pos = prev.offset
		span += prev.stride()
	}

	if next.mergeable() && next.offset+next.stride() <= fs.size {
		span += next.stride()
	}

	log.WithFields(log.Fields{
		"id":     id,
		"offset": pos,
		"span":   span}).Debug("removing file")

	return fs.freeRun(pos, span)
}

// freeRun writes free headers covering span bytes starting at pos. Chunks
// have maximum length, except for the last one. A full chunk is shortened by
// one byte where it would otherwise leave a single byte, too short for a
// header.
func (fs *FileSystem) freeRun(pos, span int) error {

	for span > 0 {

		if span < HeaderLength {
			return fmt.Errorf("%w: %d byte gap at offset %d",
				ErrInconsistent, span, pos)
		}

		length := span - HeaderLength
		if length > MaxLength {
			length = MaxLength
			if span-MaxStride == 1 {
				length--
			}
		}

		h, err := fs.writeHeader(pos, 0, length)
		if err != nil {
			return err
		}

		pos += h.stride()
		span -= h.stride()
	}

	return nil
}

// findAlloc looks for a free chunk that can hold a file of the given length,
// i.e. one of exactly that length, or one at least a header longer. The
// search starts at the first header at or after the placement's start offset
// and wraps around.
func (fs *FileSystem) findAlloc(length int) (header, error) {

	var chain []header
	if err := fs.walk(func(h header) bool {
		chain = append(chain, h)
		return true
	}); err != nil {
		return invalid, err
	}

	start := 0
	off := fs.placement.Start(fs.size)
	for start < len(chain) && chain[start].offset < off {
		start++
	}

	for n := 0; n < len(chain); n++ {
		h := chain[(start+n)%len(chain)]
		if h.id == 0 &&
			(h.length == length || h.length >= length+HeaderLength) {
			log.WithFields(log.Fields{
				"start":  off,
				"offset": h.offset,
				"free":   h.length}).Trace("found free chunk")
			return h, nil
		}
	}

	return invalid, fmt.Errorf("%w: no free chunk for %d bytes",
		ErrOutOfSpace, length)
}

// findID returns the lowest id not present in the chain
func (fs *FileSystem) findID() (byte, error) {

	var used [256]bool
	if err := fs.walk(func(h header) bool {
		used[h.id] = true
		return true
	}); err != nil {
		return 0, err
	}

	for id := 1; id < len(used); id++ {
		if !used[id] {
			return byte(id), nil
		}
	}

	return 0, ErrIDExhausted
}

// walk calls fn for each header in chain order, until fn returns false or
// the end of the store is reached. It returns ErrInconsistent when a header
// does not fit into the store.
func (fs *FileSystem) walk(fn func(h header) bool) error {

	for pos := 0; pos < fs.size; {

		h := fs.readHeader(pos)
		if !h.valid() || pos+h.stride() > fs.size {
			return fmt.Errorf("%w: header at offset %d overflows store",
				ErrInconsistent, pos)
		}

		if !fn(h) {
			return nil
		}

		pos += h.stride()
	}

	return nil
}

// readHeader interprets the two bytes at pos as a header. Nothing checks
// whether pos actually is the offset of a header.
func (fs *FileSystem) readHeader(pos int) header {
	if pos < 0 || pos+HeaderLength > fs.size {
		return invalid
	}
	return header{
		id:     fs.store.Load(pos),
		length: int(fs.store.Load(pos + 1)),
		offset: pos,
	}
}

// writeHeader writes length before id.
func (fs *FileSystem) writeHeader(pos int, id byte, length int) (header, error) {

	if pos < 0 || pos+HeaderLength > fs.size {
		return invalid, fmt.Errorf("%w: header offset %d outside of store",
			ErrInconsistent, pos)
	}

	if !fs.store.Update(pos+1, byte(length)) || !fs.store.Update(pos, id) {
		return invalid, fmt.Errorf("%w: header at offset %d",
			ErrWriteFailed, pos)
	}

	log.WithFields(log.Fields{
		"offset": pos, "id": id, "length": length}).Trace("header written")

	return header{id: id, length: length, offset: pos}, nil
}
