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

// Package eeprom provides byte addressable persistent stores with bounded
// per-cell write endurance. All stores follow the same update contract: a
// write is skipped when the cell already holds the value, otherwise the value
// is written and read back for verification.
package eeprom

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Erased is the value of a cell that has never been written.
const Erased = 0xff

// Store is a byte addressable persistent medium.
type Store interface {

	// Size returns the number of addressable bytes.
	Size() int

	// Load returns the byte at addr, or 0 if addr is out of range.
	Load(addr int) byte

	// Update stores val at addr. The physical write is skipped when the cell
	// already holds val. Returns true only if the verified cell value equals
	// val afterwards.
	Update(addr int, val byte) bool
}

// medium is the raw cell access of a store implementation, bounds checked by
// the caller.
type medium interface {
	size() int
	read(addr int) byte
	write(addr int, val byte)
}

//
func load(m medium, addr int) byte {
	if addr < 0 || addr >= m.size() {
		return 0
	}
	return m.read(addr)
}

//
func update(m medium, addr int, val byte) bool {

	if addr < 0 || addr >= m.size() {
		log.WithField("addr", addr).Trace("update out of range")
		return false
	}

	if m.read(addr) == val {
		return true
	}

	m.write(addr, val)
	ok := m.read(addr) == val

	if !ok {
		log.WithFields(log.Fields{
			"addr": addr, "value": val}).Debug("write verification failed")
	}

	return ok
}

// Snapshot returns a copy of the complete contents of s.
func Snapshot(s Store) []byte {
	ret := make([]byte, s.Size())
	for ix := range ret {
		ret[ix] = s.Load(ix)
	}
	return ret
}

// Restore writes data into s, cell by cell. Cells that already hold the
// desired value are not written. data needs to match the size of s.
func Restore(s Store, data []byte) error {

	if len(data) != s.Size() {
		return fmt.Errorf(
			"image size mismatch, store has %d bytes, image has %d",
			s.Size(), len(data))
	}

	for ix, b := range data {
		if !s.Update(ix, b) {
			return fmt.Errorf("could not write byte at address %d", ix)
		}
	}

	log.WithField("size", len(data)).Info("image restored")
	return nil
}
