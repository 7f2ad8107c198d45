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

package eeprom

//
func NewMemory(size int) *Memory {
	if size < 0 {
		size = 0
	}
	m := &Memory{
		cells: make([]byte, size),
		wear:  make([]int, size),
	}
	for ix := range m.cells {
		m.cells[ix] = Erased
	}
	return m
}

// NewMemoryFrom creates a memory store holding a copy of data.
func NewMemoryFrom(data []byte) *Memory {
	m := NewMemory(len(data))
	copy(m.cells, data)
	return m
}

// Memory is a RAM backed store. It counts physical writes, and can simulate
// cells wearing out after a set number of writes.
type Memory struct {
	cells     []byte
	wear      []int
	writes    int
	endurance int
}

//
func (m *Memory) Size() int {
	return m.size()
}

//
func (m *Memory) Load(addr int) byte {
	return load(m, addr)
}

//
func (m *Memory) Update(addr int, val byte) bool {
	return update(m, addr, val)
}

// SetEndurance sets the number of physical writes each cell accepts. Once a
// cell is worn out, further writes to it are lost. 0 means unlimited.
func (m *Memory) SetEndurance(n int) {
	m.endurance = n
}

// Writes returns the total number of physical writes.
func (m *Memory) Writes() int {
	return m.writes
}

// Wear returns the number of physical writes to the cell at addr.
func (m *Memory) Wear(addr int) int {
	if addr < 0 || addr >= len(m.wear) {
		return 0
	}
	return m.wear[addr]
}

// MaxWear returns the highest per-cell write count.
func (m *Memory) MaxWear() int {
	ret := 0
	for _, w := range m.wear {
		if w > ret {
			ret = w
		}
	}
	return ret
}

//
func (m *Memory) size() int {
	return len(m.cells)
}

//
func (m *Memory) read(addr int) byte {
	return m.cells[addr]
}

//
func (m *Memory) write(addr int, val byte) {
	m.writes++
	if m.endurance > 0 && m.wear[addr] >= m.endurance {
		return
	}
	m.wear[addr]++
	m.cells[addr] = val
}
