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

import (
	log "github.com/sirupsen/logrus"
)

// NewFaulty wraps s into a store that can be told to lose all physical writes
// after a given number of them, the way a device behaves when power is cut.
func NewFaulty(s Store) *Faulty {
	return &Faulty{Store: s, budget: -1}
}

//
type Faulty struct {
	Store
	budget int
	lost   int
}

// SetBudget sets the number of physical writes that still succeed. A
// negative budget disables fault injection.
func (f *Faulty) SetBudget(n int) {
	f.budget = n
}

// Lost returns the number of writes dropped so far.
func (f *Faulty) Lost() int {
	return f.lost
}

//
func (f *Faulty) Update(addr int, val byte) bool {

	if addr < 0 || addr >= f.Size() {
		return false
	}

	if f.Load(addr) == val {
		return true
	}

	if f.budget == 0 {
		f.lost++
		log.WithField("addr", addr).Trace("dropping write")
		return false
	}

	if f.budget > 0 {
		f.budget--
	}

	return f.Store.Update(addr, val)
}
