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
	"math/rand"
)

// Placement supplies the offset from which Create starts looking for a free
// chunk. Spreading start offsets spreads same-size files over the store, which
// is what levels wear.
type Placement interface {
	// Start returns an offset in [0, size).
	Start(size int) int
}

// NewRandomPlacement returns a placement drawing start offsets from a pseudo
// random generator seeded with seed.
func NewRandomPlacement(seed int64) Placement {
	return &randomPlacement{rnd: rand.New(rand.NewSource(seed))}
}

//
type randomPlacement struct {
	rnd *rand.Rand
}

//
func (p *randomPlacement) Start(size int) int {
	if size <= 0 {
		return 0
	}
	return p.rnd.Intn(size)
}

// FixedPlacement always starts looking at the same offset. Use 0 for first
// fit allocation.
type FixedPlacement int

//
func (p FixedPlacement) Start(size int) int {
	return int(p)
}
