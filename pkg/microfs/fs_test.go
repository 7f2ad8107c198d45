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
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xelalexv/kilnctl/pkg/eeprom"
)

//
func newFormatted(t *testing.T, size int) (*FileSystem, *eeprom.Memory) {
	mem := eeprom.NewMemory(size)
	fs, err := NewFileSystem(mem, FixedPlacement(0))
	require.NoError(t, err)
	require.NoError(t, fs.Format())
	return fs, mem
}

// writeChain puts headers directly onto the store, bypassing the file system
func writeChain(t *testing.T, s eeprom.Store, chain []FileInfo) {
	for _, fi := range chain {
		require.True(t, s.Update(fi.Offset+1, byte(fi.Length)))
		require.True(t, s.Update(fi.Offset, fi.ID))
	}
}

func TestNewFileSystemTooSmall(t *testing.T) {
	_, err := NewFileSystem(eeprom.NewMemory(1), nil)
	assert.Error(t, err)
}

func TestFormat(t *testing.T) {
	for _, size := range []int{2, 3, 100, 256, 257, 258, 259, 514, 515, 1024, 4096} {
		fs, _ := newFormatted(t, size)

		assert.True(t, fs.Check(), "size %d", size)
		headers := (size + MaxStride - 1) / MaxStride
		assert.Equal(t, size-2*headers, fs.Free(), "size %d", size)
		assert.Equal(t, 0, fs.Used())
		assert.Equal(t, 0, fs.Count())
		assert.Equal(t, size, fs.Total())

		chain, err := fs.Chain()
		require.NoError(t, err)
		assert.Len(t, chain, headers, "size %d", size)
		sum := 0
		for _, fi := range chain {
			assert.True(t, fi.IsFree())
			sum += fi.Stride()
		}
		assert.Equal(t, size, sum)
	}
}

func TestUnformattedStoreIsInconsistent(t *testing.T) {
	fs, err := NewFileSystem(eeprom.NewMemory(300), FixedPlacement(0))
	require.NoError(t, err)

	assert.False(t, fs.Check())
	assert.False(t, fs.Stats().Consistent)

	_, err = fs.Open(1)
	assert.True(t, errors.Is(err, ErrInconsistent))
	_, err = fs.Create(10, 0)
	assert.True(t, errors.Is(err, ErrInconsistent))
	assert.True(t, errors.Is(fs.Remove(1), ErrInconsistent))
}

func TestCapacityBoundary(t *testing.T) {
	fs, _ := newFormatted(t, 257)

	f, err := fs.Create(255, 0)
	require.NoError(t, err)
	assert.Equal(t, byte(1), f.ID())
	assert.Equal(t, 0, f.Offset())
	assert.Equal(t, 0, fs.MaxFreeChunk())

	_, err = fs.Create(1, 0)
	assert.True(t, errors.Is(err, ErrOutOfSpace))
	assert.True(t, fs.Check())
}

func TestCreateRequiresRoomForRemainderHeader(t *testing.T) {
	fs, _ := newFormatted(t, 257)

	// 254 would leave a single byte, too short for a free header
	_, err := fs.Create(254, 0)
	assert.True(t, errors.Is(err, ErrOutOfSpace))

	f, err := fs.Create(253, 0)
	require.NoError(t, err)
	assert.Equal(t, 253, f.Size())

	chain, err := fs.Chain()
	require.NoError(t, err)
	assert.Equal(t, []FileInfo{
		{ID: 1, Length: 253, Offset: 0},
		{ID: 0, Length: 0, Offset: 255},
	}, chain)
}

func TestCreateErrors(t *testing.T) {
	fs, _ := newFormatted(t, 512)

	_, err := fs.Create(256, 0)
	assert.True(t, errors.Is(err, ErrInvalidLength))
	_, err = fs.Create(-1, 0)
	assert.True(t, errors.Is(err, ErrInvalidLength))

	_, err = fs.Create(10, 42)
	require.NoError(t, err)
	_, err = fs.Create(10, 42)
	assert.True(t, errors.Is(err, ErrIDInUse))

	_, err = fs.Open(0)
	assert.True(t, errors.Is(err, ErrInvalidID))
	_, err = fs.Open(7)
	assert.True(t, errors.Is(err, ErrNotFound))

	assert.True(t, errors.Is(fs.Remove(0), ErrInvalidID))
	assert.True(t, errors.Is(fs.Remove(7), ErrNotFound))
}

func TestIDExhausted(t *testing.T) {
	fs, _ := newFormatted(t, 600)

	for ix := 1; ix <= 255; ix++ {
		f, err := fs.Create(0, 0)
		require.NoError(t, err, "file %d", ix)
		assert.Equal(t, byte(ix), f.ID())
	}

	_, err := fs.Create(0, 0)
	assert.True(t, errors.Is(err, ErrIDExhausted))
	assert.True(t, fs.Check())
	assert.Equal(t, 255, fs.Count())
}

func TestIDReuse(t *testing.T) {
	fs, _ := newFormatted(t, 512)

	for ix := 1; ix <= 3; ix++ {
		f, err := fs.Create(5, 0)
		require.NoError(t, err)
		assert.Equal(t, byte(ix), f.ID())
	}

	require.NoError(t, fs.Remove(2))
	f, err := fs.Create(5, 0)
	require.NoError(t, err)
	assert.Equal(t, byte(2), f.ID())
}

func TestCoalescing(t *testing.T) {
	fs, _ := newFormatted(t, 300)
	before := fs.Free()

	a, err := fs.Create(10, 0)
	require.NoError(t, err)
	b, err := fs.Create(10, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, a.Offset())
	assert.Equal(t, 12, b.Offset())

	allocated := fs.Free()

	require.NoError(t, fs.Remove(a.ID()))
	assert.True(t, fs.Check())
	require.NoError(t, fs.Remove(b.ID()))
	assert.True(t, fs.Check())

	assert.Equal(t, 10+10+4, fs.Free()-allocated)
	assert.Equal(t, before, fs.Free())

	chain, err := fs.Chain()
	require.NoError(t, err)
	assert.Equal(t, []FileInfo{
		{ID: 0, Length: 255, Offset: 0},
		{ID: 0, Length: 41, Offset: 257},
	}, chain)
}

func TestRemoveSplitsLongRun(t *testing.T) {
	mem := eeprom.NewMemory(600)
	writeChain(t, mem, []FileInfo{
		{ID: 0, Length: 200, Offset: 0},
		{ID: 5, Length: 100, Offset: 202},
		{ID: 0, Length: 200, Offset: 304},
		{ID: 0, Length: 92, Offset: 506},
	})
	fs, err := NewFileSystem(mem, FixedPlacement(0))
	require.NoError(t, err)
	require.True(t, fs.Check())
	assert.Equal(t, 492, fs.Free())

	require.NoError(t, fs.Remove(5))

	assert.True(t, fs.Check())
	assert.Equal(t, 594, fs.Free())
	chain, err := fs.Chain()
	require.NoError(t, err)
	assert.Equal(t, []FileInfo{
		{ID: 0, Length: 255, Offset: 0},
		{ID: 0, Length: 247, Offset: 257},
		{ID: 0, Length: 92, Offset: 506},
	}, chain)
}

func TestRemoveAvoidsSingleByteRemainder(t *testing.T) {
	mem := eeprom.NewMemory(260)
	writeChain(t, mem, []FileInfo{
		{ID: 0, Length: 254, Offset: 0},
		{ID: 1, Length: 0, Offset: 256},
		{ID: 2, Length: 0, Offset: 258},
	})
	fs, err := NewFileSystem(mem, FixedPlacement(0))
	require.NoError(t, err)
	require.True(t, fs.Check())

	require.NoError(t, fs.Remove(1))

	assert.True(t, fs.Check())
	chain, err := fs.Chain()
	require.NoError(t, err)
	assert.Equal(t, []FileInfo{
		{ID: 0, Length: 254, Offset: 0},
		{ID: 0, Length: 0, Offset: 256},
		{ID: 2, Length: 0, Offset: 258},
	}, chain)
}

func TestRemoveDoesNotMergeFullChunks(t *testing.T) {
	fs, _ := newFormatted(t, 1024)

	f, err := fs.Open(1)
	assert.Nil(t, f)
	assert.Error(t, err)

	// fill the first chunk completely, leaving full free chunks around
	f, err = fs.Create(255, 0)
	require.NoError(t, err)
	g, err := fs.Create(255, 0)
	require.NoError(t, err)
	assert.Equal(t, 257, g.Offset())

	require.NoError(t, fs.Remove(f.ID()))
	chain, err := fs.Chain()
	require.NoError(t, err)
	assert.Equal(t, FileInfo{ID: 0, Length: 255, Offset: 0}, chain[0])
	assert.Equal(t, FileInfo{ID: 2, Length: 255, Offset: 257}, chain[1])
	assert.True(t, fs.Check())
}

func TestCheckDetectsDuplicateID(t *testing.T) {
	mem := eeprom.NewMemory(20)
	writeChain(t, mem, []FileInfo{
		{ID: 3, Length: 4, Offset: 0},
		{ID: 3, Length: 4, Offset: 6},
		{ID: 0, Length: 6, Offset: 12},
	})
	fs, err := NewFileSystem(mem, nil)
	require.NoError(t, err)
	assert.False(t, fs.Check())

	f, err := fs.Open(3)
	require.NoError(t, err)
	assert.Equal(t, 0, f.Offset(), "open returns the first match")
}

func TestCheckDetectsPartialHeader(t *testing.T) {
	mem := eeprom.NewMemory(8)
	writeChain(t, mem, []FileInfo{
		{ID: 1, Length: 5, Offset: 0},
	})
	fs, err := NewFileSystem(mem, nil)
	require.NoError(t, err)
	assert.False(t, fs.Check())
}

func TestPlacement(t *testing.T) {
	mem := eeprom.NewMemory(300)
	fs, err := NewFileSystem(mem, FixedPlacement(100))
	require.NoError(t, err)
	require.NoError(t, fs.Format())

	f, err := fs.Create(10, 0)
	require.NoError(t, err)
	assert.Equal(t, 257, f.Offset())
	require.NoError(t, fs.Remove(f.ID()))

	fs, err = NewFileSystem(mem, FixedPlacement(299))
	require.NoError(t, err)
	f, err = fs.Create(10, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, f.Offset(), "search wraps around")
}

func TestRandomPlacementSpreadsFiles(t *testing.T) {
	mem := eeprom.NewMemory(2048)
	fs, err := NewFileSystem(mem, NewRandomPlacement(1))
	require.NoError(t, err)
	require.NoError(t, fs.Format())

	offsets := make(map[int]bool)
	for ix := 0; ix < 50; ix++ {
		f, err := fs.Create(10, 7)
		require.NoError(t, err)
		offsets[f.Offset()] = true
		require.NoError(t, fs.Remove(7))
		require.True(t, fs.Check())
	}

	assert.Greater(t, len(offsets), 1)
}

func TestRandomOperationsKeepConsistency(t *testing.T) {
	mem := eeprom.NewMemory(1024)
	fs, err := NewFileSystem(mem, NewRandomPlacement(42))
	require.NoError(t, err)
	require.NoError(t, fs.Format())

	rnd := rand.New(rand.NewSource(7))
	files := make(map[byte]int)

	for op := 0; op < 1000; op++ {

		if len(files) > 0 && rnd.Intn(3) == 0 {
			var ids []byte
			for id := range files {
				ids = append(ids, id)
			}
			id := ids[rnd.Intn(len(ids))]
			require.NoError(t, fs.Remove(id))
			delete(files, id)

		} else {
			length := rnd.Intn(MaxLength + 1)
			f, err := fs.Create(length, 0)
			if err != nil {
				require.True(t, errors.Is(err, ErrOutOfSpace), "%v", err)
			} else {
				data := make([]byte, length)
				for ix := range data {
					data[ix] = f.ID()
				}
				require.Equal(t, length, f.WriteBytes(0, data))
				files[f.ID()] = length
			}
		}

		require.True(t, fs.Check(), "after op %d", op)

		chain, err := fs.Chain()
		require.NoError(t, err)
		headers := HeaderLength * len(chain)
		require.Equal(t, fs.Total(), fs.Used()+fs.Free()+headers)
		require.Equal(t, len(files), fs.Count())
	}

	for id, length := range files {
		f, err := fs.Open(id)
		require.NoError(t, err)
		require.Equal(t, length, f.Size())
		data, err := f.Bytes()
		require.NoError(t, err)
		for _, b := range data {
			require.Equal(t, id, b, "file %d overwritten", id)
		}
	}
}

func TestStats(t *testing.T) {
	fs, _ := newFormatted(t, 600)

	_, err := fs.Create(100, 0)
	require.NoError(t, err)
	_, err = fs.Create(20, 0)
	require.NoError(t, err)

	st := fs.Stats()
	assert.Equal(t, &Stats{
		Total:        600,
		Used:         120,
		Free:         fs.Free(),
		Files:        2,
		MaxFreeChunk: fs.MaxFreeChunk(),
		Consistent:   true,
	}, st)
	assert.Equal(t, 600-120-2*5, st.Free)
	assert.Equal(t, 255, st.MaxFreeChunk)

	ls, err := fs.Ls()
	require.NoError(t, err)
	assert.Equal(t, []FileInfo{
		{ID: 1, Length: 100, Offset: 0},
		{ID: 2, Length: 20, Offset: 102},
	}, ls)
}

func TestInterruptedCreateLeavesChainIntact(t *testing.T) {
	mem := eeprom.NewMemory(300)
	faulty := eeprom.NewFaulty(mem)
	fs, err := NewFileSystem(faulty, FixedPlacement(0))
	require.NoError(t, err)
	require.NoError(t, fs.Format())

	// remainder header goes through, file header is lost
	faulty.SetBudget(2)
	_, err = fs.Create(10, 0)
	assert.True(t, errors.Is(err, ErrWriteFailed))

	assert.True(t, fs.Check())
	assert.Equal(t, 0, fs.Count())
}

func TestInterruptedRemoveIsDetected(t *testing.T) {
	mem := eeprom.NewMemory(600)
	writeChain(t, mem, []FileInfo{
		{ID: 0, Length: 200, Offset: 0},
		{ID: 5, Length: 100, Offset: 202},
		{ID: 0, Length: 200, Offset: 304},
		{ID: 0, Length: 92, Offset: 506},
	})
	faulty := eeprom.NewFaulty(mem)
	fs, err := NewFileSystem(faulty, FixedPlacement(0))
	require.NoError(t, err)

	// only the length of the first merged header makes it
	faulty.SetBudget(1)
	assert.True(t, errors.Is(fs.Remove(5), ErrWriteFailed))

	assert.False(t, fs.Check())
}
