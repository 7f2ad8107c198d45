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

package program

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xelalexv/kilnctl/pkg/eeprom"
	"github.com/xelalexv/kilnctl/pkg/microfs"
)

//
func newFS(t *testing.T, size int) *microfs.FileSystem {
	fs, err := microfs.NewFileSystem(
		eeprom.NewMemory(size), microfs.FixedPlacement(0))
	require.NoError(t, err)
	require.NoError(t, fs.Format())
	return fs
}

//
func withSteps(t *testing.T, fs *microfs.FileSystem, steps ...Step) *Program {
	p := New(fs)
	require.NoError(t, p.SetSteps(steps))
	return p
}

func TestEncodeDecode(t *testing.T) {
	tests := []struct {
		step Step
		enc  [2]byte
	}{
		{Step{Duration: 60, Temperature: 100, Method: Constant}, [2]byte{0xe4, 60}},
		{Step{Duration: 255, Temperature: 127, Method: Linear}, [2]byte{0x7f, 255}},
		{Step{}, [2]byte{0, 0}},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.enc, Encode(tc.step))
		assert.Equal(t, tc.step, Decode(tc.enc[0], tc.enc[1]))
	}
}

func TestLoadEmpty(t *testing.T) {
	fs := newFS(t, 512)

	p, err := Load(fs, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, p.StepCount())

	p, err = Load(fs, 9)
	require.NoError(t, err)
	assert.Equal(t, byte(9), p.ID())
	assert.Equal(t, 0, p.StepCount())
	assert.Equal(t, 0, p.TotalDuration())
	assert.Equal(t, 0, fs.Count(), "loading must not create anything")
}

func TestLoadInconsistent(t *testing.T) {
	fs, err := microfs.NewFileSystem(eeprom.NewMemory(300), nil)
	require.NoError(t, err)

	_, err = Load(fs, 1)
	assert.True(t, errors.Is(err, microfs.ErrInconsistent))
}

func TestInsertRemove(t *testing.T) {
	p := New(newFS(t, 512))

	assert.True(t, errors.Is(p.RemoveStep(0), ErrOutOfRange))
	assert.True(t, errors.Is(p.InsertStep(1), ErrOutOfRange))

	for ix := 0; ix < 3; ix++ {
		require.NoError(t, p.AppendStep())
		require.NoError(t, p.SetDuration(ix, byte(10*(ix+1))))
	}

	s, err := p.Step(0)
	require.NoError(t, err)
	assert.Equal(t, Step{Duration: 10, Method: Constant}, s)

	require.NoError(t, p.InsertStep(1))
	assert.Equal(t, []Step{
		{Duration: 10, Method: Constant},
		{Method: Constant},
		{Duration: 20, Method: Constant},
		{Duration: 30, Method: Constant},
	}, p.Steps())
	assert.Equal(t, 60, p.TotalDuration())

	require.NoError(t, p.RemoveStep(0))
	require.NoError(t, p.RemoveLastStep())
	assert.Equal(t, []Step{
		{Method: Constant},
		{Duration: 20, Method: Constant},
	}, p.Steps())

	assert.True(t, errors.Is(p.RemoveStep(2), ErrOutOfRange))
	assert.True(t, errors.Is(p.RemoveStep(-1), ErrOutOfRange))
	_, err = p.Step(2)
	assert.True(t, errors.Is(err, ErrOutOfRange))
}

func TestProgramFull(t *testing.T) {
	p := New(newFS(t, 512))

	for ix := 0; ix < MaxSteps; ix++ {
		require.NoError(t, p.AppendStep())
	}
	assert.Equal(t, MaxBytes, p.Size())
	assert.True(t, errors.Is(p.AppendStep(), ErrProgramFull))
	assert.True(t, errors.Is(
		p.SetSteps(make([]Step, MaxSteps+1)), ErrProgramFull))
}

func TestSetters(t *testing.T) {
	p := New(newFS(t, 512))
	require.NoError(t, p.AppendStep())

	require.NoError(t, p.SetTemperature(0, 127))
	require.NoError(t, p.SetMethod(0, Linear))
	require.NoError(t, p.SetDuration(0, 90))
	s, err := p.Step(0)
	require.NoError(t, err)
	assert.Equal(t, Step{Duration: 90, Temperature: 127, Method: Linear}, s)

	assert.True(t, errors.Is(p.SetTemperature(0, 128), ErrOutOfRange))
	assert.True(t, errors.Is(p.SetDuration(1, 1), ErrOutOfRange))
	assert.True(t, errors.Is(
		p.SetSteps([]Step{{Temperature: 200}}), ErrOutOfRange))
}

func TestTemperatureAt(t *testing.T) {
	p := withSteps(t, newFS(t, 512),
		Step{Duration: 10, Temperature: 100, Method: Linear},
		Step{Duration: 5, Temperature: 50, Method: Constant},
	)
	require.Equal(t, 20, p.Baseline())

	assert.Equal(t, 20, p.TemperatureAt(0))
	assert.Equal(t, 60, p.TemperatureAt(5))
	assert.Equal(t, 100, p.TemperatureAt(10))
	assert.Equal(t, 50, p.TemperatureAt(12))
	assert.Equal(t, 0, p.TemperatureAt(15))
	assert.Equal(t, 0, p.TemperatureAt(-1))
}

func TestTemperatureAtRampsFromPreviousStep(t *testing.T) {
	p := withSteps(t, newFS(t, 512),
		Step{Duration: 10, Temperature: 50, Method: Constant},
		Step{Duration: 10, Temperature: 100, Method: Linear},
		Step{Duration: 3, Temperature: 99, Method: Linear},
	)

	assert.Equal(t, 50, p.TemperatureAt(10))
	assert.Equal(t, 55, p.TemperatureAt(11))
	assert.Equal(t, 75, p.TemperatureAt(15))
	assert.Equal(t, 100, p.TemperatureAt(21), "99.67 rounds up")
	assert.Equal(t, 99, p.TemperatureAt(22), "99.33 rounds down")
}

func TestTemperatureAtBaseline(t *testing.T) {
	p := withSteps(t, newFS(t, 512),
		Step{Duration: 3, Temperature: 21, Method: Linear},
	)

	assert.Equal(t, 20, p.TemperatureAt(1))
	assert.Equal(t, 21, p.TemperatureAt(2))

	p.SetBaseline(0)
	assert.Equal(t, 7, p.TemperatureAt(1))
}

func TestTemperatureAtSkipsStepsWithoutDuration(t *testing.T) {
	p := withSteps(t, newFS(t, 512),
		Step{Duration: 0, Temperature: 100, Method: Constant},
		Step{Duration: 10, Temperature: 50, Method: Linear},
	)

	assert.Equal(t, 1, p.StepAt(0))
	assert.Equal(t, 100, p.TemperatureAt(0))
	assert.Equal(t, 75, p.TemperatureAt(5))
}

func TestStepAtBeyondEnd(t *testing.T) {
	p := withSteps(t, newFS(t, 512),
		Step{Duration: 10, Temperature: 50, Method: Constant},
		Step{Duration: 10, Temperature: 60, Method: Constant},
	)
	assert.Equal(t, 1, p.StepAt(15))
	assert.Equal(t, 0, p.StepAt(100))
}

func TestSaveAndReload(t *testing.T) {
	fs := newFS(t, 1024)
	steps := []Step{
		{Duration: 60, Temperature: 60, Method: Linear},
		{Duration: 120, Temperature: 120, Method: Constant},
	}

	p, err := Load(fs, 5)
	require.NoError(t, err)
	require.NoError(t, p.SetSteps(steps))
	require.NoError(t, p.Save())

	q, err := Load(fs, 5)
	require.NoError(t, err)
	assert.Equal(t, steps, q.Steps())

	require.NoError(t, q.AppendStep())
	require.NoError(t, q.Save())
	assert.Equal(t, 1, fs.Count())

	f, err := fs.Open(5)
	require.NoError(t, err)
	assert.Equal(t, 6, f.Size())
	assert.True(t, fs.Check())
}

func TestSaveAssignsID(t *testing.T) {
	fs := newFS(t, 1024)

	_, err := fs.Create(0, 1)
	require.NoError(t, err)

	p := withSteps(t, fs, Step{Duration: 1})
	require.NoError(t, p.Save())
	assert.Equal(t, byte(2), p.ID())
}

func TestFailedSaveIsDestructive(t *testing.T) {
	fs := newFS(t, 257)

	a, err := Load(fs, 1)
	require.NoError(t, err)
	require.NoError(t, a.SetSteps(make([]Step, 50)))
	require.NoError(t, a.Save())

	b, err := Load(fs, 2)
	require.NoError(t, err)
	require.NoError(t, b.SetSteps(make([]Step, 50)))
	require.NoError(t, b.Save())

	require.NoError(t, a.SetSteps(make([]Step, MaxSteps)))
	err = a.Save()
	assert.True(t, errors.Is(err, microfs.ErrOutOfSpace))

	_, err = fs.Open(1)
	assert.True(t, errors.Is(err, microfs.ErrNotFound))
	assert.True(t, fs.Check())
}

func TestList(t *testing.T) {
	fs := newFS(t, 1024)

	withSteps(t, fs, Step{Duration: 10}, Step{Duration: 20}).Save()
	withSteps(t, fs, Step{Duration: 5}).Save()

	infos, err := List(fs)
	require.NoError(t, err)
	assert.Equal(t, []Info{
		{ID: 1, Steps: 2, Duration: 30, Size: 4},
		{ID: 2, Steps: 1, Duration: 5, Size: 2},
	}, infos)

	require.NoError(t, Delete(fs, 1))
	infos, err = List(fs)
	require.NoError(t, err)
	assert.Len(t, infos, 1)
}
