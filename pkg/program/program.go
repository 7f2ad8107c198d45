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

// Package program stores temperature profiles, each as one file of packed two
// byte steps.
package program

import (
	"errors"
	"fmt"
	"io"
	"math"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/kilnctl/pkg/microfs"
)

const (
	// DefaultBaseline is the temperature a first linear step ramps from.
	DefaultBaseline = 20
	// MaxBytes is the size limit of a program's data. Steps can only be
	// inserted while a program holds less.
	MaxBytes = 254
	// MaxSteps is the number of steps that fit into MaxBytes.
	MaxSteps = MaxBytes / StepLength
)

var (
	// ErrOutOfRange is returned for step positions or values out of range.
	ErrOutOfRange = errors.New("out of range")
	// ErrProgramFull is returned when a program has no room for another step.
	ErrProgramFull = errors.New("program full")
)

// New creates an empty, unsaved program. It receives an id when saved.
func New(fs *microfs.FileSystem) *Program {
	return &Program{fs: fs, baseline: DefaultBaseline}
}

/*
	Load loads the program with the given id. For id 0 or an id not present in
	the file system, an empty unsaved program is returned, which will be saved
	under that id.
*/
func Load(fs *microfs.FileSystem, id byte) (*Program, error) {

	p := New(fs)
	p.id = id

	if id == 0 {
		return p, nil
	}

	f, err := fs.Open(id)
	if err != nil {
		if errors.Is(err, microfs.ErrNotFound) {
			log.WithField("id", id).Debug("program not found, starting empty")
			return p, nil
		}
		return nil, err
	}

	if p.data, err = f.Bytes(); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"id": id, "steps": p.StepCount()}).Trace("program loaded")

	return p, nil
}

// Delete removes the program with the given id from the file system.
func Delete(fs *microfs.FileSystem, id byte) error {
	return fs.Remove(id)
}

// Program is a temperature profile, an ordered list of steps. Changes are
// kept in memory until Save is called.
type Program struct {
	fs       *microfs.FileSystem
	id       byte
	data     []byte
	baseline int
}

//
func (p *Program) ID() byte {
	return p.id
}

// Baseline returns the temperature a first linear step ramps from.
func (p *Program) Baseline() int {
	return p.baseline
}

//
func (p *Program) SetBaseline(b int) {
	p.baseline = b
}

// Size returns the number of bytes the program occupies in its file.
func (p *Program) Size() int {
	return len(p.data)
}

//
func (p *Program) StepCount() int {
	return len(p.data) / StepLength
}

// TotalDuration returns the sum of all step durations in minutes.
func (p *Program) TotalDuration() int {
	ret := 0
	for ix := 0; ix < p.StepCount(); ix++ {
		ret += int(p.data[ix*StepLength+1])
	}
	return ret
}

// InsertStep inserts a new step at pos, moving later steps back by one. The
// new step has no duration, and holds temperature 0.
func (p *Program) InsertStep(pos int) error {

	if len(p.data) >= MaxBytes {
		return ErrProgramFull
	}
	if pos < 0 || pos > p.StepCount() {
		return fmt.Errorf("%w: step %d", ErrOutOfRange, pos)
	}

	enc := Encode(Step{Method: Constant})
	off := pos * StepLength

	p.data = append(p.data, enc[:]...)
	copy(p.data[off+StepLength:], p.data[off:len(p.data)-StepLength])
	copy(p.data[off:], enc[:])

	return nil
}

// AppendStep adds a new step at the end.
func (p *Program) AppendStep() error {
	return p.InsertStep(p.StepCount())
}

// RemoveStep removes the step at pos, moving later steps forward by one.
func (p *Program) RemoveStep(pos int) error {

	if pos < 0 || pos >= p.StepCount() {
		return fmt.Errorf("%w: step %d", ErrOutOfRange, pos)
	}

	off := pos * StepLength
	p.data = append(p.data[:off], p.data[off+StepLength:]...)

	return nil
}

// RemoveLastStep removes the last step.
func (p *Program) RemoveLastStep() error {
	return p.RemoveStep(p.StepCount() - 1)
}

//
func (p *Program) Step(pos int) (Step, error) {
	if pos < 0 || pos >= p.StepCount() {
		return Step{}, fmt.Errorf("%w: step %d", ErrOutOfRange, pos)
	}
	off := pos * StepLength
	return Decode(p.data[off], p.data[off+1]), nil
}

//
func (p *Program) SetStep(pos int, s Step) error {
	if pos < 0 || pos >= p.StepCount() {
		return fmt.Errorf("%w: step %d", ErrOutOfRange, pos)
	}
	if s.Temperature > MaxTemperature {
		return fmt.Errorf("%w: temperature %d", ErrOutOfRange, s.Temperature)
	}
	enc := Encode(s)
	copy(p.data[pos*StepLength:], enc[:])
	return nil
}

//
func (p *Program) SetDuration(pos int, minutes byte) error {
	return p.modify(pos, func(s *Step) { s.Duration = minutes })
}

//
func (p *Program) SetTemperature(pos int, temp byte) error {
	return p.modify(pos, func(s *Step) { s.Temperature = temp })
}

//
func (p *Program) SetMethod(pos int, m Method) error {
	return p.modify(pos, func(s *Step) { s.Method = m })
}

//
func (p *Program) modify(pos int, change func(s *Step)) error {
	s, err := p.Step(pos)
	if err != nil {
		return err
	}
	change(&s)
	return p.SetStep(pos, s)
}

// Steps returns a copy of all steps.
func (p *Program) Steps() []Step {
	ret := make([]Step, p.StepCount())
	for ix := range ret {
		ret[ix], _ = p.Step(ix)
	}
	return ret
}

// SetSteps replaces all steps of the program.
func (p *Program) SetSteps(steps []Step) error {

	if len(steps) > MaxSteps {
		return fmt.Errorf("%w: %d steps, at most %d allowed",
			ErrProgramFull, len(steps), MaxSteps)
	}

	data := make([]byte, 0, len(steps)*StepLength)
	for ix, s := range steps {
		if s.Temperature > MaxTemperature {
			return fmt.Errorf("%w: temperature %d in step %d",
				ErrOutOfRange, s.Temperature, ix)
		}
		enc := Encode(s)
		data = append(data, enc[:]...)
	}

	p.data = data
	return nil
}

// StepAt returns the index of the step active at the given minute. A minute
// on the boundary between two steps belongs to the earlier one, so a ramp
// reaches its target temperature. Steps without duration are never active.
// For a minute beyond the total duration, this is 0.
func (p *Program) StepAt(minute int) int {
	elapsed := 0
	for ix := 0; ix < p.StepCount(); ix++ {
		d := int(p.data[ix*StepLength+1])
		if d > 0 && minute <= elapsed+d {
			return ix
		}
		elapsed += d
	}
	return 0
}

/*
	TemperatureAt returns the target temperature at the given minute, or 0 if
	the minute is outside of the program. Linear steps interpolate between the
	previous step's temperature, or the baseline for the first step, and their
	own temperature. Constant steps keep their temperature.
*/
func (p *Program) TemperatureAt(minute int) int {

	if minute < 0 || minute >= p.TotalDuration() {
		return 0
	}

	ix := p.StepAt(minute)
	step, _ := p.Step(ix)

	if step.Method == Constant {
		return int(step.Temperature)
	}

	from := p.baseline
	start := 0
	for i := 0; i < ix; i++ {
		prev, _ := p.Step(i)
		from = int(prev.Temperature)
		start += int(prev.Duration)
	}

	return interpolate(from, int(step.Temperature),
		minute-start, int(step.Duration))
}

//
func interpolate(from, to, minute, duration int) int {
	progress := float64(minute) / float64(duration)
	return int(math.Round(float64(from) + float64(to-from)*progress))
}

/*
	Save writes the program to the file system. Any existing file with the
	program's id is removed first, and a new one created, most likely at a
	different location. If creating the new file fails, the old version is
	already gone. A program with id 0 is assigned a free id.
*/
func (p *Program) Save() error {

	logger := log.WithFields(log.Fields{"id": p.id, "size": len(p.data)})

	if p.id != 0 {
		if err := p.fs.Remove(p.id); err != nil &&
			!errors.Is(err, microfs.ErrNotFound) {
			return fmt.Errorf("cannot remove old version of program %d: %w",
				p.id, err)
		}
	}

	f, err := p.fs.Create(len(p.data), p.id)
	if err != nil {
		logger.Errorf("saving program failed: %v", err)
		return fmt.Errorf("cannot save program %d: %w", p.id, err)
	}

	p.id = f.ID()

	if n := f.WriteBytes(0, p.data); n != len(p.data) {
		return fmt.Errorf("%w: program %d, wrote %d of %d bytes",
			microfs.ErrWriteFailed, p.id, n, len(p.data))
	}

	logger.WithField("offset", f.Offset()).Debug("program saved")
	return nil
}

// Emit writes a human readable listing of the program to w.
func (p *Program) Emit(w io.Writer) {
	fmt.Fprintf(w, "\nprogram %d: %d steps, %d min\n\n",
		p.id, p.StepCount(), p.TotalDuration())
	for ix, s := range p.Steps() {
		fmt.Fprintf(w, "  %3d  %s\n", ix, s)
	}
	fmt.Fprintln(w)
}
