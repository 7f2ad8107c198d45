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

package daemon

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/kilnctl/pkg/microfs"
	"github.com/xelalexv/kilnctl/pkg/program"
)

var (
	ErrFiring    = errors.New("firing in progress")
	ErrNoProgram = errors.New("program has no duration")
)

// Heater is driven with the target temperature while a program is fired.
type Heater interface {
	SetPoint(temp int)
}

// LogHeater only logs set points.
type LogHeater struct{}

//
func (h *LogHeater) SetPoint(temp int) {
	log.WithField("temperature", temp).Info("heater set point")
}

//
type FiringStatus struct {
	Running     bool `json:"running"`
	Program     byte `json:"program"`
	Minute      int  `json:"minute"`
	Duration    int  `json:"duration"`
	Temperature int  `json:"temperature"`
}

//
func (s FiringStatus) String() string {
	if !s.Running {
		return "idle"
	}
	return fmt.Sprintf("firing program %d, minute %d of %d, target %d",
		s.Program, s.Minute, s.Duration, s.Temperature)
}

//
type firing struct {
	mutex  sync.Mutex
	status FiringStatus
	cancel context.CancelFunc
	done   chan struct{}
}

/*
	StartFiring loads program id and drives the heater with its temperature
	profile, one program minute per tick. When the program ends, the heater is
	set to 0.
*/
func (d *Daemon) StartFiring(ctx context.Context, id byte) error {

	var p *program.Program
	if err := d.Do(ctx, func(fs *microfs.FileSystem) error {
		var err error
		p, err = d.LoadProgram(fs, id)
		return err
	}); err != nil {
		return err
	}

	if p.TotalDuration() == 0 {
		return fmt.Errorf("cannot fire program %d: %w", id, ErrNoProgram)
	}

	d.firing.mutex.Lock()
	defer d.firing.mutex.Unlock()

	if d.firing.status.Running {
		return fmt.Errorf("cannot fire program %d: %w", id, ErrFiring)
	}

	fctx, cancel := context.WithCancel(context.Background())
	d.firing.cancel = cancel
	d.firing.done = make(chan struct{})
	d.firing.status = FiringStatus{
		Running:     true,
		Program:     id,
		Duration:    p.TotalDuration(),
		Temperature: p.TemperatureAt(0),
	}

	log.WithFields(log.Fields{
		"program":  id,
		"duration": p.TotalDuration()}).Info("firing started")

	go d.fire(fctx, p, d.firing.done)
	return nil
}

// StopFiring aborts a running firing and waits until it has ended. Returns
// false if nothing was running.
func (d *Daemon) StopFiring() bool {

	d.firing.mutex.Lock()
	if !d.firing.status.Running {
		d.firing.mutex.Unlock()
		return false
	}
	cancel := d.firing.cancel
	done := d.firing.done
	d.firing.mutex.Unlock()

	cancel()
	<-done
	return true
}

//
func (d *Daemon) FiringStatus() FiringStatus {
	d.firing.mutex.Lock()
	defer d.firing.mutex.Unlock()
	return d.firing.status
}

//
func (d *Daemon) fire(ctx context.Context, p *program.Program,
	done chan struct{}) {

	defer close(done)

	ticker := time.NewTicker(d.cfg.Tick)
	defer ticker.Stop()

	total := p.TotalDuration()
	logger := log.WithField("program", p.ID())

	for minute := 0; minute < total; minute++ {

		temp := p.TemperatureAt(minute)
		d.updateFiring(minute, temp)
		d.heater.SetPoint(temp)

		logger.WithFields(log.Fields{
			"minute":      minute,
			"step":        p.StepAt(minute),
			"temperature": temp}).Debug("firing")

		select {
		case <-ctx.Done():
			d.heater.SetPoint(0)
			d.endFiring()
			logger.WithField("minute", minute).Info("firing aborted")
			return
		case <-ticker.C:
		}
	}

	d.heater.SetPoint(0)
	d.endFiring()
	logger.Info("firing finished")
}

//
func (d *Daemon) updateFiring(minute, temp int) {
	d.firing.mutex.Lock()
	defer d.firing.mutex.Unlock()
	d.firing.status.Minute = minute
	d.firing.status.Temperature = temp
}

//
func (d *Daemon) endFiring() {
	d.firing.mutex.Lock()
	defer d.firing.mutex.Unlock()
	d.firing.status = FiringStatus{}
	d.firing.cancel = nil
}
