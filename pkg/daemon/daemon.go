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
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/kilnctl/pkg/eeprom"
	"github.com/xelalexv/kilnctl/pkg/microfs"
	"github.com/xelalexv/kilnctl/pkg/program"
	"github.com/xelalexv/kilnctl/pkg/repo"
	"github.com/xelalexv/kilnctl/pkg/util"
)

const (
	DefaultTick          = time.Minute
	DefaultImportBackoff = 2 * time.Second
)

// ErrBusy is returned when the file system lock could not be acquired in time
var ErrBusy = errors.New("file system busy")

//
type Config struct {
	// directory watched for program files named <id>.json or <id>.yaml
	ImportDir     string
	ImportBackoff time.Duration
	// directory of program documents that can be searched and referenced
	Library string
	// baseline temperature from which the first step of a program starts
	Baseline int
	// wall clock duration of one program minute while firing
	Tick time.Duration
}

//
func NewDaemon(store eeprom.Store, placement microfs.Placement, heater Heater,
	cfg Config) (*Daemon, error) {

	fs, err := microfs.NewFileSystem(store, placement)
	if err != nil {
		return nil, err
	}

	if heater == nil {
		heater = &LogHeater{}
	}
	if cfg.Tick <= 0 {
		cfg.Tick = DefaultTick
	}
	if cfg.ImportBackoff <= 0 {
		cfg.ImportBackoff = DefaultImportBackoff
	}

	d := &Daemon{
		store:  store,
		fs:     fs,
		heater: heater,
		cfg:    cfg,
		lock:   make(chan bool, 1),
	}
	d.lock <- true

	return d, nil
}

/*
	Daemon is the single owner of a file system and its backing store. All
	access to the file system has to go through Do, which serializes callers.
	Firing a program and importing program files are also handled here.
*/
type Daemon struct {
	store   eeprom.Store
	fs      *microfs.FileSystem
	heater  Heater
	cfg     Config
	lock    chan bool
	watcher *util.DirWatcher
	library *repo.Index
	firing  firing
}

//
func (d *Daemon) Start() error {

	log.WithFields(log.Fields{
		"size":     d.store.Size(),
		"baseline": d.cfg.Baseline,
		"tick":     d.cfg.Tick}).Info("starting daemon")

	if err := d.Do(context.Background(), func(fs *microfs.FileSystem) error {
		if !fs.Check() {
			log.Warn(
				"file system is inconsistent, it needs to be formatted before use")
		} else {
			log.WithField("files", fs.Count()).Info("file system consistent")
		}
		return nil
	}); err != nil {
		return err
	}

	if d.cfg.ImportDir != "" {
		w, err := util.NewDirWatcher(d.cfg.ImportDir)
		if err != nil {
			return fmt.Errorf("cannot watch import directory: %w", err)
		}
		if err := w.Start(d.cfg.ImportBackoff, d.importProgram); err != nil {
			w.Stop()
			return err
		}
		d.watcher = w
		log.WithField("dir", d.cfg.ImportDir).Info("watching import directory")
	}

	if d.cfg.Library != "" {
		lib, err := repo.NewIndex(d.cfg.Library)
		if err != nil {
			return fmt.Errorf("cannot open program library: %w", err)
		}
		if err := lib.Start(d.cfg.ImportBackoff); err != nil {
			lib.Stop()
			return err
		}
		d.library = lib
	}

	return nil
}

// Stop ends a running firing and stops the import watcher.
func (d *Daemon) Stop() {
	log.Info("stopping daemon")
	d.StopFiring()
	if d.watcher != nil {
		d.watcher.Stop()
		d.watcher = nil
	}
	if d.library != nil {
		d.library.Stop()
		d.library = nil
	}
}

// Library returns the program library index, or nil if no library is
// configured.
func (d *Daemon) Library() *repo.Index {
	return d.library
}

// LibraryDir returns the program library directory, or an empty string if no
// library is configured.
func (d *Daemon) LibraryDir() string {
	if d.library == nil {
		return ""
	}
	return d.library.Dir()
}

//
func (d *Daemon) Lock(ctx context.Context) bool {
	select {
	case <-d.lock:
		return true
	case <-ctx.Done():
		return false
	}
}

//
func (d *Daemon) Unlock() {
	select {
	case d.lock <- true:
	default:
		log.Warn("unlocking file system that was not locked")
	}
}

/*
	Do calls fn with the file system while holding the lock. If the lock can
	not be acquired before ctx is done, ErrBusy is returned.
*/
func (d *Daemon) Do(ctx context.Context,
	fn func(fs *microfs.FileSystem) error) error {
	if !d.Lock(ctx) {
		return ErrBusy
	}
	defer d.Unlock()
	return fn(d.fs)
}

//
func (d *Daemon) Size() int {
	return d.store.Size()
}

//
func (d *Daemon) Baseline() int {
	return d.cfg.Baseline
}

// LoadProgram loads program id from fs using the configured baseline. Unlike
// program.Load, a missing program is an error.
func (d *Daemon) LoadProgram(fs *microfs.FileSystem, id byte) (
	*program.Program, error) {

	if _, err := fs.Open(id); err != nil {
		return nil, fmt.Errorf("cannot load program %d: %w", id, err)
	}

	p, err := program.Load(fs, id)
	if err != nil {
		return nil, err
	}
	p.SetBaseline(d.cfg.Baseline)
	return p, nil
}

//
func (d *Daemon) importProgram(path string) error {

	logger := log.WithField("path", path)

	id, typ, err := program.SplitIDType(path)
	if err != nil {
		logger.Debugf("ignoring file: %v", err)
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Debug("file gone before import")
			return nil
		}
		return err
	}

	doc, err := program.ParseDocument(data, typ)
	if err != nil {
		return fmt.Errorf("invalid program file: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var p *program.Program
	if err := d.Do(ctx, func(fs *microfs.FileSystem) error {
		p, err = doc.Store(fs, id)
		return err
	}); err != nil {
		return err
	}

	logger.WithFields(log.Fields{
		"id":    p.ID(),
		"steps": p.StepCount()}).Info("program imported")
	return nil
}
