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

package run

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/kilnctl/pkg/control"
	"github.com/xelalexv/kilnctl/pkg/daemon"
	"github.com/xelalexv/kilnctl/pkg/eeprom"
	"github.com/xelalexv/kilnctl/pkg/microfs"
	"github.com/xelalexv/kilnctl/pkg/program"
)

//
func NewServe() *Serve {

	s := &Serve{}
	s.Runner = *NewRunner(
		`serve [-i|--image {file}] [-p|--port {serial port}] [-l|--listen {address}]
      [--import {dir}] [--library {dir}]`,
		"start the daemon",
		`
Use the serve command to start the daemon. It owns the program store, which is
either an image file, or the EEPROM of a controller board attached to a serial
port. Other commands talk to the daemon through its API.`,
		`  kilnctl serve --image kiln.eep --size 1024 --import ./programs`,
		`- When using an image file that does not exist yet, it is created with the
  given size, and needs to be formatted before use.
- Files named <id>.json or <id>.yaml placed into the import directory are
  stored as program <id>.

`+runnerHelpEpilogue, s.Run)

	s.addLogSettings()
	s.AddSetting(&s.Listen, "listen", "l", "LISTEN_ADDRESS", ":8888",
		"listen address and port for API server", false)
	s.AddSetting(&s.Image, "image", "i", "IMAGE", nil,
		"EEPROM image file", false)
	s.AddSetting(&s.Size, "size", "s", "SIZE", 1024,
		"size of EEPROM image in bytes", false)
	s.AddSetting(&s.Port, "port", "p", "PORT", nil,
		"serial port of controller board", false)
	s.AddSetting(&s.BaudRate, "baud-rate", "b", "BAUD_RATE", uint(9600),
		"baud rate of serial port", false)
	s.AddSetting(&s.Import, "import", "", "IMPORT_DIR", nil,
		"directory to import program files from", false)
	s.AddSetting(&s.Library, "library", "", "LIBRARY_DIR", nil,
		"directory of program documents to search & reference", false)
	s.AddSetting(&s.Baseline, "baseline", "", "BASELINE",
		program.DefaultBaseline, "baseline temperature for first step", false)
	s.AddSetting(&s.Tick, "tick", "", "TICK", daemon.DefaultTick,
		"duration of one program minute when firing", false)
	s.AddSetting(&s.Seed, "seed", "", "PLACEMENT_SEED", int64(0),
		"seed for file placement, 0 for random", false)

	return s
}

//
type Serve struct {
	//
	Runner
	//
	Listen   string
	Image    string
	Size     int
	Port     string
	BaudRate uint
	Import   string
	Library  string
	Baseline int
	Tick     time.Duration
	Seed     int64
}

//
func (s *Serve) Run() error {

	if err := s.ParseSettings(); err != nil {
		return err
	}

	store, err := s.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	var placement microfs.Placement
	if s.Seed != 0 {
		placement = microfs.NewRandomPlacement(s.Seed)
	}

	d, err := daemon.NewDaemon(store, placement, nil, daemon.Config{
		ImportDir: s.Import,
		Library:   s.Library,
		Baseline:  s.Baseline,
		Tick:      s.Tick,
	})
	if err != nil {
		return err
	}

	if err := d.Start(); err != nil {
		return err
	}
	defer d.Stop()

	api := control.NewAPIServer(s.Listen, d)
	errs := make(chan error, 1)
	go func() {
		errs <- api.Serve()
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err = <-errs:
		return err
	case v := <-sig:
		log.WithField("signal", v).Info("shutting down")
	}

	return api.Stop()
}

//
type closingStore interface {
	eeprom.Store
	io.Closer
}

//
func (s *Serve) openStore() (closingStore, error) {

	if s.Port != "" {
		if s.Image != "" {
			return nil, fmt.Errorf("use either image or serial port, not both")
		}
		return eeprom.OpenSerial(s.Port, s.BaudRate)
	}

	if s.Image == "" {
		return nil, fmt.Errorf("either image or serial port is required")
	}

	return eeprom.OpenImage(s.Image, s.Size)
}
