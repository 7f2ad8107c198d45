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
	"io/ioutil"

	"github.com/xelalexv/kilnctl/pkg/microfs"
)

//
func NewStatus() *Status {

	s := &Status{}
	s.Runner = *NewRunner(
		"status [-i|--image {file}] [-a|--address {address}]",
		"show file system status from image file or daemon",
		`
Use the status command to show space usage and consistency of the program file
system, either of an image file, or of the daemon's store.`,
		"", runnerHelpEpilogue, s.Run)

	s.AddBaseSettings()
	s.AddSetting(&s.Image, "image", "i", "", nil, "EEPROM image file", false)

	return s
}

//
type Status struct {
	//
	Runner
	//
	Image string
}

//
func (s *Status) Run() error {

	if err := s.ParseSettings(); err != nil {
		return err
	}

	if s.Image != "" {
		return withLocal(s.Image, func(fs *microfs.FileSystem) error {
			fmt.Printf("\n%s\n\n", fs.Stats())
			return nil
		})
	}

	resp, err := s.apiCall("GET", "/status", false, nil)
	if err != nil {
		return err
	}
	defer resp.Close()

	msg, err := ioutil.ReadAll(resp)
	if err != nil {
		return err
	}

	fmt.Printf("\n%s\n\n", msg)
	return nil
}
