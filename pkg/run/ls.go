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

	"github.com/xelalexv/kilnctl/pkg/control"
	"github.com/xelalexv/kilnctl/pkg/microfs"
	"github.com/xelalexv/kilnctl/pkg/program"
)

//
func NewLs() *Ls {

	l := &Ls{}
	l.Runner = *NewRunner(
		"ls [-i|--image {file}] [-a|--address {address}]",
		"list programs in image file or daemon",
		"\nUse the ls command to list the stored programs.",
		"", runnerHelpEpilogue, l.Run)

	l.AddBaseSettings()
	l.AddSetting(&l.Image, "image", "i", "", nil, "EEPROM image file", false)

	return l
}

//
type Ls struct {
	//
	Runner
	//
	Image string
}

//
func (l *Ls) Run() error {

	if err := l.ParseSettings(); err != nil {
		return err
	}

	if l.Image != "" {
		return withLocal(l.Image, func(fs *microfs.FileSystem) error {
			programs, err := program.List(fs)
			if err != nil {
				return err
			}
			control.WriteProgramList(os.Stdout, programs, fs.Stats())
			return nil
		})
	}

	resp, err := l.apiCall("GET", "/ls", false, nil)
	if err != nil {
		return err
	}
	defer resp.Close()

	_, err = io.Copy(os.Stdout, resp)
	fmt.Println()
	return err
}
