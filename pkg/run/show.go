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

	"github.com/xelalexv/kilnctl/pkg/microfs"
	"github.com/xelalexv/kilnctl/pkg/program"
)

//
func NewShow() *Show {

	s := &Show{}
	s.Runner = *NewRunner(
		`show -n|--id {id} [-t|--type {json|yaml}] [-i|--image {file}]
      [-a|--address {address}]`,
		"show a program from image file or daemon",
		`
Use the show command to output a program, either as a step listing, or as a
program document that can be edited and stored again with the put command.`,
		"  kilnctl show -n 3 -t yaml > 3.yaml", runnerHelpEpilogue, s.Run)

	s.AddBaseSettings()
	s.AddSetting(&s.ID, "id", "n", "", nil, "program id (1-255)", true)
	s.AddSetting(&s.Type, "type", "t", "", nil,
		"output document type, json or yaml", false)
	s.AddSetting(&s.Image, "image", "i", "", nil, "EEPROM image file", false)

	return s
}

//
type Show struct {
	//
	Runner
	//
	ID    int
	Type  string
	Image string
}

//
func (s *Show) Run() error {

	if err := s.ParseSettings(); err != nil {
		return err
	}

	if err := validateID(s.ID); err != nil {
		return err
	}

	if s.Image != "" {
		return withLocal(s.Image, func(fs *microfs.FileSystem) error {
			if _, err := fs.Open(byte(s.ID)); err != nil {
				return err
			}
			p, err := program.Load(fs, byte(s.ID))
			if err != nil {
				return err
			}
			if s.Type == "" {
				p.Emit(os.Stdout)
				return nil
			}
			data, err := program.NewDocument(p).Marshal(s.Type)
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		})
	}

	resp, err := s.apiCall("GET",
		fmt.Sprintf("/program/%d?type=%s", s.ID, s.Type), false, nil)
	if err != nil {
		return err
	}
	defer resp.Close()

	_, err = io.Copy(os.Stdout, resp)
	return err
}
