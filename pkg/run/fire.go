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
)

//
func NewFire() *Fire {

	f := &Fire{}
	f.Runner = *NewRunner(
		"fire [-n|--id {id}] [-s|--stop] [-a|--address {address}]",
		"start, stop, or query firing of a program",
		`
Use the fire command to start firing a program. The daemon then drives the
heater along the program's temperature profile. Without options, the current
firing status is shown.`,
		"", runnerHelpEpilogue, f.Run)

	f.AddBaseSettings()
	f.AddSetting(&f.ID, "id", "n", "", 0, "program to fire (1-255)", false)
	f.AddSetting(&f.Stop, "stop", "s", "", false, "stop firing", false)

	return f
}

//
type Fire struct {
	//
	Runner
	//
	ID   int
	Stop bool
}

//
func (f *Fire) Run() error {

	if err := f.ParseSettings(); err != nil {
		return err
	}

	method, path := "GET", "/fire"

	if f.Stop {
		if f.ID != 0 {
			return fmt.Errorf("use either id or stop, not both")
		}
		method = "DELETE"

	} else if f.ID != 0 {
		if err := validateID(f.ID); err != nil {
			return err
		}
		method, path = "PUT", fmt.Sprintf("/fire/%d", f.ID)
	}

	resp, err := f.apiCall(method, path, false, nil)
	if err != nil {
		return err
	}
	defer resp.Close()

	msg, err := ioutil.ReadAll(resp)
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", msg)
	return nil
}
