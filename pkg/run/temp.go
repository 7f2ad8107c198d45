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
func NewTemp() *Temp {

	t := &Temp{}
	t.Runner = *NewRunner(
		"temp -n|--id {id} -m|--minute {minute} [-a|--address {address}]",
		"get the target temperature of a program at a given minute",
		`
Use the temp command to get the target temperature a program prescribes for a
given minute after start.`,
		"", runnerHelpEpilogue, t.Run)

	t.AddBaseSettings()
	t.AddSetting(&t.ID, "id", "n", "", nil, "program id (1-255)", true)
	t.AddSetting(&t.Minute, "minute", "m", "", 0, "minute after start", false)

	return t
}

//
type Temp struct {
	//
	Runner
	//
	ID     int
	Minute int
}

//
func (t *Temp) Run() error {

	if err := t.ParseSettings(); err != nil {
		return err
	}

	if err := validateID(t.ID); err != nil {
		return err
	}

	resp, err := t.apiCall("GET", fmt.Sprintf(
		"/program/%d/temperature?minute=%d", t.ID, t.Minute), false, nil)
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
