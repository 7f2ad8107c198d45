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
func NewRm() *Rm {

	r := &Rm{}
	r.Runner = *NewRunner(
		"rm -n|--id {id} [-a|--address {address}]",
		"delete a program in the daemon",
		"\nUse the rm command to delete a program.",
		"", runnerHelpEpilogue, r.Run)

	r.AddBaseSettings()
	r.AddSetting(&r.ID, "id", "n", "", nil, "program id (1-255)", true)

	return r
}

//
type Rm struct {
	//
	Runner
	//
	ID int
}

//
func (r *Rm) Run() error {

	if err := r.ParseSettings(); err != nil {
		return err
	}

	if err := validateID(r.ID); err != nil {
		return err
	}

	resp, err := r.apiCall("DELETE",
		fmt.Sprintf("/program/%d", r.ID), false, nil)
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
