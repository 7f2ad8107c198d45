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
)

//
func NewBackup() *Backup {

	b := &Backup{}
	b.Runner = *NewRunner(
		"backup -o|--output {file} [-a|--address {address}]",
		"save the daemon's EEPROM image to a file",
		`
Use the backup command to save a raw copy of the daemon's store. The file can
later be loaded with the restore command, or used as image file.`,
		"", runnerHelpEpilogue, b.Run)

	b.AddBaseSettings()
	b.AddSetting(&b.Output, "output", "o", "", nil, "image output file", true)
	b.AddSetting(&b.Force, "force", "f", "", false,
		"overwrite existing file", false)

	return b
}

//
type Backup struct {
	//
	Runner
	//
	Output string
	Force  bool
}

//
func (b *Backup) Run() error {

	if err := b.ParseSettings(); err != nil {
		return err
	}

	if _, err := os.Stat(b.Output); err == nil && !b.Force {
		return fmt.Errorf("output file %s exists, use --force to overwrite",
			b.Output)
	}

	resp, err := b.apiCall("GET", "/backup", false, nil)
	if err != nil {
		return err
	}
	defer resp.Close()

	f, err := os.Create(b.Output)
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := io.Copy(f, resp)
	if err != nil {
		return err
	}

	fmt.Printf("saved %d bytes to %s\n", n, b.Output)
	return nil
}
