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
	"os"

	"github.com/xelalexv/kilnctl/pkg/eeprom"
	"github.com/xelalexv/kilnctl/pkg/microfs"
)

//
func NewFormat() *Format {

	f := &Format{}
	f.Runner = *NewRunner(
		`format [-i|--image {file} [-s|--size {bytes}]] [-a|--address {address}]
      [-f|--force] [-y|--yes]`,
		"format image file or daemon's store",
		`
Use the format command to format the program file system. All programs are
lost. An image file that does not exist yet is created with the given size.`,
		"", runnerHelpEpilogue, f.Run)

	f.AddBaseSettings()
	f.AddSetting(&f.Image, "image", "i", "", nil, "EEPROM image file", false)
	f.AddSetting(&f.Size, "size", "s", "", 1024,
		"size of new image file in bytes", false)
	f.AddSetting(&f.Force, "force", "f", "", false,
		"format even if programs are present", false)
	f.AddSetting(&f.Yes, "yes", "y", "", false, "skip confirmation", false)

	return f
}

//
type Format struct {
	//
	Runner
	//
	Image string
	Size  int
	Force bool
	Yes   bool
}

//
func (f *Format) Run() error {

	if err := f.ParseSettings(); err != nil {
		return err
	}

	if !f.Yes && !GetUserConfirmation(
		"\nformatting erases all programs. Proceed?") {
		return nil
	}

	if f.Image != "" {
		return f.formatLocal()
	}

	resp, err := f.apiCall("PUT",
		fmt.Sprintf("/format?force=%v", f.Force), false, nil)
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

//
func (f *Format) formatLocal() error {

	size := f.Size
	if info, err := os.Stat(f.Image); err == nil {
		size = int(info.Size())
	}

	img, err := eeprom.OpenImage(f.Image, size)
	if err != nil {
		return err
	}
	defer img.Close()

	fs, err := microfs.NewFileSystem(img, nil)
	if err != nil {
		return err
	}

	if n := fs.Count(); n > 0 && fs.Check() && !f.Force {
		return fmt.Errorf(
			"image holds %d programs, use --force to format anyway", n)
	}

	if err := fs.Format(); err != nil {
		return err
	}

	fmt.Printf("formatted %d bytes\n", size)
	return nil
}
