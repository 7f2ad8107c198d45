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
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"io/ioutil"
	"os"

	"github.com/xelalexv/kilnctl/pkg/control"
	"github.com/xelalexv/kilnctl/pkg/eeprom"
	"github.com/xelalexv/kilnctl/pkg/microfs"
)

//
func NewDump() *Dump {

	d := &Dump{}
	d.Runner = *NewRunner(
		"dump [-i|--input {file}] [-n|--id {id}] [-a|--address {address}]",
		"dump image from file or daemon",
		`
Use the dump command to output the header chain and a hex dump of an EEPROM
image, from file or from daemon. Input files may be compressed (gz, zip, 7z).
With an id, only the data of that program file is dumped.`,
		"", runnerHelpEpilogue, d.Run)

	d.AddBaseSettings()
	d.AddSetting(&d.Input, "input", "i", "", nil, "EEPROM image input file", false)
	d.AddSetting(&d.ID, "id", "n", "", 0, "program file to dump", false)

	return d
}

//
type Dump struct {
	//
	Runner
	//
	Input string
	ID    int
}

//
func (d *Dump) Run() error {

	if err := d.ParseSettings(); err != nil {
		return err
	}

	if d.ID != 0 {
		if err := validateID(d.ID); err != nil {
			return err
		}
	}

	var image []byte

	if d.Input != "" {
		f, err := os.Open(d.Input)
		if err != nil {
			return err
		}
		defer f.Close()

		_, comp := eeprom.SplitNameCompressor(d.Input)

		rd, err := eeprom.NewImageReader(
			ioutil.NopCloser(bufio.NewReader(f)), comp)
		if err != nil {
			return err
		}

		if image, err = ioutil.ReadAll(rd); err != nil {
			return err
		}

	} else if d.ID == 0 {
		resp, err := d.apiCall("GET", "/dump", false, nil)
		if err != nil {
			return err
		}
		defer resp.Close()
		if _, err := io.Copy(os.Stdout, resp); err != nil {
			return err
		}
		fmt.Println()
		return nil

	} else {
		resp, err := d.apiCall("GET", "/backup", false, nil)
		if err != nil {
			return err
		}
		defer resp.Close()
		if image, err = ioutil.ReadAll(resp); err != nil {
			return err
		}
	}

	return dumpImage(os.Stdout, image, byte(d.ID))
}

// dumpImage writes chain and hex dump of image to w. If id is not 0, only
// the data of that file is dumped.
func dumpImage(w io.Writer, image []byte, id byte) error {

	if len(image) < microfs.HeaderLength {
		return fmt.Errorf("image too small: %d bytes", len(image))
	}

	fs, err := microfs.NewFileSystem(eeprom.NewMemoryFrom(image), nil)
	if err != nil {
		return err
	}

	hd := hex.Dumper(w)
	defer fmt.Fprintln(w)
	defer hd.Close()

	if id == 0 {
		chain, err := fs.Chain()
		control.WriteChain(w, chain, err)
		_, err = hd.Write(image)
		return err
	}

	f, err := fs.Open(id)
	if err != nil {
		return err
	}

	data, err := f.Bytes()
	if err != nil {
		return err
	}

	_, err = hd.Write(data)
	return err
}
