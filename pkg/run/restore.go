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
	"fmt"
	"io"
	"io/ioutil"
	"net/url"
	"os"

	"github.com/xelalexv/kilnctl/pkg/eeprom"
)

//
func NewRestore() *Restore {

	r := &Restore{}
	r.Runner = *NewRunner(
		`restore -i|--input {file}|-r|--ref {reference} [-c|--compressor {gz|zip|7z}]
      [-y|--yes] [-a|--address {address}]`,
		"load an EEPROM image into the daemon's store",
		`
Use the restore command to overwrite the daemon's store with an image, such as
one saved by the backup command. The image may be compressed with gzip, or
packed into a zip or 7z archive. Instead of a file, a reference can be given,
either an http(s) URL, or a file in the daemon's program library.`,
		"", runnerHelpEpilogue, r.Run)

	r.AddBaseSettings()
	r.AddSetting(&r.Input, "input", "i", "", nil, "image input file", false)
	r.AddSetting(&r.Ref, "ref", "r", "", nil, "reference to image", false)
	r.AddSetting(&r.Compressor, "compressor", "c", "", nil,
		"compressor of input file; taken from file extension if omitted",
		false)
	r.AddSetting(&r.Yes, "yes", "y", "", false, "skip confirmation", false)

	return r
}

//
type Restore struct {
	//
	Runner
	//
	Input      string
	Ref        string
	Compressor string
	Yes        bool
}

//
func (r *Restore) Run() error {

	if err := r.ParseSettings(); err != nil {
		return err
	}

	if (r.Input == "") == (r.Ref == "") {
		return fmt.Errorf("either input file or reference is required")
	}

	comp := r.Compressor
	if comp == "" {
		_, comp = eeprom.SplitNameCompressor(r.Input + r.Ref)
	}

	if !r.Yes && !GetUserConfirmation(
		"\nrestoring overwrites all programs. Proceed?") {
		return nil
	}

	var body io.Reader
	path := fmt.Sprintf("/restore?compressor=%s", comp)

	if r.Ref != "" {
		path = fmt.Sprintf("%s&ref=%s", path, url.QueryEscape(r.Ref))

	} else {
		f, err := os.Open(r.Input)
		if err != nil {
			return err
		}
		defer f.Close()
		body = bufio.NewReader(f)
	}

	resp, err := r.apiCall("PUT", path, false, body)
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
