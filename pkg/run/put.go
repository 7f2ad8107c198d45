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
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"net/url"

	"github.com/xelalexv/kilnctl/pkg/program"
	"github.com/xelalexv/kilnctl/pkg/repo"
)

//
func NewPut() *Put {

	p := &Put{}
	p.Runner = *NewRunner(
		`put -f|--file {file}|-r|--ref {reference} [-n|--id {id}]
      [-a|--address {address}]`,
		"store a program document in the daemon",
		`
Use the put command to store a program document in JSON or YAML syntax. If the
file is named after a program id, such as 12.yaml, that id is used, unless an
id is given explicitly. Without any id, the daemon assigns a free one.

Instead of a file, a reference can be given, either an http(s) URL, or a
document in the daemon's program library, such as repo://glaze.yaml.`,
		"  kilnctl put -f glaze.yaml -n 4\n  kilnctl put -r repo://glaze.yaml -n 5",
		runnerHelpEpilogue, p.Run)

	p.AddBaseSettings()
	p.AddSetting(&p.File, "file", "f", "", nil, "program document file", false)
	p.AddSetting(&p.Ref, "ref", "r", "", nil,
		"reference to program document", false)
	p.AddSetting(&p.ID, "id", "n", "", 0, "program id (1-255)", false)
	p.AddSetting(&p.Type, "type", "t", "", nil,
		"document type, json or yaml; taken from file extension if omitted",
		false)

	return p
}

//
type Put struct {
	//
	Runner
	//
	File string
	Ref  string
	ID   int
	Type string
}

//
func (p *Put) Run() error {

	if err := p.ParseSettings(); err != nil {
		return err
	}

	if (p.File == "") == (p.Ref == "") {
		return fmt.Errorf("either file or reference is required")
	}

	id, typ := p.idAndType()
	if p.ID != 0 {
		if err := validateID(p.ID); err != nil {
			return err
		}
		id = byte(p.ID)
	}

	if p.Ref != "" {
		return p.put(fmt.Sprintf("/program/%d?type=%s&ref=%s",
			id, typ, url.QueryEscape(p.Ref)), nil)
	}

	data, err := ioutil.ReadFile(p.File)
	if err != nil {
		return err
	}

	// fail early on invalid documents
	if _, err := program.ParseDocument(data, typ); err != nil {
		return err
	}

	return p.put(fmt.Sprintf("/program/%d?type=%s", id, typ),
		bytes.NewReader(data))
}

//
func (p *Put) put(path string, body io.Reader) error {

	resp, err := p.apiCall("PUT", path, false, body)
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

// idAndType derives program id and document type from the file name or
// reference. For files, type defaults to yaml if it cannot be determined.
// For references, the daemon decides.
func (p *Put) idAndType() (byte, string) {

	name := p.File
	if name == "" {
		name = p.Ref
	}

	id, typ, err := program.SplitIDType(name)
	if err != nil {
		id = 0
		typ = repo.DocumentType(name)
		if typ == "" && p.File != "" {
			typ = "yaml"
		}
	}

	if p.Type != "" {
		typ = p.Type
	}

	return id, typ
}
