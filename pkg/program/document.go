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

package program

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/xelalexv/kilnctl/pkg/microfs"
)

// Document is the exchange format of a program, for program files and the
// control API.
type Document struct {
	ID byte `json:"id" yaml:"id"`
	// not stored with the program, for program libraries only
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Steps       []Step `json:"steps" yaml:"steps"`
}

// NewDocument creates the document of program p.
func NewDocument(p *Program) *Document {
	return &Document{ID: p.ID(), Steps: p.Steps()}
}

// ParseDocument parses a program document. typ selects the syntax, either
// `json` or `yaml`/`yml`.
func ParseDocument(data []byte, typ string) (*Document, error) {

	doc := &Document{}
	var err error

	switch strings.ToLower(typ) {
	case "json":
		err = json.Unmarshal(data, doc)
	case "yaml", "yml":
		err = yaml.Unmarshal(data, doc)
	default:
		return nil, fmt.Errorf("unsupported document type: %s", typ)
	}

	if err != nil {
		return nil, fmt.Errorf("invalid program document: %v", err)
	}

	return doc, nil
}

// Marshal renders the document. typ selects the syntax as for ParseDocument.
func (d *Document) Marshal(typ string) ([]byte, error) {
	switch strings.ToLower(typ) {
	case "json":
		return json.MarshalIndent(d, "", "  ")
	case "yaml", "yml":
		return yaml.Marshal(d)
	}
	return nil, fmt.Errorf("unsupported document type: %s", typ)
}

// Store saves the document as a program. If id is not 0, it overrides the
// document's id.
func (d *Document) Store(fs *microfs.FileSystem, id byte) (*Program, error) {

	if id == 0 {
		id = d.ID
	}

	p, err := Load(fs, id)
	if err != nil {
		return nil, err
	}

	if err := p.SetSteps(d.Steps); err != nil {
		return nil, err
	}

	if err := p.Save(); err != nil {
		return nil, err
	}

	return p, nil
}

// SplitIDType splits the name of a program file, such as `12.yaml`, into the
// program id and the document type.
func SplitIDType(file string) (byte, string, error) {

	_, name := filepath.Split(file)
	ext := filepath.Ext(name)
	typ := strings.ToLower(strings.TrimPrefix(ext, "."))

	id, err := strconv.ParseUint(strings.TrimSuffix(name, ext), 10, 8)
	if err != nil {
		return 0, "", fmt.Errorf("not a program file name: %s", name)
	}

	switch typ {
	case "json", "yaml", "yml":
		return byte(id), typ, nil
	}

	return 0, "", fmt.Errorf("unsupported program file type: %s", name)
}

// Info summarizes a stored program.
type Info struct {
	ID       byte `json:"id"`
	Steps    int  `json:"steps"`
	Duration int  `json:"duration"`
	Size     int  `json:"size"`
}

//
func (i Info) String() string {
	return fmt.Sprintf("%3d  %3d steps  %5d min  %3d bytes",
		i.ID, i.Steps, i.Duration, i.Size)
}

// List summarizes all programs in the file system, in chain order.
func List(fs *microfs.FileSystem) ([]Info, error) {

	files, err := fs.Ls()
	if err != nil {
		return nil, err
	}

	ret := make([]Info, 0, len(files))
	for _, f := range files {
		p, err := Load(fs, f.ID)
		if err != nil {
			return nil, err
		}
		ret = append(ret, Info{
			ID:       p.ID(),
			Steps:    p.StepCount(),
			Duration: p.TotalDuration(),
			Size:     p.Size(),
		})
	}

	return ret, nil
}
