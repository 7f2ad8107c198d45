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

package repo

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

// RefPrefix marks references to files in the program library
const RefPrefix = "repo://"

/*
	Resolve opens the source a reference points to. References are either
	http(s) URLs, or names of files in the program library directory dir,
	prefixed with `repo://`.
*/
func Resolve(ref, dir string) (io.ReadCloser, error) {

	log.WithFields(log.Fields{"ref": ref, "library": dir}).Debug("resolving")

	switch {

	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return NewHTTPSource(ref)

	case strings.HasPrefix(ref, RefPrefix):
		if dir == "" {
			return nil, fmt.Errorf("no program library configured")
		}
		return NewFileSource(dir, strings.TrimPrefix(ref, RefPrefix))
	}

	return nil, fmt.Errorf("unsupported reference: %s", ref)
}

// DocumentType returns the program document type for a file name or
// reference, or an empty string if it cannot be determined.
func DocumentType(name string) string {
	typ := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	switch typ {
	case "json", "yaml", "yml":
		return typ
	}
	return ""
}
