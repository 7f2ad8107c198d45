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
	"os"

	"github.com/xelalexv/kilnctl/pkg/eeprom"
	"github.com/xelalexv/kilnctl/pkg/microfs"
)

// openLocal opens an existing image file, and the file system it holds. The
// size of the store is the size of the file.
func openLocal(path string) (*eeprom.Image, *microfs.FileSystem, error) {

	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, err
	}
	if info.IsDir() {
		return nil, nil, fmt.Errorf("not an image file: %s", path)
	}

	img, err := eeprom.OpenImage(path, int(info.Size()))
	if err != nil {
		return nil, nil, err
	}

	fs, err := microfs.NewFileSystem(img, nil)
	if err != nil {
		img.Close()
		return nil, nil, err
	}

	return img, fs, nil
}

// withLocal calls fn with the file system of image file path.
func withLocal(path string, fn func(fs *microfs.FileSystem) error) error {
	img, fs, err := openLocal(path)
	if err != nil {
		return err
	}
	defer img.Close()
	return fn(fs)
}
