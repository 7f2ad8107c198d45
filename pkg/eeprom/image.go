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

package eeprom

import (
	"bytes"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
)

/*
	OpenImage opens the EEPROM image file at path. If the file does not exist,
	it is created with size erased bytes. If it does exist and size is not 0,
	the file size needs to match.
*/
func OpenImage(path string, size int) (*Image, error) {

	logger := log.WithFields(log.Fields{"path": path, "size": size})

	info, err := os.Stat(path)

	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		if size <= 0 {
			return nil, fmt.Errorf("need a size for creating new image %s", path)
		}
		logger.Info("creating new image")
		if err := os.WriteFile(path,
			bytes.Repeat([]byte{Erased}, size), 0644); err != nil {
			return nil, err
		}

	} else {
		if info.IsDir() {
			return nil, fmt.Errorf("image path %s is a directory", path)
		}
		if size > 0 && int(info.Size()) != size {
			return nil, fmt.Errorf("image %s has size %d, expected %d",
				path, info.Size(), size)
		}
		size = int(info.Size())
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}

	logger.WithField("size", size).Debug("image opened")
	return &Image{file: f, path: path, length: size}, nil
}

// Image is a store backed by an image file. Every update is written through
// to the file and verified by reading it back.
type Image struct {
	file   *os.File
	path   string
	length int
}

//
func (i *Image) Size() int {
	return i.size()
}

//
func (i *Image) Load(addr int) byte {
	return load(i, addr)
}

//
func (i *Image) Update(addr int, val byte) bool {
	return update(i, addr, val)
}

//
func (i *Image) Path() string {
	return i.path
}

//
func (i *Image) Close() error {
	return i.file.Close()
}

//
func (i *Image) size() int {
	return i.length
}

//
func (i *Image) read(addr int) byte {
	b := []byte{0}
	if _, err := i.file.ReadAt(b, int64(addr)); err != nil {
		log.WithField("addr", addr).Errorf("error reading image: %v", err)
		return 0
	}
	return b[0]
}

//
func (i *Image) write(addr int, val byte) {
	if _, err := i.file.WriteAt([]byte{val}, int64(addr)); err != nil {
		log.WithField("addr", addr).Errorf("error writing image: %v", err)
	}
}
