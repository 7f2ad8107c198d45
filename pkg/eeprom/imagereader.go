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
	"archive/zip"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"

	log "github.com/sirupsen/logrus"
)

//
func NewImageReader(r io.ReadCloser, compressor string) (*ImageReader, error) {

	log.WithField("compressor", compressor).Debug("image reader requested")

	var ret *ImageReader
	var err error

	switch compressor {

	case "gzip":
		fallthrough
	case "gz":
		ret, err = getGZipReader(r)

	case "zip":
		ret, err = getZipReader(r, false)

	case "7z":
		ret, err = getZipReader(r, true)

	case "":
		ret = &ImageReader{r, "", ""}
	}

	if ret == nil && err == nil {
		err = fmt.Errorf("unsupported compressor: %s", compressor)
	}

	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"compressor": ret.compressor,
		"name":       ret.name}).Debug("image reader created")

	return ret, nil
}

// ImageReader reads a raw EEPROM image, possibly from a compressed file or
// archive. For archives, the first entry is used.
type ImageReader struct {
	readCloser io.ReadCloser
	//
	name       string
	compressor string
}

//
func (r *ImageReader) Read(p []byte) (n int, err error) {
	return r.readCloser.Read(p)
}

//
func (r *ImageReader) Close() error {
	return r.readCloser.Close()
}

//
func (r *ImageReader) Name() string {
	return r.name
}

//
func (r *ImageReader) Compressor() string {
	return r.compressor
}

//
func getGZipReader(r io.ReadCloser) (*ImageReader, error) {

	gzr, err := gzip.NewReader(r)
	if err != nil {
		return nil, err
	}

	ret := &ImageReader{readCloser: gzr}
	ret.name, _ = SplitNameCompressor(gzr.Name)
	ret.compressor = "gzip"

	return ret, nil
}

//
func getZipReader(r io.ReadCloser, zip7 bool) (*ImageReader, error) {

	var sponge bytes.Buffer
	size, err := io.Copy(&sponge, r)
	if err != nil {
		return nil, err
	}
	r.Close()

	ret := &ImageReader{}

	if zip7 {
		zr, err := sevenzip.NewReader(bytes.NewReader(sponge.Bytes()), size)
		if err != nil {
			return nil, err
		}
		if len(zr.File) == 0 {
			return nil, fmt.Errorf("empty 7-zip archive")
		}
		if len(zr.File) > 1 {
			log.Warn("7-zip archive has more than one entry, using first")
		}

		ret.name, _ = SplitNameCompressor(zr.File[0].Name)
		ret.compressor = "7z"
		if ret.readCloser, err = zr.File[0].Open(); err != nil {
			return nil, err
		}

	} else {
		zr, err := zip.NewReader(bytes.NewReader(sponge.Bytes()), size)
		if err != nil {
			return nil, err
		}
		if len(zr.File) == 0 {
			return nil, fmt.Errorf("empty zip archive")
		}
		if len(zr.File) > 1 {
			log.Warn("zip archive has more than one entry, using first")
		}

		ret.name, _ = SplitNameCompressor(zr.File[0].Name)
		ret.compressor = "zip"
		if ret.readCloser, err = zr.File[0].Open(); err != nil {
			return nil, err
		}
	}

	return ret, nil
}

// SplitNameCompressor splits a file name such as `kiln.eep.gz` into the base
// name `kiln.eep` and the compressor `gz`.
func SplitNameCompressor(file string) (name, compressor string) {

	_, name = filepath.Split(file)

	for {
		ext := filepath.Ext(name)
		if ext == "" {
			break
		}

		switch strings.ToLower(strings.TrimPrefix(ext, ".")) {

		case "gz":
			fallthrough
		case "gzip":
			fallthrough
		case "zip":
			fallthrough
		case "7z":
			compressor = strings.ToLower(strings.TrimPrefix(ext, "."))
			name = strings.TrimSuffix(name, ext)
			continue
		}
		break
	}

	return name, compressor
}
