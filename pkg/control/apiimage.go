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

package control

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/kilnctl/pkg/eeprom"
	"github.com/xelalexv/kilnctl/pkg/microfs"
)

//
func (a *api) dump(w http.ResponseWriter, req *http.Request) {

	var image []byte
	var chain []microfs.FileInfo
	var chainErr error

	if !a.withFS(w, req, func(fs *microfs.FileSystem) error {
		image = eeprom.Snapshot(fs.Store())
		chain, chainErr = fs.Chain()
		return nil
	}) {
		return
	}

	read, write := io.Pipe()

	go func() {
		WriteChain(write, chain, chainErr)
		d := hex.Dumper(write)
		d.Write(image)
		d.Close()
		write.Close()
	}()

	sendStreamReply(read, http.StatusOK, w)
}

// WriteChain writes a listing of the header chain to w. If the chain is
// broken, err is listed after the headers that could be read.
func WriteChain(w io.Writer, chain []microfs.FileInfo, err error) {
	fmt.Fprintln(w)
	for _, fi := range chain {
		fmt.Fprintf(w, "  %s\n", fi)
	}
	if err != nil {
		fmt.Fprintf(w, "\n  chain broken: %v\n", err)
	}
	fmt.Fprintln(w)
}

//
func (a *api) backup(w http.ResponseWriter, req *http.Request) {

	var image []byte
	if !a.withFS(w, req, func(fs *microfs.FileSystem) error {
		image = eeprom.Snapshot(fs.Store())
		return nil
	}) {
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	sendStreamReply(bytes.NewReader(image), http.StatusOK, w)
}

//
func (a *api) restore(w http.ResponseWriter, req *http.Request) {

	in, ref, err := a.getSource(w, req)
	if handleError(err, http.StatusNotAcceptable, w) {
		return
	}
	defer in.Close()

	comp := getArg(req, "compressor")
	if ref != "" && comp == "" {
		_, comp = eeprom.SplitNameCompressor(ref)
	}

	ir, err := eeprom.NewImageReader(in, comp)
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return
	}
	defer ir.Close()

	image, err := io.ReadAll(ir)
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return
	}

	if len(image) != a.daemon.Size() {
		handleError(fmt.Errorf("image has %d bytes, store has %d",
			len(image), a.daemon.Size()), http.StatusUnprocessableEntity, w)
		return
	}

	var consistent bool
	if !a.withFS(w, req, func(fs *microfs.FileSystem) error {
		if err := eeprom.Restore(fs.Store(), image); err != nil {
			return err
		}
		consistent = fs.Check()
		return nil
	}) {
		return
	}

	log.WithFields(log.Fields{
		"name":       ir.Name(),
		"compressor": ir.Compressor(),
		"consistent": consistent}).Info("image restored")

	msg := fmt.Sprintf("restored %d bytes", len(image))
	if !consistent {
		msg += ", file system INCONSISTENT"
	}
	sendReply([]byte(msg), http.StatusOK, w)
}
