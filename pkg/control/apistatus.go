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
	"errors"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/kilnctl/pkg/microfs"
)

var errNotEmpty = errors.New("file system not empty, use force to format")

//
func (a *api) status(w http.ResponseWriter, req *http.Request) {

	var stats *microfs.Stats
	if !a.withFS(w, req, func(fs *microfs.FileSystem) error {
		stats = fs.Stats()
		return nil
	}) {
		return
	}

	if wantsJSON(req) {
		sendJSONReply(stats, http.StatusOK, w)
	} else {
		sendReply([]byte(stats.String()), http.StatusOK, w)
	}
}

//
func (a *api) check(w http.ResponseWriter, req *http.Request) {

	var consistent bool
	if !a.withFS(w, req, func(fs *microfs.FileSystem) error {
		consistent = fs.Check()
		return nil
	}) {
		return
	}

	if wantsJSON(req) {
		sendJSONReply(map[string]bool{"consistent": consistent},
			http.StatusOK, w)
		return
	}

	msg := "file system consistent"
	if !consistent {
		msg = "file system INCONSISTENT, format to recover"
	}
	sendReply([]byte(msg), http.StatusOK, w)
}

//
func (a *api) format(w http.ResponseWriter, req *http.Request) {

	force := isFlagSet(req, "force")

	if !a.withFS(w, req, func(fs *microfs.FileSystem) error {
		if files := fs.Count(); files > 0 && fs.Check() && !force {
			return fmt.Errorf("%w, %d programs present", errNotEmpty, files)
		}
		return fs.Format()
	}) {
		return
	}

	log.WithField("size", a.daemon.Size()).Info("file system formatted")
	sendReply([]byte(fmt.Sprintf("formatted %d bytes", a.daemon.Size())),
		http.StatusOK, w)
}
