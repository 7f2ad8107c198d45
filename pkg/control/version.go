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
	"fmt"
	"net/http"

	"github.com/xelalexv/kilnctl/pkg/util"
)

//
type Version struct {
	Daemon    string `json:"daemon"`
	StoreSize int    `json:"storeSize"`
	Baseline  int    `json:"baseline"`
}

//
func (v *Version) String() string {
	return fmt.Sprintf("daemon:     %s\nstore:      %d bytes\nbaseline:   %d\n",
		v.Daemon, v.StoreSize, v.Baseline)
}

//
func (a *api) version(w http.ResponseWriter, req *http.Request) {

	ver := &Version{
		Daemon:    util.KilnCtlVersion,
		StoreSize: a.daemon.Size(),
		Baseline:  a.daemon.Baseline(),
	}

	if wantsJSON(req) {
		sendJSONReply(ver, http.StatusOK, w)
	} else {
		sendReply([]byte(ver.String()), http.StatusOK, w)
	}
}
