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
	"context"
	"fmt"
	"net/http"
)

//
func (a *api) startFiring(w http.ResponseWriter, req *http.Request) {

	id, ok := getID(w, req)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(req.Context(), lockTimeout)
	defer cancel()

	err := a.daemon.StartFiring(ctx, id)
	if handleError(err, errorStatus(err), w) {
		return
	}

	a.sendFiringStatus(w, req)
}

//
func (a *api) firingStatus(w http.ResponseWriter, req *http.Request) {
	a.sendFiringStatus(w, req)
}

//
func (a *api) stopFiring(w http.ResponseWriter, req *http.Request) {
	if !a.daemon.StopFiring() {
		handleError(fmt.Errorf("no firing in progress"), http.StatusConflict, w)
		return
	}
	sendReply([]byte("firing stopped"), http.StatusOK, w)
}

//
func (a *api) sendFiringStatus(w http.ResponseWriter, req *http.Request) {
	status := a.daemon.FiringStatus()
	if wantsJSON(req) {
		sendJSONReply(status, http.StatusOK, w)
	} else {
		sendReply([]byte(status.String()), http.StatusOK, w)
	}
}
