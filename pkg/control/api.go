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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/kilnctl/pkg/daemon"
	"github.com/xelalexv/kilnctl/pkg/microfs"
	"github.com/xelalexv/kilnctl/pkg/program"
	"github.com/xelalexv/kilnctl/pkg/repo"
)

// how long a request waits for the file system lock
var lockTimeout = 2 * time.Second

// limit for request bodies carrying programs or images
const maxBodySize = 1048576

//
type APIServer interface {
	Serve() error
	Stop() error
}

//
func NewAPIServer(address string, d *daemon.Daemon) APIServer {
	return &api{address: address, daemon: d}
}

//
type api struct {
	address string
	daemon  *daemon.Daemon
	server  *http.Server
}

//
func (a *api) Serve() error {

	a.server = &http.Server{
		Addr:         a.address,
		Handler:      a.router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.WithField("address", a.address).Info("starting API server")

	if err := a.server.ListenAndServe(); err != nil &&
		!errors.Is(err, http.ErrServerClosed) {
		return err
	}

	log.Info("API server stopped")
	return nil
}

//
func (a *api) Stop() error {
	if a.server == nil {
		return nil
	}
	log.Info("stopping API server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return a.server.Shutdown(ctx)
}

//
func (a *api) router() *mux.Router {

	router := mux.NewRouter().StrictSlash(true)

	router.HandleFunc("/status", a.status).Methods("GET")
	router.HandleFunc("/check", a.check).Methods("GET")
	router.HandleFunc("/format", a.format).Methods("PUT")

	router.HandleFunc("/ls", a.list).Methods("GET")
	router.HandleFunc("/program/{id}", a.getProgram).Methods("GET")
	router.HandleFunc("/program/{id}", a.putProgram).Methods("PUT")
	router.HandleFunc("/program/{id}", a.deleteProgram).Methods("DELETE")
	router.HandleFunc("/program/{id}/temperature", a.temperature).Methods("GET")
	router.HandleFunc("/search", a.search).Methods("GET")

	router.HandleFunc("/dump", a.dump).Methods("GET")
	router.HandleFunc("/backup", a.backup).Methods("GET")
	router.HandleFunc("/restore", a.restore).Methods("PUT")

	router.HandleFunc("/fire/{id}", a.startFiring).Methods("PUT")
	router.HandleFunc("/fire", a.firingStatus).Methods("GET")
	router.HandleFunc("/fire", a.stopFiring).Methods("DELETE")

	router.HandleFunc("/version", a.version).Methods("GET")

	return router
}

// withFS calls fn with the daemon's file system, and sends an error reply if
// fn fails or the file system could not be locked. Returns true on success.
func (a *api) withFS(w http.ResponseWriter, req *http.Request,
	fn func(fs *microfs.FileSystem) error) bool {

	ctx, cancel := context.WithTimeout(req.Context(), lockTimeout)
	defer cancel()

	err := a.daemon.Do(ctx, fn)
	return !handleError(err, errorStatus(err), w)
}

//
func errorStatus(err error) int {

	switch {
	case errors.Is(err, daemon.ErrBusy):
		return http.StatusLocked

	case errors.Is(err, daemon.ErrFiring), errors.Is(err, errNotEmpty):
		return http.StatusConflict

	case errors.Is(err, microfs.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, microfs.ErrIDInUse):
		return http.StatusConflict

	case errors.Is(err, microfs.ErrOutOfSpace),
		errors.Is(err, microfs.ErrIDExhausted):
		return http.StatusInsufficientStorage

	case errors.Is(err, microfs.ErrInvalidID),
		errors.Is(err, microfs.ErrInvalidLength),
		errors.Is(err, program.ErrOutOfRange),
		errors.Is(err, program.ErrProgramFull),
		errors.Is(err, daemon.ErrNoProgram):
		return http.StatusUnprocessableEntity
	}

	return http.StatusInternalServerError
}

// getSource returns the reference given in the request, if any, resolved
// against the program library, or else the request body.
func (a *api) getSource(w http.ResponseWriter, req *http.Request) (
	io.ReadCloser, string, error) {

	if ref := getArg(req, "ref"); ref != "" {
		in, err := repo.Resolve(ref, a.daemon.LibraryDir())
		return in, ref, err
	}

	return http.MaxBytesReader(w, req.Body, maxBodySize), "", nil
}

//
func getID(w http.ResponseWriter, req *http.Request) (byte, bool) {
	id, err := strconv.ParseUint(getArg(req, "id"), 10, 8)
	if err != nil {
		handleError(fmt.Errorf("invalid program id: %s", getArg(req, "id")),
			http.StatusUnprocessableEntity, w)
		return 0, false
	}
	return byte(id), true
}

//
func getArg(req *http.Request, arg string) string {
	if v, ok := mux.Vars(req)[arg]; ok {
		return v
	}
	return req.URL.Query().Get(arg)
}

//
func getIntArg(req *http.Request, arg string, def int) (int, error) {
	a := getArg(req, arg)
	if a == "" {
		return def, nil
	}
	return strconv.Atoi(a)
}

//
func isFlagSet(req *http.Request, flag string) bool {
	v := strings.ToLower(getArg(req, flag))
	return v == "true" || v == "1" || v == "yes"
}

//
func wantsJSON(req *http.Request) bool {
	return strings.Contains(req.Header.Get("Accept"), "application/json") ||
		isFlagSet(req, "json")
}

//
func handleError(e error, statusCode int, w http.ResponseWriter) bool {

	if e == nil {
		return false
	}

	msg, err := json.Marshal(e.Error())
	if err != nil {
		msg = []byte(e.Error())
	}

	log.WithField("status", statusCode).Debugf("API error: %v", e)
	sendReply(msg, statusCode, w)
	return true
}

//
func sendReply(body []byte, statusCode int, w http.ResponseWriter) {
	w.WriteHeader(statusCode)
	if _, err := w.Write(body); err != nil {
		log.Errorf("problem writing reply: %v", err)
	}
}

//
func sendJSONReply(obj interface{}, statusCode int, w http.ResponseWriter) {

	body, err := json.Marshal(obj)
	if handleError(err, http.StatusInternalServerError, w) {
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	sendReply(body, statusCode, w)
}

//
func sendStreamReply(r io.Reader, statusCode int, w http.ResponseWriter) {
	w.WriteHeader(statusCode)
	if _, err := io.Copy(w, r); err != nil {
		log.Errorf("problem writing stream reply: %v", err)
	}
}
