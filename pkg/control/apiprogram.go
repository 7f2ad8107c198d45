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
	"fmt"
	"io"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/kilnctl/pkg/microfs"
	"github.com/xelalexv/kilnctl/pkg/program"
	"github.com/xelalexv/kilnctl/pkg/repo"
)

//
func (a *api) list(w http.ResponseWriter, req *http.Request) {

	var programs []program.Info
	var stats *microfs.Stats

	if !a.withFS(w, req, func(fs *microfs.FileSystem) error {
		var err error
		if programs, err = program.List(fs); err != nil {
			return err
		}
		stats = fs.Stats()
		return nil
	}) {
		return
	}

	if wantsJSON(req) {
		sendJSONReply(programs, http.StatusOK, w)
		return
	}

	var buf bytes.Buffer
	WriteProgramList(&buf, programs, stats)
	sendReply(buf.Bytes(), http.StatusOK, w)
}

//
func WriteProgramList(w io.Writer, programs []program.Info,
	stats *microfs.Stats) {
	fmt.Fprint(w, "\n ID  STEPS       DURATION  SIZE\n\n")
	for _, p := range programs {
		fmt.Fprintf(w, "%s\n", p)
	}
	fmt.Fprintf(w, "\n%s\n", stats)
}

//
func (a *api) getProgram(w http.ResponseWriter, req *http.Request) {

	id, ok := getID(w, req)
	if !ok {
		return
	}

	var p *program.Program
	if !a.withFS(w, req, func(fs *microfs.FileSystem) error {
		var err error
		p, err = a.daemon.LoadProgram(fs, id)
		return err
	}) {
		return
	}

	typ := strings.ToLower(getArg(req, "type"))
	if wantsJSON(req) {
		typ = "json"
	}

	if typ == "" {
		var buf bytes.Buffer
		p.Emit(&buf)
		sendReply(buf.Bytes(), http.StatusOK, w)
		return
	}

	data, err := program.NewDocument(p).Marshal(typ)
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return
	}
	if typ == "json" {
		w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	}
	sendReply(data, http.StatusOK, w)
}

//
func (a *api) putProgram(w http.ResponseWriter, req *http.Request) {

	id, ok := getID(w, req)
	if !ok {
		return
	}

	in, ref, err := a.getSource(w, req)
	if handleError(err, http.StatusNotAcceptable, w) {
		return
	}
	defer in.Close()

	data, err := io.ReadAll(in)
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return
	}

	doc, err := program.ParseDocument(data, documentType(req, ref))
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return
	}

	var p *program.Program
	if !a.withFS(w, req, func(fs *microfs.FileSystem) error {
		var err error
		p, err = doc.Store(fs, id)
		return err
	}) {
		return
	}

	log.WithFields(log.Fields{
		"id":    p.ID(),
		"steps": p.StepCount()}).Info("program saved")

	if wantsJSON(req) {
		sendJSONReply(program.Info{
			ID:       p.ID(),
			Steps:    p.StepCount(),
			Duration: p.TotalDuration(),
			Size:     p.Size(),
		}, http.StatusOK, w)
	} else {
		sendReply([]byte(fmt.Sprintf("saved program %d", p.ID())),
			http.StatusOK, w)
	}
}

// documentType determines the syntax of a program document, from the `type`
// argument, the reference, or the content type. Default is JSON.
func documentType(req *http.Request, ref string) string {
	if typ := getArg(req, "type"); typ != "" {
		return typ
	}
	if typ := repo.DocumentType(ref); typ != "" {
		return typ
	}
	if strings.Contains(req.Header.Get("Content-Type"), "yaml") {
		return "yaml"
	}
	return "json"
}

//
func (a *api) deleteProgram(w http.ResponseWriter, req *http.Request) {

	id, ok := getID(w, req)
	if !ok {
		return
	}

	if !a.withFS(w, req, func(fs *microfs.FileSystem) error {
		return program.Delete(fs, id)
	}) {
		return
	}

	log.WithField("id", id).Info("program deleted")
	sendReply([]byte(fmt.Sprintf("deleted program %d", id)), http.StatusOK, w)
}

//
type temperatureReply struct {
	Program     byte `json:"program"`
	Minute      int  `json:"minute"`
	Step        int  `json:"step"`
	Temperature int  `json:"temperature"`
}

//
func (a *api) temperature(w http.ResponseWriter, req *http.Request) {

	id, ok := getID(w, req)
	if !ok {
		return
	}

	minute, err := getIntArg(req, "minute", 0)
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return
	}

	var reply temperatureReply
	if !a.withFS(w, req, func(fs *microfs.FileSystem) error {
		p, err := a.daemon.LoadProgram(fs, id)
		if err != nil {
			return err
		}
		reply = temperatureReply{
			Program:     id,
			Minute:      minute,
			Step:        p.StepAt(minute),
			Temperature: p.TemperatureAt(minute),
		}
		return nil
	}) {
		return
	}

	if wantsJSON(req) {
		sendJSONReply(reply, http.StatusOK, w)
	} else {
		sendReply([]byte(fmt.Sprintf("%d", reply.Temperature)),
			http.StatusOK, w)
	}
}
