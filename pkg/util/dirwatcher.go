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

package util

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

/*
	NewDirWatcher creates a watcher for the files in directory dir. Sub
	directories are not watched. The watcher will not start until the Start
	method has been called.
*/
func NewDirWatcher(dir string) (*DirWatcher, error) {

	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	ret := &DirWatcher{
		dir:     dir,
		release: make(chan bool),
	}

	if ret.watcher, err = fsnotify.NewWatcher(); err != nil {
		return nil, err
	}

	if err := ret.watcher.Add(dir); err != nil {
		ret.watcher.Close()
		log.Errorf("error adding watch for directory '%s': %v", dir, err)
		return nil, err
	}

	log.WithField("path", dir).Debug("starting directory watch")
	return ret, nil
}

//
type DirWatcher struct {
	dir     string
	watcher *fsnotify.Watcher
	release chan bool
	running bool
}

/*
	Start starts this directory watcher. Files that are created, written to,
	removed, or renamed are collected until there were no further changes for
	backoff time. The handler is then called once for each collected file, in
	name order. The file may no longer exist at that point. Since handler calls
	are made from a single go routine, the handler does not have to be thread
	safe.
*/
func (dw *DirWatcher) Start(backoff time.Duration,
	handler func(path string) error) error {

	if dw.watcher == nil {
		return fmt.Errorf("directory watcher not initialized or stopped")
	}

	if dw.running {
		return fmt.Errorf("directory watcher already started")
	}

	dw.running = true
	events := dw.watcher.Events
	errors := dw.watcher.Errors

	go func() {

		pending := make(map[string]bool)
		var flush <-chan time.Time

		for {
			select {

			case evt, ok := <-events:

				if !ok {
					log.Debug("directory watcher routine stopping")
					dw.release <- true
					log.Debug("directory watcher routine exiting")
					return
				}

				logger := log.WithFields(
					log.Fields{"path": evt.Name, "op": evt.Op})

				if evt.Op&(fsnotify.Create|fsnotify.Write|
					fsnotify.Remove|fsnotify.Rename) == 0 {
					logger.Trace("ignoring event")
					continue
				}

				logger.Debug("file changed")
				pending[evt.Name] = true
				flush = time.After(backoff)

			case err, ok := <-errors:
				if !ok {
					errors = nil
					continue
				}
				log.Errorf("directory watcher error: %v", err)

			case <-flush:
				paths := make([]string, 0, len(pending))
				for p := range pending {
					paths = append(paths, p)
				}
				sort.Strings(paths)
				for _, p := range paths {
					if err := handler(p); err != nil {
						log.WithField("path", p).Errorf(
							"error in watch event handler: %v", err)
					}
				}
				pending = make(map[string]bool)
				flush = nil
			}
		}
	}()

	return nil
}

/*
	Stop signals this directory watcher to stop, and waits until it has stopped.
	A stopped directory watcher cannot be started again. Pending changes are
	dropped.
*/
func (dw *DirWatcher) Stop() {
	if dw.watcher != nil {
		log.WithField("path", dw.dir).Info("closing directory watcher")
		if err := dw.watcher.Close(); err != nil {
			log.Errorf("could not close file watcher: %v", err)
		}
		if dw.running {
			<-dw.release
			dw.running = false
		}
		dw.watcher = nil
	}
}
