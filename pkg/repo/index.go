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

package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/blevesearch/bleve/v2"
	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/kilnctl/pkg/program"
	"github.com/xelalexv/kilnctl/pkg/util"
)

//
const replaceChars = "`~!@#$%^&*_-+=()[]{}|;:',.<>?"

var nameCleaner *strings.Replacer

var errNotProgram = errors.New("not a program document")

//
func init() {
	rep := make([]string, 2*len(replaceChars))
	for ix, c := range replaceChars {
		rep[ix*2] = string(c)
		rep[ix*2+1] = " "
	}
	nameCleaner = strings.NewReplacer(rep...)
}

/*
	NewIndex creates a search index for the program library in directory dir.
	The library holds program documents in JSON or YAML syntax. The index is
	kept in memory and populated when calling Start.
*/
func NewIndex(dir string) (*Index, error) {

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("program library is not a directory: %s", abs)
	}

	index, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, err
	}

	return &Index{dir: abs, index: index}, nil
}

// Entry is what gets indexed for each program document.
type Entry struct {
	Name        string
	Description string
	Steps       int
	Duration    int
}

//
type Index struct {
	dir     string
	index   bleve.Index
	watcher *util.DirWatcher
}

//
func (i *Index) Dir() string {
	return i.dir
}

// Start indexes all program documents in the library, and then watches it
// for changes.
func (i *Index) Start(backoff time.Duration) error {

	start := time.Now()
	log.WithField("dir", i.dir).Info("indexing program library")
	if err := i.load(); err != nil {
		return fmt.Errorf("error indexing program library: %v", err)
	}

	count, _ := i.index.DocCount()
	log.WithFields(log.Fields{
		"documents": count,
		"duration":  time.Since(start)}).Info("program library indexed")

	var err error
	if i.watcher, err = util.NewDirWatcher(i.dir); err != nil {
		return err
	}
	return i.watcher.Start(backoff, i.update)
}

//
func (i *Index) Stop() {
	if i.watcher != nil {
		i.watcher.Stop()
		i.watcher = nil
	}
	if i.index != nil {
		i.index.Close()
		i.index = nil
	}
}

//
func (i *Index) load() error {

	files, err := os.ReadDir(i.dir)
	if err != nil {
		return err
	}

	batch := i.index.NewBatch()

	for _, f := range files {
		if f.IsDir() {
			continue
		}
		logger := log.WithField("file", f.Name())
		entry, err := readEntry(filepath.Join(i.dir, f.Name()))
		if err != nil {
			if !errors.Is(err, errNotProgram) {
				logger.Warnf("skipping file: %v", err)
			}
			continue
		}
		logger.Debug("adding entry to index")
		if err := batch.Index(f.Name(), entry); err != nil {
			return err
		}
	}

	return i.index.Batch(batch)
}

// update is the watch handler, which adds, updates, or removes the entry for
// the changed file.
func (i *Index) update(path string) error {

	name := filepath.Base(path)
	logger := log.WithField("file", name)

	entry, err := readEntry(path)

	if errors.Is(err, errNotProgram) {
		return nil
	}

	if err != nil {
		logger.Debug("removing entry from index")
		if delErr := i.index.Delete(name); delErr != nil {
			return delErr
		}
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	logger.Debug("updating entry in index")
	return i.index.Index(name, entry)
}

//
func readEntry(path string) (*Entry, error) {

	typ := DocumentType(path)
	if typ == "" {
		return nil, errNotProgram
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	doc, err := program.ParseDocument(data, typ)
	if err != nil {
		return nil, err
	}

	ret := &Entry{
		Name:        nameCleaner.Replace(filepath.Base(path)),
		Description: doc.Description,
		Steps:       len(doc.Steps),
	}
	for _, s := range doc.Steps {
		ret.Duration += int(s.Duration)
	}

	return ret, nil
}
