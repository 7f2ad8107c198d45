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
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//
func TestDirWatcherCoalesces(t *testing.T) {

	dir := t.TempDir()
	w, err := NewDirWatcher(dir)
	require.NoError(t, err)

	var mutex sync.Mutex
	calls := map[string]int{}

	require.NoError(t, w.Start(100*time.Millisecond, func(path string) error {
		mutex.Lock()
		defer mutex.Unlock()
		calls[filepath.Base(path)]++
		return nil
	}))
	defer w.Stop()

	assert.Error(t, w.Start(time.Second, nil))

	file := filepath.Join(dir, "1.yaml")
	for ix := 0; ix < 3; ix++ {
		require.NoError(t, os.WriteFile(file, []byte("steps: []"), 0644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2.json"),
		[]byte("{}"), 0644))

	require.Eventually(t, func() bool {
		mutex.Lock()
		defer mutex.Unlock()
		return calls["1.yaml"] == 1 && calls["2.json"] == 1
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, os.Remove(file))
	require.Eventually(t, func() bool {
		mutex.Lock()
		defer mutex.Unlock()
		return calls["1.yaml"] == 2
	}, 5*time.Second, 10*time.Millisecond)
}

//
func TestNewDirWatcherErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := NewDirWatcher(filepath.Join(dir, "missing"))
	assert.Error(t, err)

	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	_, err = NewDirWatcher(file)
	assert.Error(t, err)
}

//
func TestStoppedDirWatcher(t *testing.T) {
	w, err := NewDirWatcher(t.TempDir())
	require.NoError(t, err)
	w.Stop()
	assert.Error(t, w.Start(time.Second, func(string) error { return nil }))
	w.Stop()
}
