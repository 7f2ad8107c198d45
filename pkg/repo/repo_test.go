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
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const glaze = `
description: slow clear glaze firing
steps:
- {duration: 120, temperature: 100, method: ramp}
- {duration: 30, temperature: 100, method: hold}
`

//
func newLibrary(t *testing.T) string {
	dir := t.TempDir()
	write(t, dir, "cone6-glaze.yaml", glaze)
	write(t, dir, "bisque.json",
		`{"steps": [{"duration": 60, "temperature": 90}]}`)
	write(t, dir, "notes.txt", "glaze notes")
	write(t, dir, "broken.yaml", "steps: [")
	return dir
}

//
func write(t *testing.T, dir, name, content string) {
	require.NoError(t, os.WriteFile(filepath.Join(dir, name),
		[]byte(content), 0644))
}

//
func hits(t *testing.T, i *Index, term string) []string {
	res, err := i.Search(term, 10)
	require.NoError(t, err)
	return res.Hits
}

//
func TestIndexSearch(t *testing.T) {

	i, err := NewIndex(newLibrary(t))
	require.NoError(t, err)
	require.NoError(t, i.Start(20*time.Millisecond))
	defer i.Stop()

	count, err := i.index.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)

	assert.Equal(t, []string{"cone6-glaze.yaml"}, hits(t, i, "glaze"))
	assert.Equal(t, []string{"cone6-glaze.yaml"}, hits(t, i, "slow"))
	assert.Equal(t, []string{"bisque.json"}, hits(t, i, "bisque"))
	assert.Empty(t, hits(t, i, "notes"))
	assert.Empty(t, hits(t, i, "broken"))

	_, err = i.Search("  ", 10)
	assert.Error(t, err)
	_, err = i.Search("glaze", 0)
	assert.Error(t, err)

	res, err := i.Search("glaze bisque", 1)
	require.NoError(t, err)
	assert.Len(t, res.Hits, 1)
	assert.Equal(t, uint64(2), res.Total)
	assert.False(t, res.Complete)
}

//
func TestIndexWatch(t *testing.T) {

	dir := newLibrary(t)
	i, err := NewIndex(dir)
	require.NoError(t, err)
	require.NoError(t, i.Start(20*time.Millisecond))
	defer i.Stop()

	write(t, dir, "raku.yaml", "steps: [{duration: 45, temperature: 127}]")
	require.Eventually(t, func() bool {
		return len(hits(t, i, "raku")) == 1
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, os.Remove(filepath.Join(dir, "bisque.json")))
	require.Eventually(t, func() bool {
		return len(hits(t, i, "bisque")) == 0
	}, 5*time.Second, 10*time.Millisecond)
}

//
func TestNewIndexErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := NewIndex(filepath.Join(dir, "missing"))
	assert.Error(t, err)

	write(t, dir, "file", "")
	_, err = NewIndex(filepath.Join(dir, "file"))
	assert.Error(t, err)
}

//
func TestResolveLibrary(t *testing.T) {

	dir := newLibrary(t)

	rc, err := Resolve("repo://cone6-glaze.yaml", dir)
	require.NoError(t, err)
	data, err := ioutil.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, glaze, string(data))

	// cannot escape the library
	outside := filepath.Join(filepath.Dir(dir), "outside.yaml")
	require.NoError(t, os.WriteFile(outside, []byte(glaze), 0644))
	defer os.Remove(outside)
	_, err = Resolve("repo://../outside.yaml", dir)
	assert.Error(t, err)

	_, err = Resolve("repo://cone6-glaze.yaml", "")
	assert.Error(t, err)

	_, err = Resolve("ftp://kiln/glaze.yaml", dir)
	assert.Error(t, err)
}

//
func TestResolveHTTP(t *testing.T) {

	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, req *http.Request) {
			if req.URL.Path == "/glaze.yaml" {
				fmt.Fprint(w, glaze)
				return
			}
			http.NotFound(w, req)
		}))
	defer srv.Close()

	rc, err := Resolve(srv.URL+"/glaze.yaml", "")
	require.NoError(t, err)
	data, err := ioutil.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, glaze, string(data))

	_, err = Resolve(srv.URL+"/missing.yaml", "")
	assert.Error(t, err)
}

//
func TestDocumentType(t *testing.T) {
	for in, out := range map[string]string{
		"repo://glaze.yaml":          "yaml",
		"https://kiln/x/bisque.JSON": "json",
		"raku.yml":                   "yml",
		"notes.txt":                  "",
		"plain":                      "",
	} {
		assert.Equal(t, out, DocumentType(in), in)
	}
}
