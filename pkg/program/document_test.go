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

package program

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlDoc = `
id: 3
description: clear glaze
steps:
  - duration: 10
    temperature: 100
    method: linear
  - {duration: 5, temperature: 50, method: hold}
`

func TestParseYAMLDocument(t *testing.T) {
	doc, err := ParseDocument([]byte(yamlDoc), "yaml")
	require.NoError(t, err)
	assert.Equal(t, &Document{
		ID:          3,
		Description: "clear glaze",
		Steps: []Step{
			{Duration: 10, Temperature: 100, Method: Linear},
			{Duration: 5, Temperature: 50, Method: Constant},
		},
	}, doc)

	fs := newFS(t, 512)
	p, err := doc.Store(fs, 0)
	require.NoError(t, err)
	assert.Equal(t, byte(3), p.ID())
	assert.Equal(t, 60, p.TemperatureAt(5))

	p, err = doc.Store(fs, 8)
	require.NoError(t, err)
	assert.Equal(t, byte(8), p.ID())
	assert.Equal(t, 2, fs.Count())
}

func TestDocumentJSONRoundTrip(t *testing.T) {
	doc := &Document{ID: 4, Steps: []Step{
		{Duration: 1, Temperature: 2, Method: Constant},
	}}

	data, err := doc.Marshal("json")
	require.NoError(t, err)
	assert.Contains(t, string(data), `"method": "constant"`)

	back, err := ParseDocument(data, "json")
	require.NoError(t, err)
	assert.Equal(t, doc, back)

	data, err = doc.Marshal("yaml")
	require.NoError(t, err)
	back, err = ParseDocument(data, "yml")
	require.NoError(t, err)
	assert.Equal(t, doc, back)
}

func TestParseDocumentErrors(t *testing.T) {
	_, err := ParseDocument([]byte(`{"steps": [{"temperature": 300}]}`), "json")
	assert.Error(t, err)
	_, err = ParseDocument([]byte(`{"steps": [{"method": "boil"}]}`), "json")
	assert.Error(t, err)
	_, err = ParseDocument([]byte(`{}`), "xml")
	assert.Error(t, err)

	doc, err := ParseDocument([]byte(`{"steps": [{"temperature": 127}]}`), "json")
	require.NoError(t, err)
	doc.Steps[0].Temperature = 128
	_, err = doc.Store(newFS(t, 512), 1)
	assert.Error(t, err)
}

func TestSplitIDType(t *testing.T) {
	id, typ, err := SplitIDType("/tmp/import/12.yaml")
	require.NoError(t, err)
	assert.Equal(t, byte(12), id)
	assert.Equal(t, "yaml", typ)

	id, typ, err = SplitIDType("7.JSON")
	require.NoError(t, err)
	assert.Equal(t, byte(7), id)
	assert.Equal(t, "json", typ)

	for _, name := range []string{"abc.json", "300.json", "5.txt", "5"} {
		_, _, err = SplitIDType(name)
		assert.Error(t, err, name)
	}
}
