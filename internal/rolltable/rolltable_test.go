package rolltable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/modbuilder/internal/entity"
)

func TestExtract(t *testing.T) {
	content := `<h2>Random Encounters</h2>
<table><thead><tr><th>d6</th><th>Encounter</th><th>Notes</th></tr></thead>
<tbody><tr><td>1-3</td><td>Rats</td><td>2d4</td></tr>
<tr><td>4–5</td><td>Bats</td><td>swarm</td></tr>
<tr><td>6</td><td>Ogre</td><td>asleep</td></tr></tbody></table>
<table><thead><tr><th>Name</th><th>Role</th></tr></thead><tbody><tr><td>Bob</td><td>Guard</td></tr></tbody></table>`

	tables, err := Extract(content, "Page")
	require.NoError(t, err)
	require.Len(t, tables, 1)
	tbl := tables[0]
	assert.Equal(t, "Random Encounters", tbl.Name)
	assert.Equal(t, "d6", tbl.Dice)
	assert.Equal(t, []entity.TableRow{
		{Min: 1, Max: 3, Result: "Rats | 2d4"},
		{Min: 4, Max: 5, Result: "Bats | swarm"},
		{Min: 6, Max: 6, Result: "Ogre | asleep"},
	}, tbl.Rows)
}

func TestExtract_FallbackNameAndD100(t *testing.T) {
	content := `<table><tr><th>1d100</th><th>Loot</th></tr><tr><td>01-50</td><td>Copper</td></tr><tr><td>51-00</td><td>Gold</td></tr></table>`
	tables, err := Extract(content, "Treasure")
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "Treasure", tables[0].Name)
	assert.Equal(t, entity.TableRow{Min: 51, Max: 100, Result: "Gold"}, tables[0].Rows[1])
}

func TestExtract_IgnoresMalformedRows(t *testing.T) {
	content := `<table><tr><th>d4</th><th>x</th></tr><tr><td>one</td><td>a</td></tr></table>`
	tables, err := Extract(content, "P")
	require.NoError(t, err)
	assert.Empty(t, tables)
}
