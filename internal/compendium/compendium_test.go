package compendium

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/modbuilder/internal/foundation/errors"
)

func TestIsBlock(t *testing.T) {
	k, ok := IsBlock("Monster")
	assert.True(t, ok)
	assert.Equal(t, BlockMonster, k)

	_, ok = IsBlock("go")
	assert.False(t, ok)
}

func TestParse_Monster(t *testing.T) {
	var r Result
	v, err := r.Parse(BlockMonster, []byte(`
name: Goblin
ac: 15 (leather armor, shield)
hp: 7 (2d6)
str: 8
dex: 14
actions:
  - name: Scimitar
    text: "Melee Weapon Attack: +4 to hit."
`))
	require.NoError(t, err)
	require.Len(t, r.Monsters, 1)
	m := r.Monsters[0]
	assert.Same(t, m, v)
	assert.Equal(t, "Goblin", m.Name)
	assert.Equal(t, "7 (2d6)", m.HP)
	assert.Equal(t, 14, m.Dex)
	require.Len(t, m.Actions, 1)
	assert.Equal(t, "Scimitar", m.Actions[0].Name)
}

func TestParse_NumericScalarIntoStringField(t *testing.T) {
	var r Result
	_, err := r.Parse(BlockMonster, []byte("name: Rat\nac: 10\nhp: 1\n"))
	require.NoError(t, err)
	assert.Equal(t, "10", r.Monsters[0].AC)
}

func TestParse_ListsAllMissingFields(t *testing.T) {
	var r Result
	_, err := r.Parse(BlockMonster, []byte("name: Goblin\n"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryStructural))
	assert.Contains(t, err.Error(), "missing ac, hp")
	assert.Zero(t, r.Len())
}

func TestParse_UnknownFieldRejected(t *testing.T) {
	var r Result
	_, err := r.Parse(BlockItem, []byte("name: Rope\ntype: gear\ncolour: red\n"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryStructural))
}

func TestParse_SpellAndItem(t *testing.T) {
	var r Result
	_, err := r.Parse(BlockSpell, []byte("name: Fire Bolt\nlevel: 0\nschool: Evocation\n"))
	require.NoError(t, err)
	_, err = r.Parse(BlockItem, []byte("name: Rope\ntype: gear\nslug: hemp-rope\n"))
	require.NoError(t, err)

	assert.Equal(t, 2, r.Len())
	assert.Equal(t, "hemp-rope", r.Items[0].Token)
}

func TestHTML(t *testing.T) {
	var r Result
	v, err := r.Parse(BlockMonster, []byte("name: Ogre <big>\nac: 11\nhp: 59\nstr: 19\ndex: 8\n"))
	require.NoError(t, err)

	out, err := HTML(v)
	require.NoError(t, err)
	assert.Contains(t, out, `class="statblock monster"`)
	assert.Contains(t, out, "Ogre &lt;big&gt;")
	assert.Contains(t, out, "19 (+4)")
	assert.Contains(t, out, "8 (-1)")
}

func TestErrorHTML(t *testing.T) {
	out := ErrorHTML(errors.StructuralError("bad <block>").Build())
	assert.Equal(t, `<div class="error">[structural] bad &lt;block&gt;</div>`, out)
}
