package entity

import "github.com/google/uuid"

// Ident is the identity shared by compendium entries. Owner is the page the
// entry was discovered in; entries are not part of the parent/child tree.
type Ident struct {
	Name  string    `yaml:"name"`
	Token string    `yaml:"slug"`
	ID    uuid.UUID `yaml:"-"`
	Owner Handle    `yaml:"-"`
}

// Feature is a named block of rules text (trait, action, reaction...).
type Feature struct {
	Name string `yaml:"name"`
	Text string `yaml:"text"`
}

// Monster is a creature stat block.
type Monster struct {
	Ident `yaml:",inline"`

	Size      string `yaml:"size"`
	Type      string `yaml:"type"`
	Alignment string `yaml:"alignment"`
	AC        string `yaml:"ac"`
	HP        string `yaml:"hp"`
	Speed     string `yaml:"speed"`

	Str int `yaml:"str"`
	Dex int `yaml:"dex"`
	Con int `yaml:"con"`
	Int int `yaml:"int"`
	Wis int `yaml:"wis"`
	Cha int `yaml:"cha"`

	Save            string `yaml:"save"`
	Skill           string `yaml:"skill"`
	Resist          string `yaml:"resist"`
	Vulnerable      string `yaml:"vulnerable"`
	Immune          string `yaml:"immune"`
	ConditionImmune string `yaml:"conditionImmune"`
	Senses          string `yaml:"senses"`
	Passive         int    `yaml:"passive"`
	Languages       string `yaml:"languages"`
	CR              string `yaml:"cr"`
	Environment     string `yaml:"environment"`

	Traits    []Feature `yaml:"traits"`
	Actions   []Feature `yaml:"actions"`
	Reactions []Feature `yaml:"reactions"`
	Legendary []Feature `yaml:"legendary"`

	Description string `yaml:"description"`
	Image       string `yaml:"image"`
	Token2D     string `yaml:"token"`
}

// Item is an equipment or treasure entry.
type Item struct {
	Ident `yaml:",inline"`

	Type       string `yaml:"type"`
	Rarity     string `yaml:"rarity"`
	Weight     string `yaml:"weight"`
	Value      string `yaml:"value"`
	Magic      bool   `yaml:"magic"`
	Attunement bool   `yaml:"attunement"`
	Text       string `yaml:"text"`
	Image      string `yaml:"image"`
}

// Spell is a spell description.
type Spell struct {
	Ident `yaml:",inline"`

	Level      int    `yaml:"level"`
	School     string `yaml:"school"`
	Ritual     bool   `yaml:"ritual"`
	Time       string `yaml:"time"`
	Range      string `yaml:"range"`
	Components string `yaml:"components"`
	Duration   string `yaml:"duration"`
	Classes    string `yaml:"classes"`
	Text       string `yaml:"text"`
	Image      string `yaml:"image"`
}

// TableRow is one result of a roll table; Min..Max is the inclusive die range.
type TableRow struct {
	Min    int
	Max    int
	Result string
}

// RollTable is a random table generated from a page table with a die column.
type RollTable struct {
	Ident

	Dice string
	Rows []TableRow
}
