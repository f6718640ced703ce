package export

import (
	"encoding/xml"

	"git.home.luguber.info/inful/modbuilder/internal/entity"
)

type xmlCompendium struct {
	XMLName  xml.Name     `xml:"compendium"`
	Monsters []xmlMonster `xml:"monster"`
	Items    []xmlItem    `xml:"item"`
	Spells   []xmlSpell   `xml:"spell"`
	Tables   []xmlTable   `xml:"table"`
}

type xmlFeature struct {
	Name string `xml:"name"`
	Text string `xml:"text"`
}

type xmlMonster struct {
	ID              string       `xml:"id,attr"`
	Name            string       `xml:"name"`
	Slug            string       `xml:"slug"`
	Size            string       `xml:"size,omitempty"`
	Type            string       `xml:"type,omitempty"`
	Alignment       string       `xml:"alignment,omitempty"`
	AC              string       `xml:"ac"`
	HP              string       `xml:"hp"`
	Speed           string       `xml:"speed,omitempty"`
	Str             int          `xml:"str"`
	Dex             int          `xml:"dex"`
	Con             int          `xml:"con"`
	Int             int          `xml:"int"`
	Wis             int          `xml:"wis"`
	Cha             int          `xml:"cha"`
	Save            string       `xml:"save,omitempty"`
	Skill           string       `xml:"skill,omitempty"`
	Resist          string       `xml:"resist,omitempty"`
	Vulnerable      string       `xml:"vulnerable,omitempty"`
	Immune          string       `xml:"immune,omitempty"`
	ConditionImmune string       `xml:"conditionImmune,omitempty"`
	Senses          string       `xml:"senses,omitempty"`
	Passive         int          `xml:"passive,omitempty"`
	Languages       string       `xml:"languages,omitempty"`
	CR              string       `xml:"cr,omitempty"`
	Environment     string       `xml:"environment,omitempty"`
	Traits          []xmlFeature `xml:"trait"`
	Actions         []xmlFeature `xml:"action"`
	Reactions       []xmlFeature `xml:"reaction"`
	Legendary       []xmlFeature `xml:"legendary"`
	Description     string       `xml:"description,omitempty"`
	Image           string       `xml:"image,omitempty"`
	Token           string       `xml:"token,omitempty"`
}

type xmlItem struct {
	ID         string `xml:"id,attr"`
	Name       string `xml:"name"`
	Slug       string `xml:"slug"`
	Type       string `xml:"type"`
	Rarity     string `xml:"rarity,omitempty"`
	Weight     string `xml:"weight,omitempty"`
	Value      string `xml:"value,omitempty"`
	Magic      bool   `xml:"magic,omitempty"`
	Attunement bool   `xml:"attunement,omitempty"`
	Text       string `xml:"text,omitempty"`
	Image      string `xml:"image,omitempty"`
}

type xmlSpell struct {
	ID         string `xml:"id,attr"`
	Name       string `xml:"name"`
	Slug       string `xml:"slug"`
	Level      int    `xml:"level"`
	School     string `xml:"school"`
	Ritual     bool   `xml:"ritual,omitempty"`
	Time       string `xml:"time,omitempty"`
	Range      string `xml:"range,omitempty"`
	Components string `xml:"components,omitempty"`
	Duration   string `xml:"duration,omitempty"`
	Classes    string `xml:"classes,omitempty"`
	Text       string `xml:"text,omitempty"`
	Image      string `xml:"image,omitempty"`
}

type xmlRow struct {
	Min    int    `xml:"min,attr"`
	Max    int    `xml:"max,attr"`
	Result string `xml:",chardata"`
}

type xmlTable struct {
	ID   string   `xml:"id,attr"`
	Name string   `xml:"name"`
	Slug string   `xml:"slug"`
	Dice string   `xml:"dice"`
	Rows []xmlRow `xml:"row"`
}

func features(in []entity.Feature) []xmlFeature {
	if len(in) == 0 {
		return nil
	}
	out := make([]xmlFeature, len(in))
	for i, f := range in {
		out[i] = xmlFeature(f)
	}
	return out
}

// CompendiumXML serializes the flat compendium entries. ok is false when the
// module has none, in which case no compendium file is written.
func CompendiumXML(m *entity.Module) (data []byte, ok bool, err error) {
	if m.CompendiumSize() == 0 {
		return nil, false, nil
	}
	c := xmlCompendium{}
	for _, x := range m.Monsters {
		c.Monsters = append(c.Monsters, xmlMonster{
			ID: x.ID.String(), Name: x.Name, Slug: x.Token,
			Size: x.Size, Type: x.Type, Alignment: x.Alignment, AC: x.AC, HP: x.HP, Speed: x.Speed,
			Str: x.Str, Dex: x.Dex, Con: x.Con, Int: x.Int, Wis: x.Wis, Cha: x.Cha,
			Save: x.Save, Skill: x.Skill, Resist: x.Resist, Vulnerable: x.Vulnerable,
			Immune: x.Immune, ConditionImmune: x.ConditionImmune, Senses: x.Senses,
			Passive: x.Passive, Languages: x.Languages, CR: x.CR, Environment: x.Environment,
			Traits: features(x.Traits), Actions: features(x.Actions),
			Reactions: features(x.Reactions), Legendary: features(x.Legendary),
			Description: x.Description, Image: x.Image, Token: x.Token2D,
		})
	}
	for _, x := range m.Items {
		c.Items = append(c.Items, xmlItem{
			ID: x.ID.String(), Name: x.Name, Slug: x.Token, Type: x.Type, Rarity: x.Rarity,
			Weight: x.Weight, Value: x.Value, Magic: x.Magic, Attunement: x.Attunement,
			Text: x.Text, Image: x.Image,
		})
	}
	for _, x := range m.Spells {
		c.Spells = append(c.Spells, xmlSpell{
			ID: x.ID.String(), Name: x.Name, Slug: x.Token, Level: x.Level, School: x.School,
			Ritual: x.Ritual, Time: x.Time, Range: x.Range, Components: x.Components,
			Duration: x.Duration, Classes: x.Classes, Text: x.Text, Image: x.Image,
		})
	}
	for _, x := range m.Tables {
		t := xmlTable{ID: x.ID.String(), Name: x.Name, Slug: x.Token, Dice: x.Dice}
		for _, r := range x.Rows {
			t.Rows = append(t.Rows, xmlRow(r))
		}
		c.Tables = append(c.Tables, t)
	}

	out, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, false, err
	}
	return append([]byte(xml.Header), append(out, '\n')...), true, nil
}
