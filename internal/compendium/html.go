package compendium

import (
	"bytes"
	"html/template"
	"strconv"

	"git.home.luguber.info/inful/modbuilder/internal/entity"
)

var blockTemplates = template.Must(template.New("blocks").Funcs(template.FuncMap{
	"mod": abilityModifier,
}).Parse(`
{{define "monster"}}<div class="statblock monster">
<h4>{{.Name}}</h4>
<p class="meta">{{.Size}} {{.Type}}{{if .Alignment}}, {{.Alignment}}{{end}}</p>
<p><strong>Armor Class</strong> {{.AC}}</p>
<p><strong>Hit Points</strong> {{.HP}}</p>
{{if .Speed}}<p><strong>Speed</strong> {{.Speed}}</p>{{end}}
<table class="abilities"><tr><th>STR</th><th>DEX</th><th>CON</th><th>INT</th><th>WIS</th><th>CHA</th></tr>
<tr><td>{{.Str}} ({{mod .Str}})</td><td>{{.Dex}} ({{mod .Dex}})</td><td>{{.Con}} ({{mod .Con}})</td><td>{{.Int}} ({{mod .Int}})</td><td>{{.Wis}} ({{mod .Wis}})</td><td>{{.Cha}} ({{mod .Cha}})</td></tr></table>
{{if .Senses}}<p><strong>Senses</strong> {{.Senses}}</p>{{end}}
{{if .Languages}}<p><strong>Languages</strong> {{.Languages}}</p>{{end}}
{{if .CR}}<p><strong>Challenge</strong> {{.CR}}</p>{{end}}
{{range .Traits}}<p><em><strong>{{.Name}}.</strong></em> {{.Text}}</p>{{end}}
{{if .Actions}}<h5>Actions</h5>{{range .Actions}}<p><em><strong>{{.Name}}.</strong></em> {{.Text}}</p>{{end}}{{end}}
{{if .Reactions}}<h5>Reactions</h5>{{range .Reactions}}<p><em><strong>{{.Name}}.</strong></em> {{.Text}}</p>{{end}}{{end}}
{{if .Legendary}}<h5>Legendary Actions</h5>{{range .Legendary}}<p><em><strong>{{.Name}}.</strong></em> {{.Text}}</p>{{end}}{{end}}
</div>{{end}}
{{define "item"}}<div class="statblock item">
<h4>{{.Name}}</h4>
<p class="meta">{{.Type}}{{if .Rarity}}, {{.Rarity}}{{end}}{{if .Attunement}} (requires attunement){{end}}</p>
{{if .Text}}<p>{{.Text}}</p>{{end}}
</div>{{end}}
{{define "spell"}}<div class="statblock spell">
<h4>{{.Name}}</h4>
<p class="meta">{{if eq .Level 0}}{{.School}} cantrip{{else}}Level {{.Level}} {{.School}}{{end}}{{if .Ritual}} (ritual){{end}}</p>
{{if .Time}}<p><strong>Casting Time</strong> {{.Time}}</p>{{end}}
{{if .Range}}<p><strong>Range</strong> {{.Range}}</p>{{end}}
{{if .Components}}<p><strong>Components</strong> {{.Components}}</p>{{end}}
{{if .Duration}}<p><strong>Duration</strong> {{.Duration}}</p>{{end}}
{{if .Text}}<p>{{.Text}}</p>{{end}}
</div>{{end}}
{{define "error"}}<div class="error">{{.}}</div>{{end}}`))

// abilityModifier is floor((score-10)/2) with an explicit sign.
func abilityModifier(score int) string {
	m := score - 10
	if m < 0 {
		m = (m - 1) / 2
	} else {
		m /= 2
	}
	if m >= 0 {
		return "+" + strconv.Itoa(m)
	}
	return strconv.Itoa(m)
}

// HTML renders a parsed entity as the stat block that replaces its fenced block.
func HTML(v any) (string, error) {
	var name string
	switch v.(type) {
	case *entity.Monster:
		name = "monster"
	case *entity.Item:
		name = "item"
	case *entity.Spell:
		name = "spell"
	default:
		return "", nil
	}
	var buf bytes.Buffer
	if err := blockTemplates.ExecuteTemplate(&buf, name, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ErrorHTML renders a block error inline for lenient (scan) builds.
func ErrorHTML(err error) string {
	var buf bytes.Buffer
	_ = blockTemplates.ExecuteTemplate(&buf, "error", err.Error())
	return buf.String()
}
