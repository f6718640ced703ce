package export

import (
	"bytes"
	"html/template"

	"git.home.luguber.info/inful/modbuilder/internal/config"
	"git.home.luguber.info/inful/modbuilder/internal/entity"
)

type printPage struct {
	Token   string
	Depth   int
	Group   bool
	Name    string
	Content template.HTML
	Footer  string
}

type printDoc struct {
	Title  string
	Author string
	Cover  string
	Pages  []printPage
}

var printTemplate = template.Must(template.New("print").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
@page { size: A4; margin: 18mm 15mm; }
section.page { break-after: page; position: relative; }
.page-break { break-after: page; }
.column-break { break-after: column; }
.cover img { width: 100%; }
.footer { position: absolute; bottom: 0; font-size: 0.8em; }
.statblock { border-top: 2px solid #922610; border-bottom: 2px solid #922610; padding: 0.5em; }
.error { color: #b00; border: 1px dashed #b00; }
</style>
</head>
<body>
{{if .Cover}}<section class="page cover"><img src="{{.Cover}}" alt="{{.Title}}"></section>
{{end}}{{range .Pages}}{{if .Group}}<h1 class="group" id="{{.Token}}" data-depth="{{.Depth}}">{{.Name}}</h1>
{{else}}<section class="page" id="{{.Token}}">
{{.Content}}
{{if .Footer}}<div class="footer">{{.Footer}}</div>
{{end}}</section>
{{end}}{{end}}</body>
</html>
`))

// PrintHTML renders the resolved tree as one paginated document in tree order.
func PrintHTML(m *entity.Module, p *config.Project) ([]byte, error) {
	doc := printDoc{Title: m.Name, Author: p.Author, Cover: coverPath(p)}
	m.Tree.Walk(func(e *entity.Entity, depth int) bool {
		switch e.Kind {
		case entity.KindContainer:
			doc.Pages = append(doc.Pages, printPage{Token: e.Token, Depth: depth, Group: true, Name: e.Name})
		case entity.KindPage:
			doc.Pages = append(doc.Pages, printPage{
				Token: e.Token,
				Depth: depth,
				Name:  e.Name,
				// page content is HTML rendered from trusted project sources
				Content: template.HTML(e.Content), //nolint:gosec
				Footer:  e.Footer,
			})
		}
		return true
	})

	var buf bytes.Buffer
	if err := printTemplate.Execute(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
