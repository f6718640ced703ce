package export

import (
	"strconv"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/modbuilder/internal/config"
	"git.home.luguber.info/inful/modbuilder/internal/entity"
)

// ModuleXML serializes the resolved tree. Children are nested in their parent
// element; the sort attribute is the position among siblings.
func ModuleXML(m *entity.Module, p *config.Project) []byte {
	w := newXMLWriter()
	w.start("module", attr{"id", m.Namespace.String()})
	w.text("name", m.Name)
	w.text("slug", m.Token)
	w.text("description", p.Description)
	w.text("author", p.Author)
	w.text("category", p.Category)
	w.text("code", p.Code)
	w.text("image", coverPath(p))

	writeChildren(w, m, m.Tree.Roots(), uuid.Nil)
	w.end("module")
	return w.bytes()
}

func writeChildren(w *xmlWriter, m *entity.Module, handles []entity.Handle, parent uuid.UUID) {
	for i, h := range handles {
		e := m.Tree.Get(h)
		if e == nil {
			continue
		}
		parentID := ""
		if parent != uuid.Nil {
			parentID = parent.String()
		}
		tag := string(e.Kind)
		w.start(tag,
			attr{"id", e.ID.String()},
			attr{"sort", strconv.Itoa(i)},
			attr{"parent", parentID},
		)
		w.text("name", e.Name)
		w.text("slug", e.Token)
		switch e.Kind {
		case entity.KindPage:
			w.text("content", e.Content)
		case entity.KindMap, entity.KindEncounter:
			w.raw(e.Payload)
		}
		writeChildren(w, m, e.Children, e.ID)
		w.end(tag)
	}
}
