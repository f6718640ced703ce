// Package rolltable finds random tables in rendered pages: HTML tables whose
// first header cell is a die expression such as "d6" or "1d20".
package rolltable

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/modbuilder/internal/entity"
	"git.home.luguber.info/inful/modbuilder/internal/htmlnode"
)

var (
	dicePattern  = regexp.MustCompile(`(?i)^(\d*)d(\d+)$`)
	rangePattern = regexp.MustCompile(`^(\d+)\s*(?:[-–—]\s*(\d+))?$`)
)

// Extract returns the roll tables found in content. Each table is named after
// the nearest heading before it, or fallback when there is none. Tables with a
// row that is not a die range are ignored.
func Extract(content, fallback string) ([]*entity.RollTable, error) {
	nodes, err := htmlnode.ParseFragment(content)
	if err != nil {
		return nil, err
	}

	var tables []*entity.RollTable
	heading := ""
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if htmlnode.HeadingLevel(n) > 0 {
			heading = htmlnode.Text(n)
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Table {
			name := heading
			if name == "" {
				name = fallback
			}
			if t := parseTable(n, name); t != nil {
				tables = append(tables, t)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	for _, n := range nodes {
		visit(n)
	}
	return tables, nil
}

func parseTable(table *html.Node, name string) *entity.RollTable {
	rows := htmlnode.Find(table, func(n *html.Node) bool { return n.DataAtom == atom.Tr })
	if len(rows) < 2 {
		return nil
	}
	header := cells(rows[0])
	if len(header) == 0 {
		return nil
	}
	m := dicePattern.FindStringSubmatch(strings.ReplaceAll(header[0], " ", ""))
	if m == nil {
		return nil
	}
	faces, _ := strconv.Atoi(m[2])
	if faces < 2 {
		return nil
	}

	t := &entity.RollTable{Ident: entity.Ident{Name: name}, Dice: strings.ToLower(header[0])}
	for _, tr := range rows[1:] {
		cs := cells(tr)
		if len(cs) < 2 {
			return nil
		}
		lo, hi, ok := parseRange(cs[0], faces)
		if !ok {
			return nil
		}
		t.Rows = append(t.Rows, entity.TableRow{Min: lo, Max: hi, Result: strings.Join(cs[1:], " | ")})
	}
	return t
}

// parseRange reads "3" or "2-5". "00" means the highest face of a d100.
func parseRange(s string, faces int) (int, int, bool) {
	m := rangePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, 0, false
	}
	lo := face(m[1], faces)
	hi := lo
	if m[2] != "" {
		hi = face(m[2], faces)
	}
	if lo < 1 || hi < lo {
		return 0, 0, false
	}
	return lo, hi, true
}

func face(s string, faces int) int {
	if strings.Trim(s, "0") == "" && len(s) > 1 {
		return faces
	}
	v, _ := strconv.Atoi(s)
	return v
}

func cells(tr *html.Node) []string {
	var out []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.DataAtom == atom.Td || c.DataAtom == atom.Th) {
			out = append(out, htmlnode.Text(c))
		}
	}
	return out
}
