// Package linkcheck reports internal links (such as /monster/goblin) in page
// content that point at no entity of the module. Findings are advisory.
package linkcheck

import (
	"regexp"
	"strings"

	"github.com/antzucaro/matchr"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/modbuilder/internal/entity"
	"git.home.luguber.info/inful/modbuilder/internal/htmlnode"
)

// SuggestionThreshold is the minimum Jaro-Winkler similarity for a suggestion.
const SuggestionThreshold = 0.8

var linkPattern = regexp.MustCompile(`^/(page|group|map|encounter|monster|item|spell|table)/([^/?#]+)`)

// Finding is one unresolved internal link.
type Finding struct {
	Page       string
	Href       string
	Kind       string
	Token      string
	Suggestion string
}

// Check scans every live page and returns the unresolved links in tree order.
// Each finding is logged as a warning.
func Check(m *entity.Module) []Finding {
	known := index(m)
	var findings []Finding
	m.Tree.Walk(func(e *entity.Entity, _ int) bool {
		if e.Kind != entity.KindPage || e.Content == "" {
			return true
		}
		for _, href := range hrefs(e.Content) {
			sub := linkPattern.FindStringSubmatch(href)
			if sub == nil {
				continue
			}
			kind, token := sub[1], sub[2]
			if known[kind][token] {
				continue
			}
			findings = append(findings, Finding{Page: e.Token, Href: href, Kind: kind, Token: token, Suggestion: suggest(token, known[kind])})
		}
		return true
	})
	return findings
}

func index(m *entity.Module) map[string]map[string]bool {
	known := map[string]map[string]bool{}
	add := func(kind, token string) {
		if known[kind] == nil {
			known[kind] = map[string]bool{}
		}
		known[kind][token] = true
	}
	m.Tree.Walk(func(e *entity.Entity, _ int) bool {
		add(string(e.Kind), e.Token)
		return true
	})
	for _, x := range m.Monsters {
		add("monster", x.Token)
	}
	for _, x := range m.Items {
		add("item", x.Token)
	}
	for _, x := range m.Spells {
		add("spell", x.Token)
	}
	for _, x := range m.Tables {
		add("table", x.Token)
	}
	return known
}

func hrefs(content string) []string {
	nodes, err := htmlnode.ParseFragment(content)
	if err != nil {
		return nil
	}
	var out []string
	for _, n := range nodes {
		for _, a := range htmlnode.Find(n, func(n *html.Node) bool { return n.DataAtom == atom.A }) {
			if href := strings.TrimSpace(htmlnode.Attr(a, "href")); href != "" {
				out = append(out, href)
			}
		}
	}
	return out
}

// suggest returns the most similar known token, if it is similar enough.
func suggest(token string, candidates map[string]bool) string {
	best, score := "", SuggestionThreshold
	for c := range candidates {
		s := matchr.JaroWinkler(token, c, false)
		if s > score || (s == score && best != "" && c < best) {
			best, score = c, s
		}
	}
	return best
}
