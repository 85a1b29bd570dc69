package browser

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// blockElements break the text flow the way a browser lays them out.
var blockElements = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Br: true, atom.Dd: true, atom.Div: true, atom.Dl: true, atom.Dt: true,
	atom.Footer: true, atom.Form: true, atom.H1: true, atom.H2: true, atom.H3: true,
	atom.H4: true, atom.H5: true, atom.H6: true, atom.Header: true, atom.Hr: true,
	atom.Li: true, atom.Main: true, atom.Nav: true, atom.Ol: true, atom.P: true,
	atom.Pre: true, atom.Section: true, atom.Table: true, atom.Td: true,
	atom.Th: true, atom.Tr: true, atom.Ul: true,
}

// hiddenElements never contribute to the body's visible text.
var hiddenElements = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Template: true, atom.Title: true,
}

// visibleText approximates innerText for a static document: tags are
// dropped, entities decoded, block boundaries become spaces and runs of
// whitespace collapse to one.
func visibleText(markup string) string {
	z := html.NewTokenizer(strings.NewReader(markup))
	var b strings.Builder
	skip := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or malformed input; keep what was read
			return strings.Join(strings.Fields(b.String()), " ")
		case html.StartTagToken:
			tok := z.Token()
			if hiddenElements[tok.DataAtom] {
				skip++
			} else if blockElements[tok.DataAtom] {
				b.WriteByte(' ')
			}
		case html.EndTagToken:
			tok := z.Token()
			if hiddenElements[tok.DataAtom] {
				if skip > 0 {
					skip--
				}
			} else if blockElements[tok.DataAtom] {
				b.WriteByte(' ')
			}
		case html.SelfClosingTagToken:
			if blockElements[z.Token().DataAtom] {
				b.WriteByte(' ')
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}
