// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package clean

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// skippedElements hold navigation, scripts and other page furniture whose
// text never reaches the cleaned output.
var skippedElements = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Nav:      true,
	atom.Header:   true,
	atom.Footer:   true,
	atom.Aside:    true,
	atom.Form:     true,
	atom.Noscript: true,
	atom.Svg:      true,
	atom.Iframe:   true,
	atom.Button:   true,
	atom.Template: true,
}

// blockElements end the current output line before and after their content.
var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Section: true, atom.Article: true,
	atom.Main: true, atom.Li: true, atom.Ul: true, atom.Ol: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Table: true, atom.Tr: true, atom.Blockquote: true, atom.Pre: true,
	atom.Dl: true, atom.Dt: true, atom.Dd: true, atom.Figcaption: true,
	atom.Br: true, atom.Hr: true,
}

// contentClass marks the content region on sites without main or article.
const contentClass = "content-area"

// CleanHTML returns the readable text of an HTML page, one block per line.
// Text is taken from the main content region (main, then article, then an
// element with class content-area, then body). Returns "" when the markup
// cannot be parsed or holds no text.
func CleanHTML(markup string) string {
	if strings.TrimSpace(markup) == "" {
		return ""
	}
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return ""
	}

	var b blockWriter
	b.walk(contentRoot(doc))
	return b.String()
}

// contentRoot picks the node whose text is kept.
func contentRoot(doc *html.Node) *html.Node {
	for _, match := range []func(*html.Node) bool{
		isElement(atom.Main),
		isElement(atom.Article),
		hasClass(contentClass),
		isElement(atom.Body),
	} {
		if n := find(doc, match); n != nil {
			return n
		}
	}
	return doc
}

func isElement(a atom.Atom) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.DataAtom == a
	}
}

func hasClass(class string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		for _, attr := range n.Attr {
			if attr.Key == "class" && containsField(attr.Val, class) {
				return true
			}
		}
		return false
	}
}

func containsField(s, field string) bool {
	for _, f := range strings.Fields(s) {
		if f == field {
			return true
		}
	}
	return false
}

// find returns the first node in document order that satisfies match.
func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, match); found != nil {
			return found
		}
	}
	return nil
}

// blockWriter accumulates text nodes into lines, breaking at block
// elements and collapsing whitespace within a line.
type blockWriter struct {
	lines []string
	cur   strings.Builder
}

func (b *blockWriter) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.cur.WriteString(n.Data)
		return
	case html.CommentNode, html.DoctypeNode:
		return
	case html.ElementNode:
		if skippedElements[n.DataAtom] {
			return
		}
	}

	block := n.Type == html.ElementNode && blockElements[n.DataAtom]
	if block {
		b.flush()
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.walk(c)
		if c.Type == html.ElementNode && (c.DataAtom == atom.Td || c.DataAtom == atom.Th) {
			b.cur.WriteByte(' ')
		}
	}
	if block {
		b.flush()
	}
}

func (b *blockWriter) flush() {
	line := strings.Join(strings.Fields(b.cur.String()), " ")
	b.cur.Reset()
	if line != "" {
		b.lines = append(b.lines, line)
	}
}

func (b *blockWriter) String() string {
	b.flush()
	return strings.Join(b.lines, "\n")
}
