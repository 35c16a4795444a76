// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package crawl

import (
	"bytes"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// parsePage returns the markup of the page's main content region (main,
// then article, then an element with class content-area; "" when none
// exists) and every link on the page resolved against base.
func parsePage(base *url.URL, body []byte) (string, []string, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", nil, err
	}

	var content string
	if n := mainContent(doc); n != nil {
		var buf bytes.Buffer
		if err := html.Render(&buf, n); err == nil {
			content = buf.String()
		}
	}
	return content, collectLinks(base, doc), nil
}

func mainContent(doc *html.Node) *html.Node {
	if n := findNode(doc, func(n *html.Node) bool { return n.DataAtom == atom.Main }); n != nil {
		return n
	}
	if n := findNode(doc, func(n *html.Node) bool { return n.DataAtom == atom.Article }); n != nil {
		return n
	}
	return findNode(doc, func(n *html.Node) bool {
		for _, f := range strings.Fields(attr(n, "class")) {
			if f == "content-area" {
				return true
			}
		}
		return false
	})
}

// findNode returns the first element in document order satisfying match.
func findNode(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findNode(c, match); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// collectLinks returns the absolute http(s) targets of every anchor, in
// document order, without fragments and without duplicates.
func collectLinks(base *url.URL, doc *html.Node) []string {
	var (
		links []string
		seen  = make(map[string]bool)
	)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			if abs := resolve(base, attr(n, "href")); abs != "" && !seen[abs] {
				seen[abs] = true
				links = append(links, abs)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links
}

func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	abs.Fragment = ""
	abs.RawFragment = ""
	return abs.String()
}
