package wiki

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// PageLink is one internal wiki link found in rendered page HTML.
type PageLink struct {
	Title string // link target, URL-decoded
	Text  string // anchor text
}

// ExtractPageLinks parses rendered page HTML and collects internal wiki
// links (hrefs under /wiki/). External links, anchors, and special pages
// are skipped.
func ExtractPageLinks(r io.Reader) ([]PageLink, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var links []PageLink
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			if link, ok := parseAnchor(n); ok {
				links = append(links, link)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return links, nil
}

func parseAnchor(n *html.Node) (PageLink, bool) {
	var href string
	for _, a := range n.Attr {
		if a.Key == "href" {
			href = a.Val
			break
		}
	}

	const prefix = "/wiki/"
	if !strings.HasPrefix(href, prefix) {
		return PageLink{}, false
	}

	title := strings.TrimPrefix(href, prefix)
	if idx := strings.IndexByte(title, '#'); idx >= 0 {
		title = title[:idx]
	}
	if title == "" || strings.HasPrefix(title, "Special:") {
		return PageLink{}, false
	}

	if decoded, err := url.PathUnescape(title); err == nil {
		title = decoded
	}
	title = strings.ReplaceAll(title, "_", " ")

	return PageLink{Title: title, Text: nodeText(n)}, true
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}
