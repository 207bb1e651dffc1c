// Package htmltext converts the HTML description bodies stored for episodes
// and videos into plain text suitable for name matching.
package htmltext

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// blockSelector lists elements whose boundaries must become whitespace so
// words from adjacent blocks do not concatenate.
const blockSelector = "p, div, li, br, h1, h2, h3, h4, h5, h6, tr"

// Plain strips markup from an HTML fragment and collapses whitespace.
// Input that fails to parse is returned unchanged.
func Plain(fragment string) string {
	if !strings.Contains(fragment, "<") {
		return strings.Join(strings.Fields(fragment), " ")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}

	doc.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		s.AppendNodes(&html.Node{Type: html.TextNode, Data: " "})
	})

	return strings.Join(strings.Fields(doc.Text()), " ")
}
