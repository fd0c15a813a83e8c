// Package links extracts anchors from HTML documents.
package links

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Link is an anchor's visible text and raw href.
type Link struct {
	Text string
	Href string
}

// Extract parses body leniently and returns every anchor carrying an href
// attribute, in document order. Text is the concatenation of all descendant
// text nodes with surrounding whitespace trimmed.
func Extract(body []byte) ([]Link, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	var out []Link
	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		out = append(out, Link{
			Text: strings.TrimSpace(s.Text()),
			Href: href,
		})
	})
	return out, nil
}
