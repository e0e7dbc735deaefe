package scraper

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// nextDataPayload pulls the JSON blob Next.js sites embed in
// <script id="__NEXT_DATA__">. Rightmove and Zoopla both render their search
// results from it, which is far more stable to parse than the markup itself.
func nextDataPayload(source string, body []byte) ([]byte, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(body))
	if err != nil {
		return nil, &FormatError{Source: source, Reason: "parse html", Err: err}
	}

	raw := doc.Find("script#__NEXT_DATA__").First().Text()
	if strings.TrimSpace(raw) == "" {
		return nil, &FormatError{Source: source, Reason: "missing __NEXT_DATA__ script"}
	}

	return []byte(raw), nil
}
