// Package extract turns raw web pages into readable prose and bounded,
// independently citable text chunks.
package extract

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// boilerplateSelector matches elements that never carry article prose
const boilerplateSelector = "script, style, noscript, template, nav, header, footer, aside, form, iframe, svg, button"

// ReadableText parses an HTML document and returns its title and the
// visible prose with navigation and boilerplate markup removed.
func ReadableText(r io.Reader) (title, text string, err error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", "", err
	}

	title = strings.TrimSpace(doc.Find("title").First().Text())

	doc.Find(boilerplateSelector).Remove()

	// Prefer semantic content containers when the page has them
	content := doc.Find("article, main")
	if content.Length() == 0 {
		content = doc.Find("body")
	}
	if content.Length() == 0 {
		content = doc.Selection
	}

	var blocks []string
	content.Find("p, h1, h2, h3, h4, li, blockquote, td").Each(func(_ int, sel *goquery.Selection) {
		if t := strings.TrimSpace(sel.Text()); t != "" {
			blocks = append(blocks, t)
		}
	})
	if len(blocks) == 0 {
		// No block structure at all, fall back to the raw text
		blocks = []string{content.Text()}
	}

	return title, NormalizeWhitespace(strings.Join(blocks, "\n\n")), nil
}

// NormalizeWhitespace collapses runs of spaces, normalizes line endings
// and removes excessive blank lines.
func NormalizeWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	s = strings.Join(lines, "\n")

	for strings.Contains(s, "\n\n\n") {
		s = strings.ReplaceAll(s, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(s)
}
