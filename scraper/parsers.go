package scraper

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/samber/mo"
	"golang.org/x/net/html"
)

// parseRecord extracts the five optional content fields from a detail
// page body. Absent fields come back as None; parsing itself only fails
// when the body is not readable as HTML at all.
func parseRecord(jobID, link, body string, fetchedAt time.Time) (*Record, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, err
	}

	return &Record{
		JobID:        jobID,
		Title:        extractTitle(doc),
		WorkType:     extractHeaderField(doc, "TYPE OF WORK"),
		Salary:       extractHeaderField(doc, "SALARY"),
		HoursPerWeek: extractHeaderField(doc, "HOURS PER WEEK"),
		JobOverview:  extractOverview(doc),
		RawText:      body,
		Link:         link,
		DateCreated:  fetchedAt,
	}, nil
}

func extractTitle(doc *goquery.Document) mo.Option[string] {
	sel := doc.Find("title").First()
	if sel.Length() == 0 {
		return mo.None[string]()
	}
	return mo.Some(strings.TrimSpace(sel.Text()))
}

// extractHeaderField finds the h3 with the given heading text and returns
// the text of the first paragraph that follows it.
func extractHeaderField(doc *goquery.Document, heading string) mo.Option[string] {
	header := doc.Find("h3").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.TrimSpace(s.Text()) == heading
	}).First()
	if header.Length() == 0 {
		return mo.None[string]()
	}

	p := header.NextAllFiltered("p").First()
	if p.Length() == 0 {
		// Forward-only fallback: a paragraph nested in a later sibling.
		// Paragraphs preceding the heading are never its value.
		p = header.NextAll().Find("p").First()
	}
	if p.Length() == 0 {
		return mo.None[string]()
	}

	return mo.Some(strings.TrimSpace(p.Text()))
}

func extractOverview(doc *goquery.Document) mo.Option[string] {
	sel := doc.Find("p#job-description").First()
	if sel.Length() == 0 {
		return mo.None[string]()
	}

	var b strings.Builder
	for _, n := range sel.Nodes {
		blockText(n, &b)
	}
	return mo.Some(strings.TrimSpace(b.String()))
}

// blockText renders the text content of a node, keeping line structure:
// <br> and block-level element boundaries become newlines.
func blockText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		return
	}
	if n.Type == html.ElementNode && n.Data == "br" {
		b.WriteString("\n")
		return
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		blockText(c, b)
	}

	if n.Type == html.ElementNode {
		switch n.Data {
		case "p", "div", "li", "ul", "ol":
			b.WriteString("\n")
		}
	}
}
