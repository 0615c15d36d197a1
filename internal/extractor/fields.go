package extractor

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nguyenhonglinh/clone-domain/internal/sources"
)

// FieldReader reads semantic fields out of a listing row. One variant per
// source family replaces the per-source branching the pipeline would
// otherwise carry.
type FieldReader interface {
	// Text returns the trimmed text of the first element matching the
	// locator, or "" when the locator is empty or unmatched.
	Text(row *goquery.Selection, locator string) string
	// Stars counts rating marker sub-elements inside the star group.
	Stars(row *goquery.Selection, group, marker string) int
	// Link resolves the href of the first matching anchor to an absolute
	// URL, or "" when absent or unresolvable.
	Link(row *goquery.Selection, locator string, base *url.URL) string
}

func readerFor(family sources.Family) FieldReader {
	if family == sources.FamilySPA {
		return spaReader{}
	}
	return tableReader{}
}

type baseReader struct{}

func (baseReader) Stars(row *goquery.Selection, group, marker string) int {
	if group == "" || marker == "" {
		return 0
	}
	g := row.Find(group).First()
	if g.Length() == 0 {
		return 0
	}
	return g.Find(marker).Length()
}

func (baseReader) Link(row *goquery.Selection, locator string, base *url.URL) string {
	if locator == "" {
		return ""
	}
	href, ok := row.Find(locator).First().Attr("href")
	if !ok {
		return ""
	}
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if base == nil {
		return href
	}
	resolved, err := base.Parse(href)
	if err != nil {
		return ""
	}
	return resolved.String()
}

// tableReader handles server-rendered auction tables: plain text cells.
type tableReader struct {
	baseReader
}

func (tableReader) Text(row *goquery.Selection, locator string) string {
	if locator == "" {
		return ""
	}
	return strings.TrimSpace(row.Find(locator).First().Text())
}

// spaReader handles client-rendered listings. Text cells can carry layout
// whitespace and unrendered template bindings, which count as empty.
type spaReader struct {
	baseReader
}

func (spaReader) Text(row *goquery.Selection, locator string) string {
	if locator == "" {
		return ""
	}
	text := strings.Join(strings.Fields(row.Find(locator).First().Text()), " ")
	if strings.Contains(text, "{{") {
		return ""
	}
	return text
}
