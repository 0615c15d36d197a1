// Package extractor turns a rendered listing page into raw domain
// candidates using the per-source field map. It never touches the network.
package extractor

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/PuerkitoBio/goquery"

	"github.com/nguyenhonglinh/clone-domain/internal/sources"
	"github.com/nguyenhonglinh/clone-domain/pkg/types"
)

// Extract produces one candidate per listing row, in document order. Rows
// without a domain cell are structural artifacts and are skipped.
func Extract(page *types.Page, src sources.Source, pt sources.PageType) ([]types.Candidate, error) {
	if page == nil || len(page.Body) == 0 {
		return nil, nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil, fmt.Errorf("parse page %s: %w", pageURLString(page), err)
	}

	reader := readerFor(src.Family)
	base := page.Base()
	fields := pt.Fields

	var out []types.Candidate
	doc.Find(fields.Rows).Each(func(_ int, row *goquery.Selection) {
		domain := reader.Text(row, fields.Domain)
		if domain == "" {
			return
		}
		out = append(out, types.Candidate{
			Domain:     domain,
			Age:        parseCount(reader.Text(row, fields.Age)),
			Price:      reader.Text(row, fields.Price),
			EndDate:    reader.Text(row, fields.EndDate),
			TimeLeft:   reader.Text(row, fields.TimeLeft),
			Viewed:     parseCount(reader.Text(row, fields.Viewed)),
			Stars:      reader.Stars(row, fields.Stars, fields.StarMarker),
			AuctionURL: reader.Link(row, fields.AuctionLink, base),
			SourceID:   src.ID,
			PageTypeID: pt.ID,
		})
	})
	return out, nil
}

// parseCount extracts the digits from a cell and parses them, defaulting
// to 0 on anything unparseable. Extraction must never fail on dirty cells.
func parseCount(s string) int {
	digits := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			digits = append(digits, s[i])
		}
	}
	if len(digits) == 0 {
		return 0
	}
	n, err := strconv.Atoi(string(digits))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func pageURLString(page *types.Page) string {
	if u := page.Base(); u != nil {
		return u.String()
	}
	return "<unknown>"
}
