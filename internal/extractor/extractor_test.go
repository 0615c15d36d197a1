package extractor

import (
	"net/url"
	"testing"
	"time"

	"github.com/nguyenhonglinh/clone-domain/internal/sources"
	"github.com/nguyenhonglinh/clone-domain/pkg/types"
)

const bidPageHTML = `<html><body><article><table><tbody>
<tr>
  <td>example.vn</td>
  <td>2025-01-15</td>
  <td>1,500,000 &#273;</td>
  <td>5 years</td>
  <td><a href="/auction/example.vn">Detail</a></td>
</tr>
<tr>
  <td>khac.com.vn</td>
  <td>2025-01-16</td>
  <td>free</td>
  <td>unknown</td>
  <td><a href="https://other.example.com/a/2">Detail</a></td>
</tr>
<tr>
  <td></td>
  <td colspan="4">no more rows</td>
</tr>
</tbody></table></article></body></html>`

const inetPageHTML = `<html><body><table><tbody>
<tr ng-repeat-start="domain in vm.domains.content">
  <td><div class="btn-group-actions"><strong class="ng-binding"> dep.vn </strong></div></td>
  <td><span class="ng-binding">20/02/2025</span></td>
  <td><div class="star-group">
    <i class="ion-ios-star"></i><i class="ion-ios-star"></i><i class="ion-ios-star"></i>
  </div></td>
  <td><span class="ng-binding">1,024</span></td>
  <td><span class="ng-binding">12</span></td>
  <td><a class="btn btn-success" href="/dau-gia/dep.vn">Order</a></td>
</tr>
<tr ng-repeat-start="domain in vm.domains.content">
  <td><div class="btn-group-actions"><strong class="ng-binding">{{domain.name}}</strong></div></td>
  <td><span class="ng-binding">21/02/2025</span></td>
  <td><div class="star-group"></div></td>
  <td><span class="ng-binding">n/a</span></td>
  <td><span class="ng-binding"></span></td>
  <td></td>
</tr>
</tbody></table></body></html>`

func pageFor(t *testing.T, rawURL, html string) *types.Page {
	t.Helper()
	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	return &types.Page{
		URL:       u,
		FinalURL:  u,
		Body:      []byte(html),
		FetchedAt: time.Now(),
	}
}

func lookupType(t *testing.T, sourceID, typeID string) (sources.Source, sources.PageType) {
	t.Helper()
	src, pt, err := sources.Default().LookupType(sourceID, typeID)
	if err != nil {
		t.Fatalf("lookup %s/%s: %v", sourceID, typeID, err)
	}
	return src, pt
}

func TestExtractBidTable(t *testing.T) {
	src, pt := lookupType(t, "BID_PAVIETNAM", "auction-close")
	page := pageFor(t, "https://bid.pavietnam.vn/auction-close/page/1", bidPageHTML)

	got, err := Extract(page, src, pt)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates (artifact row dropped), got %d", len(got))
	}

	first := got[0]
	if first.Domain != "example.vn" {
		t.Fatalf("unexpected domain %q", first.Domain)
	}
	if first.Age != 5 {
		t.Fatalf("expected age 5, got %d", first.Age)
	}
	if first.EndDate != "2025-01-15" {
		t.Fatalf("unexpected end date %q", first.EndDate)
	}
	if first.AuctionURL != "https://bid.pavietnam.vn/auction/example.vn" {
		t.Fatalf("relative href should resolve against the page, got %q", first.AuctionURL)
	}
	if first.SourceID != "BID_PAVIETNAM" || first.PageTypeID != "auction-close" {
		t.Fatalf("candidate missing provenance: %+v", first)
	}

	second := got[1]
	if second.Age != 0 {
		t.Fatalf("non-numeric age cell must default to 0, got %d", second.Age)
	}
	if second.AuctionURL != "https://other.example.com/a/2" {
		t.Fatalf("absolute href should pass through, got %q", second.AuctionURL)
	}
}

func TestExtractInetRows(t *testing.T) {
	src, pt := lookupType(t, "INET", "domain-unregister")
	page := pageFor(t, "https://backorder.inet.vn/domain-unregister?page=1", inetPageHTML)

	got, err := Extract(page, src, pt)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	// The second row carries an unrendered template binding as its domain
	// and must be dropped.
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}

	c := got[0]
	if c.Domain != "dep.vn" {
		t.Fatalf("domain should be trimmed, got %q", c.Domain)
	}
	if c.Stars != 3 {
		t.Fatalf("expected 3 star markers, got %d", c.Stars)
	}
	if c.Viewed != 1024 {
		t.Fatalf("thousands separator should be ignored, got %d", c.Viewed)
	}
	if c.Age != 12 {
		t.Fatalf("expected age 12, got %d", c.Age)
	}
	if c.AuctionURL != "https://backorder.inet.vn/dau-gia/dep.vn" {
		t.Fatalf("unexpected auction url %q", c.AuctionURL)
	}
}

func TestExtractKeepsDocumentOrder(t *testing.T) {
	src, pt := lookupType(t, "BID_PAVIETNAM", "auction-close")
	page := pageFor(t, "https://bid.pavietnam.vn/auction-close/page/1", bidPageHTML)

	got, err := Extract(page, src, pt)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if got[0].Domain != "example.vn" || got[1].Domain != "khac.com.vn" {
		t.Fatalf("extraction order must match document order: %+v", got)
	}
}

func TestExtractEmptyPage(t *testing.T) {
	src, pt := lookupType(t, "BID_PAVIETNAM", "auction-close")

	got, err := Extract(pageFor(t, "https://bid.pavietnam.vn/auction-close/page/9", "<html><body></body></html>"), src, pt)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no candidates on an empty page, got %d", len(got))
	}

	got, err = Extract(nil, src, pt)
	if err != nil || got != nil {
		t.Fatalf("nil page should yield nothing, got %v/%v", got, err)
	}
}

func TestParseCount(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"5 years", 5},
		{"1,024", 1024},
		{"abc", 0},
		{"", 0},
		{"  42  ", 42},
	}
	for _, tc := range cases {
		if got := parseCount(tc.in); got != tc.want {
			t.Fatalf("parseCount(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
