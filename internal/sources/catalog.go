package sources

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/nguyenhonglinh/clone-domain/internal/config"
)

// Family selects the field-extraction strategy for a source. Static
// server-rendered tables and client-rendered single-page listings need
// different row handling.
type Family string

const (
	FamilyTable Family = "table"
	FamilySPA   Family = "spa"
)

// FieldMap holds the CSS locators for each semantic field of a listing
// row. Empty locators mean the field does not apply to the source.
type FieldMap struct {
	Rows        string `yaml:"rows"`
	Domain      string `yaml:"domain"`
	Age         string `yaml:"age"`
	Price       string `yaml:"price"`
	EndDate     string `yaml:"end_date"`
	TimeLeft    string `yaml:"time_left"`
	Viewed      string `yaml:"viewed"`
	Stars       string `yaml:"stars"`
	StarMarker  string `yaml:"star_marker"`
	AuctionLink string `yaml:"auction_link"`
	Pagination  string `yaml:"pagination"`
}

// Readiness describes when a fetched page is safe to extract from.
type Readiness struct {
	// WaitFor is the selector whose first match signals the page is
	// rendered. Defaults to the row locator.
	WaitFor string `yaml:"wait_for"`
	// ScrollToBottom forces a full-page scroll after the wait, for
	// listings that load rows incrementally.
	ScrollToBottom bool `yaml:"scroll_to_bottom"`
	// Settle is an extra fixed delay applied after the scroll.
	Settle config.Duration `yaml:"settle"`
}

// PageType declares one listing page family of a source.
type PageType struct {
	ID        string    `yaml:"id"`
	Name      string    `yaml:"name"`
	URL       string    `yaml:"url"`
	Paginates bool      `yaml:"paginates"`
	MaxPages  int       `yaml:"max_pages"`
	Render    bool      `yaml:"render"`
	Readiness Readiness `yaml:"readiness"`
	Fields    FieldMap  `yaml:"fields"`
}

// PageURL returns the URL for the nth page. Paginated sources append the
// page number to the URL template.
func (p PageType) PageURL(n int) string {
	if !p.Paginates {
		return p.URL
	}
	return p.URL + strconv.Itoa(n)
}

// WaitSelector returns the readiness selector, falling back to the row
// locator.
func (p PageType) WaitSelector() string {
	if p.Readiness.WaitFor != "" {
		return p.Readiness.WaitFor
	}
	return p.Fields.Rows
}

// Validate checks the page type declaration.
func (p PageType) Validate() error {
	if p.ID == "" {
		return errors.New("page type id is required")
	}
	if p.URL == "" {
		return fmt.Errorf("page type %s: url is required", p.ID)
	}
	if p.Fields.Rows == "" {
		return fmt.Errorf("page type %s: fields.rows is required", p.ID)
	}
	if p.Fields.Domain == "" {
		return fmt.Errorf("page type %s: fields.domain is required", p.ID)
	}
	if p.Paginates && p.MaxPages <= 0 {
		return fmt.Errorf("page type %s: max_pages must be > 0 when paginates is set", p.ID)
	}
	return nil
}

// Source identifies one auction/backorder site and its listing pages.
type Source struct {
	ID     string     `yaml:"id"`
	Name   string     `yaml:"name"`
	Family Family     `yaml:"family"`
	Types  []PageType `yaml:"types"`
}

// Validate checks the source declaration.
func (s Source) Validate() error {
	if s.ID == "" {
		return errors.New("source id is required")
	}
	if s.Name == "" {
		return fmt.Errorf("source %s: name is required", s.ID)
	}
	switch s.Family {
	case FamilyTable, FamilySPA:
	default:
		return fmt.Errorf("source %s: unknown family %q", s.ID, s.Family)
	}
	if len(s.Types) == 0 {
		return fmt.Errorf("source %s: at least one page type is required", s.ID)
	}
	seen := make(map[string]struct{}, len(s.Types))
	for _, pt := range s.Types {
		if err := pt.Validate(); err != nil {
			return fmt.Errorf("source %s: %w", s.ID, err)
		}
		if _, dup := seen[pt.ID]; dup {
			return fmt.Errorf("source %s: duplicate page type %s", s.ID, pt.ID)
		}
		seen[pt.ID] = struct{}{}
	}
	return nil
}

// DefaultCatalog returns the built-in source catalog: the pavietnam
// auction board and the inet backorder listing.
func DefaultCatalog() []Source {
	return []Source{
		{
			ID:     "BID_PAVIETNAM",
			Name:   "bid.pavietnam.vn",
			Family: FamilyTable,
			Types: []PageType{
				{
					ID:        "auction-close",
					Name:      "Finished auctions",
					URL:       "https://bid.pavietnam.vn/auction-close/page/",
					Paginates: true,
					MaxPages:  4,
					Render:    true,
					Fields: FieldMap{
						Rows:        "article table tbody tr",
						Domain:      "td:first-child",
						Age:         "td:nth-child(4)",
						Price:       "td:nth-child(3)",
						EndDate:     "td:nth-child(2)",
						AuctionLink: "td:last-child a",
					},
				},
				{
					ID:        "auction-live",
					Name:      "Running auctions",
					URL:       "https://bid.pavietnam.vn/page/",
					Paginates: true,
					MaxPages:  4,
					Render:    true,
					Fields: FieldMap{
						Rows:        "article table tbody tr",
						Domain:      "td:nth-child(1)",
						Age:         "td:nth-child(2)",
						Price:       "td:nth-child(3)",
						TimeLeft:    "td:nth-child(4)",
						AuctionLink: "td:last-child a",
					},
				},
			},
		},
		{
			ID:     "INET",
			Name:   "backorder.inet.vn",
			Family: FamilySPA,
			Types: []PageType{
				{
					ID:        "domain-unregister",
					Name:      "Expiring domains",
					URL:       "https://backorder.inet.vn/domain-unregister?page=",
					Paginates: true,
					MaxPages:  10,
					Render:    true,
					Readiness: Readiness{
						WaitFor:        "tr.dmnRow0, tr.dmnRow1, tr.dmnRow2",
						ScrollToBottom: true,
						Settle:         config.DurationFrom(2 * time.Second),
					},
					Fields: FieldMap{
						Rows:        "tr[ng-repeat-start='domain in vm.domains.content']",
						Domain:      "td:first-child .btn-group-actions strong.ng-binding",
						Age:         "td:nth-child(5) span.ng-binding",
						EndDate:     "td:nth-child(2) span.ng-binding",
						Viewed:      "td:nth-child(4) span.ng-binding",
						Stars:       "td:nth-child(3) div.star-group",
						StarMarker:  "i.ion-ios-star",
						AuctionLink: "td:last-child a.btn.btn-success",
						Pagination:  "ul.pagination",
					},
				},
			},
		},
	}
}
