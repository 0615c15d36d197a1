package types

import (
	"net/url"
	"strings"
	"time"
)

// Page represents one fully loaded listing page.
type Page struct {
	URL             *url.URL
	FinalURL        *url.URL
	Body            []byte
	FetchedAt       time.Time
	Rendered        bool
	ResponseLatency time.Duration
}

// Base returns the URL link hrefs should resolve against.
func (p *Page) Base() *url.URL {
	if p == nil {
		return nil
	}
	if p.FinalURL != nil {
		return p.FinalURL
	}
	return p.URL
}

// Candidate is one extracted listing row, not yet checked against the store.
type Candidate struct {
	Domain     string
	Age        int
	Price      string
	EndDate    string
	TimeLeft   string
	Viewed     int
	Stars      int
	AuctionURL string
	SourceID   string
	PageTypeID string
}

// Key returns the lowercased domain used for deduplication.
func (c Candidate) Key() string {
	return strings.ToLower(strings.TrimSpace(c.Domain))
}

// RecordStatus is the dashboard-facing lifecycle flag on a stored domain.
type RecordStatus string

const (
	StatusActive   RecordStatus = "active"
	StatusInactive RecordStatus = "inactive"
)

// AuctionStatus tells the dashboard whether the auction was still running
// when the row was scraped.
type AuctionStatus string

const (
	AuctionLive   AuctionStatus = "live"
	AuctionClosed AuctionStatus = "closed"
)

// AuctionStatusFor derives the auction status from the page type the row
// came from. Only live-auction listing pages produce live records.
func AuctionStatusFor(pageTypeID string) AuctionStatus {
	if strings.Contains(pageTypeID, "live") {
		return AuctionLive
	}
	return AuctionClosed
}

// DomainRecord is the persisted form of an accepted candidate. Field names
// match the document schema the dashboard reads.
type DomainRecord struct {
	ID            string        `firestore:"-" json:"id"`
	Domain        string        `firestore:"domain" json:"domain"`
	Age           int           `firestore:"age" json:"age"`
	Price         string        `firestore:"price,omitempty" json:"price,omitempty"`
	EndDate       string        `firestore:"endDate,omitempty" json:"end_date,omitempty"`
	TimeLeft      string        `firestore:"timeLeft,omitempty" json:"time_left,omitempty"`
	Viewed        int           `firestore:"viewed" json:"viewed"`
	Stars         int           `firestore:"stars" json:"stars"`
	AuctionURL    string        `firestore:"auctionUrl,omitempty" json:"auction_url,omitempty"`
	SourceID      string        `firestore:"source" json:"source"`
	PageTypeID    string        `firestore:"sourceType" json:"source_type"`
	AuctionStatus AuctionStatus `firestore:"auctionStatus" json:"auction_status"`
	BatchID       string        `firestore:"batchId" json:"batch_id"`
	CreatedAt     time.Time     `firestore:"createdAt" json:"created_at"`
	Index         int           `firestore:"index" json:"index"`
	Status        RecordStatus  `firestore:"status" json:"status"`
}

// BatchManifest summarises one completed ingestion batch. Written once per
// job run that accepted at least one record, never for empty runs.
type BatchManifest struct {
	BatchID         string    `firestore:"batchId" json:"batch_id"`
	Timestamp       time.Time `firestore:"timestamp" json:"timestamp"`
	TotalNewDomains int       `firestore:"totalNewDomains" json:"total_new_domains"`
	SourceID        string    `firestore:"source" json:"source"`
	PageTypeID      string    `firestore:"sourceType" json:"source_type"`
	Status          string    `firestore:"status" json:"status"`
}

// ManifestCompleted is the only status the scraper ever writes.
const ManifestCompleted = "completed"
