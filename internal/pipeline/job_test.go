package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/nguyenhonglinh/clone-domain/internal/fetcher"
	"github.com/nguyenhonglinh/clone-domain/internal/sources"
	"github.com/nguyenhonglinh/clone-domain/pkg/types"
)

// fakeSession serves canned HTML per page URL, tracking lifecycle.
type fakeSession struct {
	pages   map[string]string
	failOn  map[string]error
	fetches int
	closed  int
}

func (f *fakeSession) Fetch(ctx context.Context, pageURL string, pt sources.PageType) (*types.Page, error) {
	f.fetches++
	if err, ok := f.failOn[pageURL]; ok {
		return nil, err
	}
	body, ok := f.pages[pageURL]
	if !ok {
		return nil, &fetcher.FetchError{URL: pageURL, Err: errors.New("no such page")}
	}
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}
	return &types.Page{URL: u, FinalURL: u, Body: []byte(body), FetchedAt: time.Now(), Rendered: pt.Render}, nil
}

func (f *fakeSession) Close() {
	f.closed++
}

func listingHTML(domains ...string) string {
	body := "<html><body><article><table><tbody>"
	for _, d := range domains {
		body += fmt.Sprintf(
			"<tr><td>%s</td><td>2025-03-01</td><td>500,000</td><td>2 years</td><td><a href=\"/auction/%s\">Detail</a></td></tr>",
			d, d)
	}
	return body + "</tbody></table></article></body></html>"
}

func newTestRunner(t *testing.T, st *memStore, session *fakeSession) *Runner {
	t.Helper()
	open := func(ctx context.Context, pt sources.PageType) (fetcher.Session, error) {
		return session, nil
	}
	logger := testLogger()
	engine := NewEngine(st, "domains", "batches", logger)
	return NewRunner(sources.Default(), st, open, engine, 0, logger)
}

func TestRunJobEndToEnd(t *testing.T) {
	st := newMemStore()
	session := &fakeSession{pages: map[string]string{
		"https://bid.pavietnam.vn/auction-close/page/1": listingHTML("one.vn", "two.vn"),
		"https://bid.pavietnam.vn/auction-close/page/2": listingHTML("two.vn", "three.vn"),
		"https://bid.pavietnam.vn/auction-close/page/3": listingHTML(),
		"https://bid.pavietnam.vn/auction-close/page/4": listingHTML(),
	}}
	runner := newTestRunner(t, st, session)

	accepted, err := runner.RunJob(context.Background(), "BID_PAVIETNAM", "auction-close")
	if err != nil {
		t.Fatalf("run job: %v", err)
	}
	if len(accepted) != 3 {
		t.Fatalf("expected 3 new domains across pages, got %d", len(accepted))
	}
	if session.fetches != 4 {
		t.Fatalf("all configured pages must be fetched, got %d", session.fetches)
	}
	if session.closed == 0 {
		t.Fatal("the session must be released after the job")
	}
	if len(st.batches) != 1 {
		t.Fatalf("one manifest per successful batch, got %d", len(st.batches))
	}
}

func TestRunJobIsIdempotent(t *testing.T) {
	st := newMemStore()
	session := &fakeSession{pages: map[string]string{
		"https://bid.pavietnam.vn/auction-close/page/1": listingHTML("one.vn", "two.vn"),
		"https://bid.pavietnam.vn/auction-close/page/2": listingHTML(),
		"https://bid.pavietnam.vn/auction-close/page/3": listingHTML(),
		"https://bid.pavietnam.vn/auction-close/page/4": listingHTML(),
	}}
	runner := newTestRunner(t, st, session)

	first, err := runner.RunJob(context.Background(), "BID_PAVIETNAM", "auction-close")
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("first run should accept 2, got %d", len(first))
	}

	second, err := runner.RunJob(context.Background(), "BID_PAVIETNAM", "auction-close")
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("a repeat run over unchanged data accepts nothing, got %d", len(second))
	}
	if len(st.batches) != 1 {
		t.Fatalf("the empty second run must not write a manifest, got %d", len(st.batches))
	}
}

func TestRunJobReleasesSessionOnFailure(t *testing.T) {
	st := newMemStore()
	session := &fakeSession{
		failOn: map[string]error{
			"https://bid.pavietnam.vn/auction-close/page/1": &fetcher.FetchError{
				URL: "https://bid.pavietnam.vn/auction-close/page/1",
				Err: errors.New("navigation timeout"),
			},
		},
	}
	runner := newTestRunner(t, st, session)

	_, err := runner.RunJob(context.Background(), "BID_PAVIETNAM", "auction-close")
	var fetchErr *fetcher.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected a fetch error, got %v", err)
	}
	if session.closed == 0 {
		t.Fatal("the session must be released even when pagination fails")
	}
	if len(st.domains) != 0 || len(st.batches) != 0 {
		t.Fatal("failed jobs must persist nothing")
	}
}

func TestRunJobUnknownType(t *testing.T) {
	st := newMemStore()
	session := &fakeSession{}
	runner := newTestRunner(t, st, session)

	_, err := runner.RunJob(context.Background(), "BID_PAVIETNAM", "nope")
	if !sources.IsNotFound(err) {
		t.Fatalf("expected a not-found error, got %v", err)
	}
	if session.fetches != 0 {
		t.Fatal("unknown types must not open any pages")
	}
}
