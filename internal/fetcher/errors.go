package fetcher

import "fmt"

// FetchError wraps a navigation or readiness failure for one page. The
// pagination driver decides whether it is fatal.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
