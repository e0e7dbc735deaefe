package scraper

import "fmt"

// FetchError reports a failure to retrieve a page, either a transport error
// or an unexpected HTTP status.
type FetchError struct {
	Source string
	URL    string
	Status int   // 0 when the request never got a response
	Err    error // nil when Status carries the failure
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: fetch %s: %v", e.Source, e.URL, e.Err)
	}
	return fmt.Sprintf("%s: fetch %s: unexpected status %d", e.Source, e.URL, e.Status)
}

func (e *FetchError) Unwrap() error { return e.Err }

// FormatError reports a page that fetched fine but no longer matches the
// structure the parser expects, usually meaning the portal changed its markup.
type FormatError struct {
	Source string
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Source, e.Reason)
}

func (e *FormatError) Unwrap() error { return e.Err }
