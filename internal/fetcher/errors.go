package fetcher

import "fmt"

// FetchErrorKind classifies fetch failures for callers that decide between
// aborting the run and degrading.
type FetchErrorKind string

const (
	// ErrKindRequest covers network and HTTP failures after retries
	ErrKindRequest FetchErrorKind = "request"

	// ErrKindExtract covers responses that were retrieved but yielded no
	// usable content (unparseable HTML, empty body, missing captions)
	ErrKindExtract FetchErrorKind = "extract"

	// ErrKindUnsupported covers URLs the service cannot handle
	ErrKindUnsupported FetchErrorKind = "unsupported"
)

// FetchError wraps a fetch failure with its source URL and classification
type FetchError struct {
	URL  string
	Kind FetchErrorKind
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed (%s): %v", e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
