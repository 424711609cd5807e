package retrieval

import "fmt"

// SearchError represents a retrieval backend failure.
type SearchError struct {
	Backend string
	Query   string
	Err     error
}

func (e *SearchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("search failed on %s for %q: %v", e.Backend, e.Query, e.Err)
	}
	return fmt.Sprintf("search failed on %s for %q", e.Backend, e.Query)
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

// NewSearchError creates a SearchError.
func NewSearchError(backend, query string, err error) *SearchError {
	return &SearchError{Backend: backend, Query: query, Err: err}
}
