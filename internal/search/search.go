package search

import (
	"context"

	"github.com/rotisserie/eris"
)

// Result is a single web search hit: a short excerpt plus source metadata.
type Result struct {
	Title   string
	Snippet string
	URL     string
	Source  string
}

// Client retrieves ranked search results for a query. An empty result slice is
// a valid outcome and must not be treated as a failure.
type Client interface {
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// ErrSearchUnavailable indicates the search provider could not be reached or
// rejected the request. Callers decide whether the run can proceed without
// search context.
var ErrSearchUnavailable = eris.New("search provider unavailable")

type disabledClient struct{}

// Disabled returns a Client that always reports zero results. It stands in
// when no search API key is configured so the pipeline can run with an empty
// context instead of failing.
func Disabled() Client {
	return disabledClient{}
}

func (disabledClient) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	return []Result{}, nil
}
