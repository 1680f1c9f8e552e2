package domain

import (
	"context"
	"strconv"
)

// SearchQuery is a title search against a metadata provider
type SearchQuery struct {
	Class    ItemClass
	Title    string
	Year     *int
	Language string
}

// SearchResult is the best match returned by a provider
type SearchResult struct {
	Name        string
	Year        *int
	ProviderIDs map[string]string
}

// ProviderID returns the named external id if present and numeric
func (r *SearchResult) ProviderID(key string) *int {
	if r == nil || r.ProviderIDs == nil {
		return nil
	}
	raw, ok := r.ProviderIDs[key]
	if !ok {
		return nil
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &id
}

// SearchProvider resolves titles to external ids.
// A nil result with a nil error means no match.
//
//go:generate mockgen -destination=mocks/mock_provider.go -package=mocks -source=provider.go
type SearchProvider interface {
	Search(ctx context.Context, query SearchQuery) (*SearchResult, error)
}
