package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// BrowseProvider is the upstream capability behind the browse surface.
type BrowseProvider interface {
	Trending(ctx context.Context) (json.RawMessage, error)
	DiscoverByGenre(ctx context.Context, genreID int) (json.RawMessage, error)
	SearchMovies(ctx context.Context, query string) (json.RawMessage, error)
}

// DiscoverService proxies the browse endpoints. These are deliberately
// uncached: listings rotate constantly and the original page loads fetched
// them fresh every time, only per-title fragments go through the cache.
type DiscoverService struct {
	provider BrowseProvider
}

// NewDiscoverService constructs the service once a provider is supplied.
func NewDiscoverService(provider BrowseProvider) (*DiscoverService, error) {
	if provider == nil {
		return nil, errors.New("discover service: provider is required")
	}
	return &DiscoverService{provider: provider}, nil
}

// Trending returns the weekly trending listing.
func (s *DiscoverService) Trending(ctx context.Context) (json.RawMessage, error) {
	if s == nil {
		return nil, errors.New("discover service: service not initialised")
	}
	return s.provider.Trending(ensuredContext(ctx))
}

// ByGenre returns a discovery listing for a single genre.
func (s *DiscoverService) ByGenre(ctx context.Context, genreID int) (json.RawMessage, error) {
	if s == nil {
		return nil, errors.New("discover service: service not initialised")
	}
	return s.provider.DiscoverByGenre(ensuredContext(ctx), genreID)
}

// Search returns title search results for a free-text query.
func (s *DiscoverService) Search(ctx context.Context, query string) (json.RawMessage, error) {
	if s == nil {
		return nil, errors.New("discover service: service not initialised")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("discover service: query is required")
	}
	return s.provider.SearchMovies(ensuredContext(ctx), query)
}
