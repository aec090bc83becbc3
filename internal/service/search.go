package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/reelstack/moviecatalog/internal/domain"
	"github.com/reelstack/moviecatalog/internal/repository"
	apperrors "github.com/reelstack/moviecatalog/pkg/errors"
)

// SearchService implements movie search with a cache-aside strategy: hit the
// cache first, fall back to the database, and cache only non-empty results.
type SearchService struct {
	movies repository.MovieRepository
	cache  repository.SearchCache
	logger *slog.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(movies repository.MovieRepository, cache repository.SearchCache, logger *slog.Logger) *SearchService {
	return &SearchService{
		movies: movies,
		cache:  cache,
		logger: logger,
	}
}

// Search returns movies matching the query ordered by relevance.
//
// Results are served from the cache when present. On a miss the database is
// queried and a non-empty result is cached for subsequent lookups. An empty
// result returns a NO_RESULTS error and is never cached, so newly added
// movies become searchable immediately.
func (s *SearchService) Search(ctx context.Context, query string) ([]domain.Movie, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.InvalidInput("search query must not be empty")
	}

	if movies, ok := s.cache.Get(ctx, query); ok {
		s.logger.DebugContext(ctx, "search served from cache",
			slog.String("query", query),
			slog.Int("results", len(movies)),
		)
		return movies, nil
	}

	movies, err := s.movies.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search movies: %w", err)
	}

	if len(movies) == 0 {
		return nil, apperrors.NoResults("movies", query)
	}

	s.cache.Set(ctx, query, movies)

	s.logger.DebugContext(ctx, "search served from database",
		slog.String("query", query),
		slog.Int("results", len(movies)),
	)

	return movies, nil
}
