package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/reelstack/moviecatalog/internal/domain"
	apperrors "github.com/reelstack/moviecatalog/pkg/errors"
)

func newSearchService(repo *mockMovieRepository, cache *mockSearchCache) *SearchService {
	return NewSearchService(repo, cache, newTestLogger())
}

func TestSearch_CacheHit(t *testing.T) {
	repo := new(mockMovieRepository)
	cache := new(mockSearchCache)
	svc := newSearchService(repo, cache)
	ctx := context.Background()

	cached := []domain.Movie{*sampleMovie()}
	cache.On("Get", ctx, "matrix").Return(cached, true)

	movies, err := svc.Search(ctx, "matrix")

	require.NoError(t, err)
	assert.Equal(t, cached, movies)
	repo.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
	cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
}

func TestSearch_CacheMissQueriesAndCaches(t *testing.T) {
	repo := new(mockMovieRepository)
	cache := new(mockSearchCache)
	svc := newSearchService(repo, cache)
	ctx := context.Background()

	results := []domain.Movie{*sampleMovie()}
	cache.On("Get", ctx, "matrix").Return(nil, false)
	repo.On("Search", ctx, "matrix").Return(results, nil)
	cache.On("Set", ctx, "matrix", results).Return()

	movies, err := svc.Search(ctx, "matrix")

	require.NoError(t, err)
	assert.Equal(t, results, movies)
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestSearch_TrimsQuery(t *testing.T) {
	repo := new(mockMovieRepository)
	cache := new(mockSearchCache)
	svc := newSearchService(repo, cache)
	ctx := context.Background()

	results := []domain.Movie{*sampleMovie()}
	cache.On("Get", ctx, "matrix").Return(nil, false)
	repo.On("Search", ctx, "matrix").Return(results, nil)
	cache.On("Set", ctx, "matrix", results).Return()

	_, err := svc.Search(ctx, "  matrix  ")

	require.NoError(t, err)
	cache.AssertCalled(t, "Get", ctx, "matrix")
	repo.AssertCalled(t, "Search", ctx, "matrix")
}

func TestSearch_EmptyResultIsNotFoundAndNotCached(t *testing.T) {
	repo := new(mockMovieRepository)
	cache := new(mockSearchCache)
	svc := newSearchService(repo, cache)
	ctx := context.Background()

	cache.On("Get", ctx, "zzz").Return(nil, false)
	repo.On("Search", ctx, "zzz").Return([]domain.Movie{}, nil)

	movies, err := svc.Search(ctx, "zzz")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Nil(t, movies)
	// An empty hit list must never be cached: a movie added a moment
	// later has to be searchable right away.
	cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
}

func TestSearch_EmptyResultCode(t *testing.T) {
	repo := new(mockMovieRepository)
	cache := new(mockSearchCache)
	svc := newSearchService(repo, cache)
	ctx := context.Background()

	cache.On("Get", ctx, "zzz").Return(nil, false)
	repo.On("Search", ctx, "zzz").Return([]domain.Movie{}, nil)

	_, err := svc.Search(ctx, "zzz")

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NO_RESULTS", appErr.Code)
	assert.Equal(t, 404, appErr.Status)
}

func TestSearch_EmptyQuery(t *testing.T) {
	repo := new(mockMovieRepository)
	cache := new(mockSearchCache)
	svc := newSearchService(repo, cache)

	for _, query := range []string{"", "   ", "\t\n"} {
		_, err := svc.Search(context.Background(), query)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	}

	cache.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestSearch_RepositoryError(t *testing.T) {
	repo := new(mockMovieRepository)
	cache := new(mockSearchCache)
	svc := newSearchService(repo, cache)
	ctx := context.Background()

	cache.On("Get", ctx, "matrix").Return(nil, false)
	repo.On("Search", ctx, "matrix").Return(nil, assert.AnError)

	_, err := svc.Search(ctx, "matrix")

	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
}
