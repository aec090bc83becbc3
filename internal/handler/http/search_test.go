package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelstack/moviecatalog/internal/domain"
	"github.com/reelstack/moviecatalog/internal/event"
	"github.com/reelstack/moviecatalog/internal/repository"
	"github.com/reelstack/moviecatalog/internal/service"
	apperrors "github.com/reelstack/moviecatalog/pkg/errors"
	pkgkafka "github.com/reelstack/moviecatalog/pkg/kafka"
)

// fakeMovieRepo is an in-memory repository.MovieRepository for handler tests.
type fakeMovieRepo struct {
	mu     sync.Mutex
	movies map[string]*domain.Movie
}

func newFakeMovieRepo(movies ...*domain.Movie) *fakeMovieRepo {
	repo := &fakeMovieRepo{movies: make(map[string]*domain.Movie)}
	for _, m := range movies {
		repo.movies[m.ID] = m
	}
	return repo
}

func (f *fakeMovieRepo) Create(_ context.Context, movie *domain.Movie) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.movies[movie.ID] = movie
	return nil
}

func (f *fakeMovieRepo) GetByID(_ context.Context, id string) (*domain.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.movies[id]
	if !ok {
		return nil, apperrors.NotFound("movie", id)
	}
	return m, nil
}

func (f *fakeMovieRepo) List(_ context.Context, filter repository.MovieFilter) ([]domain.Movie, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var movies []domain.Movie
	for _, m := range f.movies {
		if filter.Genre != nil && m.Genre != *filter.Genre {
			continue
		}
		movies = append(movies, *m)
	}
	if movies == nil {
		movies = []domain.Movie{}
	}
	return movies, len(movies), nil
}

func (f *fakeMovieRepo) Search(_ context.Context, query string) ([]domain.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	needle := strings.ToLower(query)
	movies := []domain.Movie{}
	for _, m := range f.movies {
		haystack := strings.ToLower(m.Title + " " + m.Genre + " " + m.Description)
		if strings.Contains(haystack, needle) {
			movies = append(movies, *m)
		}
	}
	return movies, nil
}

func (f *fakeMovieRepo) Update(_ context.Context, movie *domain.Movie) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.movies[movie.ID]; !ok {
		return apperrors.NotFound("movie", movie.ID)
	}
	f.movies[movie.ID] = movie
	return nil
}

func (f *fakeMovieRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.movies[id]; !ok {
		return apperrors.NotFound("movie", id)
	}
	delete(f.movies, id)
	return nil
}

// memoryCache is an in-memory repository.SearchCache for handler tests.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]domain.Movie
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]domain.Movie)}
}

func cacheKey(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

func (c *memoryCache) Get(_ context.Context, query string) ([]domain.Movie, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	movies, ok := c.entries[cacheKey(query)]
	return movies, ok
}

func (c *memoryCache) Set(_ context.Context, query string, movies []domain.Movie) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(query)] = movies
}

func (c *memoryCache) Delete(_ context.Context, query string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, cacheKey(query))
}

func (c *memoryCache) DeleteMatching(_ context.Context, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return
	}
	for key := range c.entries {
		if strings.Contains(key, needle) {
			delete(c.entries, key)
		}
	}
}

func (c *memoryCache) Clear(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]domain.Movie)
}

func (c *memoryCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestProducer points at a broker that is not running; the services
// absorb publish failures, so handlers are unaffected.
func newTestProducer() *event.Producer {
	logger := newTestLogger()
	kp := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig([]string{"localhost:9092"}), logger)
	return event.NewProducer(kp, logger)
}

func newCatalogRouter(repo *fakeMovieRepo, cache *memoryCache) http.Handler {
	logger := newTestLogger()
	searchSvc := service.NewSearchService(repo, cache, logger)
	movieSvc := service.NewMovieService(repo, cache, newTestProducer(), logger)

	searchHandler := NewSearchHandler(searchSvc, logger)
	movieHandler := NewMovieHandler(movieSvc, logger)

	r := chi.NewRouter()
	r.Route("/api/v1/movies", func(r chi.Router) {
		r.Get("/", movieHandler.ListMovies)
		r.Get("/search", searchHandler.Search)
		r.Get("/{id}", movieHandler.GetMovie)
		r.Post("/", movieHandler.CreateMovie)
		r.Put("/{id}", movieHandler.UpdateMovie)
		r.Delete("/{id}", movieHandler.DeleteMovie)
	})
	return r
}

const matrixID = "9f1c7f9e-2b3a-4e6d-8f5a-1c2d3e4f5a6b"

func matrixMovie() *domain.Movie {
	year := 1999
	return &domain.Movie{
		ID:          matrixID,
		Title:       "The Matrix",
		Description: "A hacker discovers reality is a simulation.",
		Genre:       "Sci-Fi",
		ReleaseYear: &year,
	}
}

func doRequest(t *testing.T, router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestSearchEndpoint_ReturnsMatches(t *testing.T) {
	router := newCatalogRouter(newFakeMovieRepo(matrixMovie()), newMemoryCache())

	w := doRequest(t, router, http.MethodGet, "/api/v1/movies/search?q=matrix", "")

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	data := resp["data"].([]any)
	require.Len(t, data, 1)
	movie := data[0].(map[string]any)
	assert.Equal(t, "The Matrix", movie["title"])
}

func TestSearchEndpoint_MissingQueryParameter(t *testing.T) {
	router := newCatalogRouter(newFakeMovieRepo(), newMemoryCache())

	w := doRequest(t, router, http.MethodGet, "/api/v1/movies/search", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	errObj := resp["error"].(map[string]any)
	assert.Equal(t, "INVALID_PARAMETER", errObj["code"])
}

func TestSearchEndpoint_NoResultsIs404(t *testing.T) {
	router := newCatalogRouter(newFakeMovieRepo(matrixMovie()), newMemoryCache())

	w := doRequest(t, router, http.MethodGet, "/api/v1/movies/search?q=nonexistent", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := decodeResponse(t, w)
	errObj := resp["error"].(map[string]any)
	assert.Equal(t, "NO_RESULTS", errObj["code"])
}

func TestSearchEndpoint_SecondRequestServedFromCache(t *testing.T) {
	repo := newFakeMovieRepo(matrixMovie())
	cache := newMemoryCache()
	router := newCatalogRouter(repo, cache)

	w := doRequest(t, router, http.MethodGet, "/api/v1/movies/search?q=matrix", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, cache.len())

	// Empty the repository behind the cache's back; the cached entry
	// still answers until it is invalidated.
	require.NoError(t, repo.Delete(context.Background(), matrixID))

	w = doRequest(t, router, http.MethodGet, "/api/v1/movies/search?q=matrix", "")
	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w)["data"].([]any)
	assert.Len(t, data, 1)
}

func TestSearchEndpoint_CreateClearsCachedQueries(t *testing.T) {
	repo := newFakeMovieRepo(matrixMovie())
	cache := newMemoryCache()
	router := newCatalogRouter(repo, cache)

	w := doRequest(t, router, http.MethodGet, "/api/v1/movies/search?q=sci-fi", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, cache.len())

	w = doRequest(t, router, http.MethodPost, "/api/v1/movies",
		`{"title":"Blade Runner","genre":"Sci-Fi","release_year":1982}`)
	require.Equal(t, http.StatusCreated, w.Code)

	// The whole cache is gone, so the next search sees the new movie.
	assert.Equal(t, 0, cache.len())

	w = doRequest(t, router, http.MethodGet, "/api/v1/movies/search?q=sci-fi", "")
	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w)["data"].([]any)
	assert.Len(t, data, 2)
}

func TestSearchEndpoint_DeleteInvalidatesTitleQueries(t *testing.T) {
	repo := newFakeMovieRepo(matrixMovie())
	cache := newMemoryCache()
	router := newCatalogRouter(repo, cache)

	w := doRequest(t, router, http.MethodGet, "/api/v1/movies/search?q=matrix", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, router, http.MethodDelete, "/api/v1/movies/"+matrixID, "")
	require.Equal(t, http.StatusOK, w.Code)

	// "matrix" is a substring of the deleted title, so the entry is gone.
	w = doRequest(t, router, http.MethodGet, "/api/v1/movies/search?q=matrix", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
