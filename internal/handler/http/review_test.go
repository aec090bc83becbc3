package http

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelstack/moviecatalog/internal/domain"
	"github.com/reelstack/moviecatalog/internal/service"
	apperrors "github.com/reelstack/moviecatalog/pkg/errors"
	"github.com/reelstack/moviecatalog/pkg/middleware"
)

// fakeReviewRepo is an in-memory repository.ReviewRepository for handler tests.
type fakeReviewRepo struct {
	mu      sync.Mutex
	reviews map[string]*domain.Review
}

func newFakeReviewRepo(reviews ...*domain.Review) *fakeReviewRepo {
	repo := &fakeReviewRepo{reviews: make(map[string]*domain.Review)}
	for _, rv := range reviews {
		repo.reviews[rv.ID] = rv
	}
	return repo
}

func (f *fakeReviewRepo) Create(_ context.Context, review *domain.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rv := range f.reviews {
		if rv.MovieID == review.MovieID && rv.UserID == review.UserID {
			return apperrors.AlreadyExists("review", "movie_id", review.MovieID)
		}
	}
	f.reviews[review.ID] = review
	return nil
}

func (f *fakeReviewRepo) GetByID(_ context.Context, id string) (*domain.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rv, ok := f.reviews[id]
	if !ok {
		return nil, apperrors.NotFound("review", id)
	}
	return rv, nil
}

func (f *fakeReviewRepo) ListByMovie(_ context.Context, movieID string, _, _ int) ([]domain.Review, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	reviews := []domain.Review{}
	for _, rv := range f.reviews {
		if rv.MovieID == movieID {
			reviews = append(reviews, *rv)
		}
	}
	return reviews, len(reviews), nil
}

func (f *fakeReviewRepo) Summary(_ context.Context, movieID string) (*domain.ReviewSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	summary := &domain.ReviewSummary{MovieID: movieID}
	var sum float64
	for _, rv := range f.reviews {
		if rv.MovieID == movieID {
			sum += rv.Rating
			summary.TotalCount++
		}
	}
	if summary.TotalCount > 0 {
		summary.AverageRating = sum / float64(summary.TotalCount)
	}
	return summary, nil
}

func (f *fakeReviewRepo) Update(_ context.Context, review *domain.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.reviews[review.ID]; !ok {
		return apperrors.NotFound("review", review.ID)
	}
	f.reviews[review.ID] = review
	return nil
}

func (f *fakeReviewRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.reviews[id]; !ok {
		return apperrors.NotFound("review", id)
	}
	delete(f.reviews, id)
	return nil
}

// asUser injects claims into the request context the way the Auth
// middleware would, so protected handlers can be tested directly.
func asUser(userID, role string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(middleware.WithUser(r.Context(), userID, role)))
	})
}

const (
	reviewID     = "3c1d6e2a-8b4f-4a7c-9d0e-5f6a7b8c9d0e"
	reviewUserID = "7a2b3c4d-5e6f-4a1b-8c9d-0e1f2a3b4c5d"
)

func newReviewRouter(movieRepo *fakeMovieRepo, reviewRepo *fakeReviewRepo, userID, role string) http.Handler {
	logger := newTestLogger()
	svc := service.NewReviewService(reviewRepo, movieRepo, logger)
	handler := NewReviewHandler(svc, logger)

	r := chi.NewRouter()
	r.Get("/api/v1/movies/{movieId}/reviews", handler.ListReviews)
	r.Get("/api/v1/reviews/{id}", handler.GetReview)
	r.Method(http.MethodPost, "/api/v1/movies/{movieId}/reviews", asUser(userID, role, http.HandlerFunc(handler.CreateReview)))
	r.Method(http.MethodPut, "/api/v1/reviews/{id}", asUser(userID, role, http.HandlerFunc(handler.UpdateReview)))
	r.Method(http.MethodDelete, "/api/v1/reviews/{id}", asUser(userID, role, http.HandlerFunc(handler.DeleteReview)))
	return r
}

func sampleReview() *domain.Review {
	return &domain.Review{
		ID:      reviewID,
		MovieID: matrixID,
		UserID:  reviewUserID,
		Rating:  8.5,
		Comment: "Great movie.",
	}
}

func TestCreateReview_Success(t *testing.T) {
	router := newReviewRouter(newFakeMovieRepo(matrixMovie()), newFakeReviewRepo(), reviewUserID, domain.RoleUser)

	w := doRequest(t, router, http.MethodPost, "/api/v1/movies/"+matrixID+"/reviews",
		`{"rating":9,"comment":"Loved it."}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := decodeResponse(t, w)["data"].(map[string]any)
	assert.Equal(t, float64(9), data["rating"])
	assert.Equal(t, reviewUserID, data["user_id"])
}

func TestCreateReview_MovieDoesNotExist(t *testing.T) {
	router := newReviewRouter(newFakeMovieRepo(), newFakeReviewRepo(), reviewUserID, domain.RoleUser)

	w := doRequest(t, router, http.MethodPost, "/api/v1/movies/"+matrixID+"/reviews",
		`{"rating":9}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateReview_RatingOutOfRange(t *testing.T) {
	router := newReviewRouter(newFakeMovieRepo(matrixMovie()), newFakeReviewRepo(), reviewUserID, domain.RoleUser)

	w := doRequest(t, router, http.MethodPost, "/api/v1/movies/"+matrixID+"/reviews",
		`{"rating":11}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateReview_SecondReviewIsConflict(t *testing.T) {
	router := newReviewRouter(newFakeMovieRepo(matrixMovie()), newFakeReviewRepo(sampleReview()), reviewUserID, domain.RoleUser)

	w := doRequest(t, router, http.MethodPost, "/api/v1/movies/"+matrixID+"/reviews",
		`{"rating":7}`)

	assert.Equal(t, http.StatusConflict, w.Code)
	errObj := decodeResponse(t, w)["error"].(map[string]any)
	assert.Equal(t, "ALREADY_EXISTS", errObj["code"])
}

func TestListReviews_IncludesSummary(t *testing.T) {
	router := newReviewRouter(newFakeMovieRepo(matrixMovie()), newFakeReviewRepo(sampleReview()), reviewUserID, domain.RoleUser)

	w := doRequest(t, router, http.MethodGet, "/api/v1/movies/"+matrixID+"/reviews", "")

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w)["data"].(map[string]any)
	reviews := data["reviews"].([]any)
	require.Len(t, reviews, 1)
	summary := data["summary"].(map[string]any)
	assert.Equal(t, 8.5, summary["average_rating"])
	assert.Equal(t, float64(1), summary["total_count"])
}

func TestGetReview_Success(t *testing.T) {
	router := newReviewRouter(newFakeMovieRepo(matrixMovie()), newFakeReviewRepo(sampleReview()), reviewUserID, domain.RoleUser)

	w := doRequest(t, router, http.MethodGet, "/api/v1/reviews/"+reviewID, "")

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w)["data"].(map[string]any)
	assert.Equal(t, reviewID, data["id"])
	assert.Equal(t, 8.5, data["rating"])
}

func TestGetReview_NotFound(t *testing.T) {
	router := newReviewRouter(newFakeMovieRepo(matrixMovie()), newFakeReviewRepo(), reviewUserID, domain.RoleUser)

	w := doRequest(t, router, http.MethodGet, "/api/v1/reviews/"+reviewID, "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	errResp := decodeResponse(t, w)["error"].(map[string]any)
	assert.Equal(t, "NOT_FOUND", errResp["code"])
}

func TestGetReview_InvalidUUID(t *testing.T) {
	router := newReviewRouter(newFakeMovieRepo(matrixMovie()), newFakeReviewRepo(sampleReview()), reviewUserID, domain.RoleUser)

	w := doRequest(t, router, http.MethodGet, "/api/v1/reviews/not-a-uuid", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateReview_NonOwnerForbidden(t *testing.T) {
	router := newReviewRouter(newFakeMovieRepo(matrixMovie()), newFakeReviewRepo(sampleReview()), "someone-else", domain.RoleUser)

	w := doRequest(t, router, http.MethodPut, "/api/v1/reviews/"+reviewID,
		`{"rating":1}`)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUpdateReview_OwnerSucceeds(t *testing.T) {
	router := newReviewRouter(newFakeMovieRepo(matrixMovie()), newFakeReviewRepo(sampleReview()), reviewUserID, domain.RoleUser)

	w := doRequest(t, router, http.MethodPut, "/api/v1/reviews/"+reviewID,
		`{"rating":10,"comment":"Even better on rewatch."}`)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w)["data"].(map[string]any)
	assert.Equal(t, float64(10), data["rating"])
}

func TestDeleteReview_AdminMayDeleteAny(t *testing.T) {
	reviewRepo := newFakeReviewRepo(sampleReview())
	router := newReviewRouter(newFakeMovieRepo(matrixMovie()), reviewRepo, "admin-user", domain.RoleAdmin)

	w := doRequest(t, router, http.MethodDelete, "/api/v1/reviews/"+reviewID, "")

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDeleteReview_NonOwnerForbidden(t *testing.T) {
	router := newReviewRouter(newFakeMovieRepo(matrixMovie()), newFakeReviewRepo(sampleReview()), "someone-else", domain.RoleUser)

	w := doRequest(t, router, http.MethodDelete, "/api/v1/reviews/"+reviewID, "")

	assert.Equal(t, http.StatusForbidden, w.Code)
}
