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

// mockReviewRepository is a mock implementation of repository.ReviewRepository.
type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepository) ListByMovie(ctx context.Context, movieID string, page, perPage int) ([]domain.Review, int, error) {
	args := m.Called(ctx, movieID, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Review), args.Int(1), args.Error(2)
}

func (m *mockReviewRepository) Summary(ctx context.Context, movieID string) (*domain.ReviewSummary, error) {
	args := m.Called(ctx, movieID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReviewSummary), args.Error(1)
}

func (m *mockReviewRepository) Update(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newReviewService(reviews *mockReviewRepository, movies *mockMovieRepository) *ReviewService {
	return NewReviewService(reviews, movies, newTestLogger())
}

func sampleReview() *domain.Review {
	return &domain.Review{
		ID:      "3c1d6e2a-8b4f-4a7c-9d0e-5f6a7b8c9d0e",
		MovieID: "9f1c7f9e-2b3a-4e6d-8f5a-1c2d3e4f5a6b",
		UserID:  "7a2b3c4d-5e6f-4a1b-8c9d-0e1f2a3b4c5d",
		Rating:  8.5,
		Comment: "Great movie.",
	}
}

func TestCreateReview_Success(t *testing.T) {
	reviews := new(mockReviewRepository)
	movies := new(mockMovieRepository)
	svc := newReviewService(reviews, movies)
	ctx := context.Background()

	movie := sampleMovie()
	movies.On("GetByID", ctx, movie.ID).Return(movie, nil)
	reviews.On("Create", ctx, mock.AnythingOfType("*domain.Review")).Return(nil)

	review, err := svc.CreateReview(ctx, &CreateReviewInput{
		MovieID: movie.ID,
		UserID:  "7a2b3c4d-5e6f-4a1b-8c9d-0e1f2a3b4c5d",
		Rating:  8.5,
		Comment: "Great movie.",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, review.ID)
	assert.Equal(t, movie.ID, review.MovieID)
	assert.Equal(t, 8.5, review.Rating)
	reviews.AssertExpectations(t)
	movies.AssertExpectations(t)
}

func TestCreateReview_MovieNotFound(t *testing.T) {
	reviews := new(mockReviewRepository)
	movies := new(mockMovieRepository)
	svc := newReviewService(reviews, movies)
	ctx := context.Background()

	movies.On("GetByID", ctx, "missing").Return(nil, apperrors.NotFound("movie", "missing"))

	_, err := svc.CreateReview(ctx, &CreateReviewInput{
		MovieID: "missing",
		UserID:  "user-1",
		Rating:  7,
	})

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	reviews.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateReview_InvalidRating(t *testing.T) {
	reviews := new(mockReviewRepository)
	movies := new(mockMovieRepository)
	svc := newReviewService(reviews, movies)

	for _, rating := range []float64{-0.1, 10.1, 42} {
		_, err := svc.CreateReview(context.Background(), &CreateReviewInput{
			MovieID: "movie-1",
			UserID:  "user-1",
			Rating:  rating,
		})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	}

	movies.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestCreateReview_DuplicateConflict(t *testing.T) {
	reviews := new(mockReviewRepository)
	movies := new(mockMovieRepository)
	svc := newReviewService(reviews, movies)
	ctx := context.Background()

	movie := sampleMovie()
	movies.On("GetByID", ctx, movie.ID).Return(movie, nil)
	reviews.On("Create", ctx, mock.AnythingOfType("*domain.Review")).
		Return(apperrors.AlreadyExists("review", "movie_id", movie.ID))

	_, err := svc.CreateReview(ctx, &CreateReviewInput{
		MovieID: movie.ID,
		UserID:  "user-1",
		Rating:  7,
	})

	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}

func TestListReviews_ReturnsSummary(t *testing.T) {
	reviews := new(mockReviewRepository)
	movies := new(mockMovieRepository)
	svc := newReviewService(reviews, movies)
	ctx := context.Background()

	movie := sampleMovie()
	movies.On("GetByID", ctx, movie.ID).Return(movie, nil)
	reviews.On("ListByMovie", ctx, movie.ID, 1, 20).
		Return([]domain.Review{*sampleReview()}, 45, nil)
	reviews.On("Summary", ctx, movie.ID).
		Return(&domain.ReviewSummary{MovieID: movie.ID, AverageRating: 8.5, TotalCount: 45}, nil)

	result, err := svc.ListReviews(ctx, movie.ID, 0, 0)

	require.NoError(t, err)
	assert.Len(t, result.Reviews, 1)
	assert.Equal(t, 45, result.TotalCount)
	assert.Equal(t, 3, result.TotalPages)
	assert.Equal(t, 8.5, result.Summary.AverageRating)
}

func TestListReviews_MovieNotFound(t *testing.T) {
	reviews := new(mockReviewRepository)
	movies := new(mockMovieRepository)
	svc := newReviewService(reviews, movies)
	ctx := context.Background()

	movies.On("GetByID", ctx, "missing").Return(nil, apperrors.NotFound("movie", "missing"))

	_, err := svc.ListReviews(ctx, "missing", 1, 20)

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	reviews.AssertNotCalled(t, "ListByMovie", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGetReview_Success(t *testing.T) {
	reviews := new(mockReviewRepository)
	movies := new(mockMovieRepository)
	svc := newReviewService(reviews, movies)
	ctx := context.Background()

	existing := sampleReview()
	reviews.On("GetByID", ctx, existing.ID).Return(existing, nil)

	review, err := svc.GetReview(ctx, existing.ID)

	require.NoError(t, err)
	assert.Equal(t, existing.ID, review.ID)
	assert.Equal(t, 8.5, review.Rating)
}

func TestGetReview_NotFound(t *testing.T) {
	reviews := new(mockReviewRepository)
	movies := new(mockMovieRepository)
	svc := newReviewService(reviews, movies)
	ctx := context.Background()

	reviews.On("GetByID", ctx, "missing").Return(nil, apperrors.NotFound("review", "missing"))

	_, err := svc.GetReview(ctx, "missing")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUpdateReview_OwnerOnly(t *testing.T) {
	reviews := new(mockReviewRepository)
	movies := new(mockMovieRepository)
	svc := newReviewService(reviews, movies)
	ctx := context.Background()

	existing := sampleReview()
	reviews.On("GetByID", ctx, existing.ID).Return(existing, nil)

	_, err := svc.UpdateReview(ctx, existing.ID, "someone-else", &UpdateReviewInput{
		Rating: float64Ptr(9),
	})

	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	reviews.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdateReview_Success(t *testing.T) {
	reviews := new(mockReviewRepository)
	movies := new(mockMovieRepository)
	svc := newReviewService(reviews, movies)
	ctx := context.Background()

	existing := sampleReview()
	reviews.On("GetByID", ctx, existing.ID).Return(existing, nil)
	reviews.On("Update", ctx, mock.AnythingOfType("*domain.Review")).Return(nil)

	review, err := svc.UpdateReview(ctx, existing.ID, existing.UserID, &UpdateReviewInput{
		Rating:  float64Ptr(9),
		Comment: strPtr("Even better on rewatch."),
	})

	require.NoError(t, err)
	assert.Equal(t, 9.0, review.Rating)
	assert.Equal(t, "Even better on rewatch.", review.Comment)
	reviews.AssertExpectations(t)
}

func TestDeleteReview_AdminMayDeleteAny(t *testing.T) {
	reviews := new(mockReviewRepository)
	movies := new(mockMovieRepository)
	svc := newReviewService(reviews, movies)
	ctx := context.Background()

	existing := sampleReview()
	reviews.On("GetByID", ctx, existing.ID).Return(existing, nil)
	reviews.On("Delete", ctx, existing.ID).Return(nil)

	err := svc.DeleteReview(ctx, existing.ID, "someone-else", domain.RoleAdmin)

	require.NoError(t, err)
	reviews.AssertExpectations(t)
}

func TestDeleteReview_NonOwnerForbidden(t *testing.T) {
	reviews := new(mockReviewRepository)
	movies := new(mockMovieRepository)
	svc := newReviewService(reviews, movies)
	ctx := context.Background()

	existing := sampleReview()
	reviews.On("GetByID", ctx, existing.ID).Return(existing, nil)

	err := svc.DeleteReview(ctx, existing.ID, "someone-else", domain.RoleUser)

	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	reviews.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func float64Ptr(f float64) *float64 {
	return &f
}
