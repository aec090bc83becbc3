package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelstack/moviecatalog/internal/domain"
	"github.com/reelstack/moviecatalog/pkg/database"
	apperrors "github.com/reelstack/moviecatalog/pkg/errors"
)

func setupReviewRepo(t *testing.T) (*ReviewRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	pool, err := database.NewMockPool()
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return NewReviewRepository(pool), pool
}

func reviewColumns() []string {
	return []string{"id", "movie_id", "user_id", "rating", "comment", "created_at", "updated_at"}
}

func sampleReview() *domain.Review {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &domain.Review{
		ID:        "3c1d6e2a-8b4f-4a7c-9d0e-5f6a7b8c9d0e",
		MovieID:   "9f1c7f9e-2b3a-4e6d-8f5a-1c2d3e4f5a6b",
		UserID:    "7a2b3c4d-5e6f-4a1b-8c9d-0e1f2a3b4c5d",
		Rating:    8.5,
		Comment:   "Great movie.",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestReviewRepository_Create_Success(t *testing.T) {
	repo, pool := setupReviewRepo(t)

	rv := sampleReview()
	pool.ExpectExec("INSERT INTO reviews").
		WithArgs(rv.ID, rv.MovieID, rv.UserID, rv.Rating, rv.Comment, rv.CreatedAt, rv.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), rv)

	require.NoError(t, err)
	require.NoError(t, pool.ExpectationsWereMet())
}

func TestReviewRepository_Create_DuplicateIsConflict(t *testing.T) {
	repo, pool := setupReviewRepo(t)

	rv := sampleReview()
	pool.ExpectExec("INSERT INTO reviews").
		WithArgs(rv.ID, rv.MovieID, rv.UserID, rv.Rating, rv.Comment, rv.CreatedAt, rv.UpdatedAt).
		WillReturnError(errors.New(`ERROR: duplicate key value violates unique constraint "reviews_movie_id_user_id_key" (SQLSTATE 23505)`))

	err := repo.Create(context.Background(), rv)

	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}

func TestReviewRepository_GetByID_NotFound(t *testing.T) {
	repo, pool := setupReviewRepo(t)

	pool.ExpectQuery("SELECT (.+) FROM reviews").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	got, err := repo.GetByID(context.Background(), "missing")

	assert.Nil(t, got)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestReviewRepository_ListByMovie(t *testing.T) {
	repo, pool := setupReviewRepo(t)

	rv := sampleReview()
	pool.ExpectQuery("SELECT (.+) FROM reviews").
		WithArgs(rv.MovieID, 20, 0).
		WillReturnRows(pgxmock.NewRows(append(reviewColumns(), "total_count")).
			AddRow(rv.ID, rv.MovieID, rv.UserID, rv.Rating, rv.Comment, rv.CreatedAt, rv.UpdatedAt, 34))

	reviews, total, err := repo.ListByMovie(context.Background(), rv.MovieID, 1, 20)

	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, 34, total)
	assert.Equal(t, 8.5, reviews[0].Rating)
}

func TestReviewRepository_Summary_RoundsAverage(t *testing.T) {
	repo, pool := setupReviewRepo(t)

	pool.ExpectQuery("SELECT (.+) FROM reviews").
		WithArgs("movie-1").
		WillReturnRows(pgxmock.NewRows([]string{"avg", "count"}).AddRow(7.6666666, 3))

	summary, err := repo.Summary(context.Background(), "movie-1")

	require.NoError(t, err)
	assert.Equal(t, 7.7, summary.AverageRating)
	assert.Equal(t, 3, summary.TotalCount)
}

func TestReviewRepository_Summary_NoReviews(t *testing.T) {
	repo, pool := setupReviewRepo(t)

	pool.ExpectQuery("SELECT (.+) FROM reviews").
		WithArgs("movie-1").
		WillReturnRows(pgxmock.NewRows([]string{"avg", "count"}).AddRow(0.0, 0))

	summary, err := repo.Summary(context.Background(), "movie-1")

	require.NoError(t, err)
	assert.Equal(t, 0.0, summary.AverageRating)
	assert.Equal(t, 0, summary.TotalCount)
}

func TestReviewRepository_Update_NotFound(t *testing.T) {
	repo, pool := setupReviewRepo(t)

	rv := sampleReview()
	pool.ExpectExec("UPDATE reviews").
		WithArgs(rv.Rating, rv.Comment, pgxmock.AnyArg(), rv.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Update(context.Background(), rv)

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestReviewRepository_Delete_Success(t *testing.T) {
	repo, pool := setupReviewRepo(t)

	pool.ExpectExec("DELETE FROM reviews").
		WithArgs("review-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := repo.Delete(context.Background(), "review-1")

	require.NoError(t, err)
	require.NoError(t, pool.ExpectationsWereMet())
}
