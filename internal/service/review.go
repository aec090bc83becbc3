package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/reelstack/moviecatalog/internal/domain"
	"github.com/reelstack/moviecatalog/internal/repository"
	apperrors "github.com/reelstack/moviecatalog/pkg/errors"
)

// CreateReviewInput holds the parameters for creating a review.
type CreateReviewInput struct {
	MovieID string
	UserID  string
	Rating  float64
	Comment string
}

// UpdateReviewInput holds the parameters for updating a review.
type UpdateReviewInput struct {
	Rating  *float64
	Comment *string
}

// ReviewListResult contains reviews and their aggregate summary.
type ReviewListResult struct {
	Reviews    []domain.Review       `json:"reviews"`
	Summary    *domain.ReviewSummary `json:"summary"`
	TotalCount int                   `json:"total_count"`
	Page       int                   `json:"page"`
	PerPage    int                   `json:"per_page"`
	TotalPages int                   `json:"total_pages"`
}

// ReviewService implements the business logic for review operations.
type ReviewService struct {
	reviews repository.ReviewRepository
	movies  repository.MovieRepository
	logger  *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(reviews repository.ReviewRepository, movies repository.MovieRepository, logger *slog.Logger) *ReviewService {
	return &ReviewService{
		reviews: reviews,
		movies:  movies,
		logger:  logger,
	}
}

// CreateReview creates a new movie review. A user may only review a movie
// once; the repository reports a conflict on the second attempt.
func (s *ReviewService) CreateReview(ctx context.Context, input *CreateReviewInput) (*domain.Review, error) {
	if input.MovieID == "" {
		return nil, apperrors.InvalidInput("movie_id is required")
	}
	if input.UserID == "" {
		return nil, apperrors.InvalidInput("user_id is required")
	}
	if err := validateRating(input.Rating); err != nil {
		return nil, err
	}

	// The movie must exist before a review can be attached to it.
	if _, err := s.movies.GetByID(ctx, input.MovieID); err != nil {
		return nil, fmt.Errorf("get movie for review: %w", err)
	}

	now := time.Now().UTC()
	review := &domain.Review{
		ID:        uuid.New().String(),
		MovieID:   input.MovieID,
		UserID:    input.UserID,
		Rating:    input.Rating,
		Comment:   input.Comment,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	s.logger.InfoContext(ctx, "review created",
		slog.String("review_id", review.ID),
		slog.String("movie_id", review.MovieID),
		slog.String("user_id", review.UserID),
		slog.Float64("rating", review.Rating),
	)

	return review, nil
}

// ListReviews returns paginated reviews for a movie along with the aggregate summary.
func (s *ReviewService) ListReviews(ctx context.Context, movieID string, page, perPage int) (*ReviewListResult, error) {
	if _, err := s.movies.GetByID(ctx, movieID); err != nil {
		return nil, fmt.Errorf("get movie for reviews: %w", err)
	}

	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}

	reviews, total, err := s.reviews.ListByMovie(ctx, movieID, page, perPage)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}

	summary, err := s.reviews.Summary(ctx, movieID)
	if err != nil {
		return nil, fmt.Errorf("get review summary: %w", err)
	}

	totalPages := total / perPage
	if total%perPage > 0 {
		totalPages++
	}

	return &ReviewListResult{
		Reviews:    reviews,
		Summary:    summary,
		TotalCount: total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
	}, nil
}

// GetReview retrieves a single review by its ID.
func (s *ReviewService) GetReview(ctx context.Context, reviewID string) (*domain.Review, error) {
	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	return review, nil
}

// UpdateReview applies partial updates to a review. Only the author may
// modify it.
func (s *ReviewService) UpdateReview(ctx context.Context, reviewID, userID string, input *UpdateReviewInput) (*domain.Review, error) {
	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("get review for update: %w", err)
	}

	if review.UserID != userID {
		return nil, apperrors.Forbidden("you may only modify your own reviews")
	}

	if input.Rating != nil {
		if err := validateRating(*input.Rating); err != nil {
			return nil, err
		}
		review.Rating = *input.Rating
	}

	if input.Comment != nil {
		review.Comment = *input.Comment
	}

	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}

	s.logger.InfoContext(ctx, "review updated",
		slog.String("review_id", review.ID),
		slog.String("user_id", userID),
	)

	return review, nil
}

// DeleteReview removes a review. The author may delete their own review;
// admins may delete any review.
func (s *ReviewService) DeleteReview(ctx context.Context, reviewID, userID, role string) error {
	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return fmt.Errorf("get review for delete: %w", err)
	}

	if review.UserID != userID && role != domain.RoleAdmin {
		return apperrors.Forbidden("you may only delete your own reviews")
	}

	if err := s.reviews.Delete(ctx, reviewID); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	s.logger.InfoContext(ctx, "review deleted",
		slog.String("review_id", reviewID),
		slog.String("user_id", userID),
	)

	return nil
}

func validateRating(rating float64) error {
	if rating < 0 || rating > 10 {
		return apperrors.InvalidInput("rating must be between 0 and 10")
	}
	return nil
}
