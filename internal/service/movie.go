package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/reelstack/moviecatalog/internal/domain"
	"github.com/reelstack/moviecatalog/internal/event"
	"github.com/reelstack/moviecatalog/internal/repository"
	apperrors "github.com/reelstack/moviecatalog/pkg/errors"
)

// Release year bounds. 1888 is the year of the earliest surviving film.
const (
	minReleaseYear = 1888
	maxReleaseYear = 2100
)

// MovieService implements the business logic for movie operations,
// including search cache invalidation after every write.
type MovieService struct {
	repo     repository.MovieRepository
	cache    repository.SearchCache
	producer *event.Producer
	logger   *slog.Logger
}

// NewMovieService creates a new movie service.
func NewMovieService(repo repository.MovieRepository, cache repository.SearchCache, producer *event.Producer, logger *slog.Logger) *MovieService {
	return &MovieService{
		repo:     repo,
		cache:    cache,
		producer: producer,
		logger:   logger,
	}
}

// CreateMovieInput holds the parameters for creating a movie.
type CreateMovieInput struct {
	Title       string
	Description string
	Genre       string
	ReleaseYear *int
}

// UpdateMovieInput holds the parameters for updating a movie.
type UpdateMovieInput struct {
	Title       *string
	Description *string
	Genre       *string
	ReleaseYear *int
}

// CreateMovie creates a new movie. The whole search cache is cleared
// afterwards: any cached query could now be missing the new movie.
func (s *MovieService) CreateMovie(ctx context.Context, input *CreateMovieInput) (*domain.Movie, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.InvalidInput("movie title is required")
	}
	if err := validateReleaseYear(input.ReleaseYear); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	movie := &domain.Movie{
		ID:          uuid.New().String(),
		Title:       title,
		Description: input.Description,
		Genre:       input.Genre,
		ReleaseYear: input.ReleaseYear,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, movie); err != nil {
		return nil, fmt.Errorf("create movie: %w", err)
	}

	s.cache.Clear(ctx)

	if err := s.producer.PublishMovieCreated(ctx, movie); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish movie.created event",
			slog.String("movie_id", movie.ID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}

	s.logger.InfoContext(ctx, "movie created",
		slog.String("movie_id", movie.ID),
		slog.String("title", movie.Title),
	)

	return movie, nil
}

// GetMovie retrieves a movie by its ID.
func (s *MovieService) GetMovie(ctx context.Context, id string) (*domain.Movie, error) {
	movie, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get movie by id: %w", err)
	}
	return movie, nil
}

// ListMovies returns a filtered, paginated list of movies.
func (s *MovieService) ListMovies(ctx context.Context, filter repository.MovieFilter) ([]domain.Movie, int, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 20
	}
	if filter.PerPage > 100 {
		filter.PerPage = 100
	}

	movies, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list movies: %w", err)
	}

	return movies, total, nil
}

// UpdateMovie applies partial updates to an existing movie. After the row is
// written, cached queries mentioning the old title are invalidated, and the
// new title too when it changed.
func (s *MovieService) UpdateMovie(ctx context.Context, id string, input *UpdateMovieInput) (*domain.Movie, error) {
	movie, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get movie for update: %w", err)
	}

	previousTitle := movie.Title

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperrors.InvalidInput("movie title must not be empty")
		}
		movie.Title = title
	}

	if input.Description != nil {
		movie.Description = *input.Description
	}

	if input.Genre != nil {
		movie.Genre = *input.Genre
	}

	if input.ReleaseYear != nil {
		if err := validateReleaseYear(input.ReleaseYear); err != nil {
			return nil, err
		}
		movie.ReleaseYear = input.ReleaseYear
	}

	if err := s.repo.Update(ctx, movie); err != nil {
		return nil, fmt.Errorf("update movie: %w", err)
	}

	s.cache.DeleteMatching(ctx, previousTitle)
	if !strings.EqualFold(movie.Title, previousTitle) {
		s.cache.DeleteMatching(ctx, movie.Title)
	}

	if err := s.producer.PublishMovieUpdated(ctx, movie, previousTitle); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish movie.updated event",
			slog.String("movie_id", movie.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "movie updated",
		slog.String("movie_id", movie.ID),
		slog.String("title", movie.Title),
	)

	return movie, nil
}

// DeleteMovie removes a movie by its ID and invalidates cached queries
// mentioning its title.
func (s *MovieService) DeleteMovie(ctx context.Context, id string) error {
	// The title must be captured before the row is gone.
	movie, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get movie for delete: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete movie: %w", err)
	}

	s.cache.DeleteMatching(ctx, movie.Title)

	if err := s.producer.PublishMovieDeleted(ctx, id, movie.Title); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish movie.deleted event",
			slog.String("movie_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "movie deleted",
		slog.String("movie_id", id),
	)

	return nil
}

func validateReleaseYear(year *int) error {
	if year == nil {
		return nil
	}
	if *year < minReleaseYear || *year > maxReleaseYear {
		return apperrors.InvalidInput(fmt.Sprintf("release year must be between %d and %d", minReleaseYear, maxReleaseYear))
	}
	return nil
}
