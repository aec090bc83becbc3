package repository

import (
	"context"
	"time"

	"github.com/reelstack/moviecatalog/internal/domain"
)

// MovieFilter defines filter criteria for listing movies.
type MovieFilter struct {
	Genre       *string
	ReleaseYear *int
	Page        int
	PerPage     int
}

// MovieRepository defines the interface for movie persistence operations.
type MovieRepository interface {
	// Create inserts a new movie into the store.
	Create(ctx context.Context, movie *domain.Movie) error

	// GetByID retrieves a movie by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Movie, error)

	// List returns movies matching the given filter along with the total count.
	List(ctx context.Context, filter MovieFilter) ([]domain.Movie, int, error)

	// Search returns movies matching the query ordered by relevance,
	// best match first. An empty slice means no matches.
	Search(ctx context.Context, query string) ([]domain.Movie, error)

	// Update modifies an existing movie in the store.
	Update(ctx context.Context, movie *domain.Movie) error

	// Delete removes a movie from the store by its identifier.
	Delete(ctx context.Context, id string) error
}

// ReviewRepository defines the interface for review persistence operations.
type ReviewRepository interface {
	// Create inserts a new review into the store.
	Create(ctx context.Context, review *domain.Review) error

	// GetByID retrieves a review by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Review, error)

	// ListByMovie returns reviews for a movie, newest first, with the total count.
	ListByMovie(ctx context.Context, movieID string, page, perPage int) ([]domain.Review, int, error)

	// Summary returns aggregate rating statistics for a movie.
	Summary(ctx context.Context, movieID string) (*domain.ReviewSummary, error)

	// Update modifies an existing review in the store.
	Update(ctx context.Context, review *domain.Review) error

	// Delete removes a review from the store by its identifier.
	Delete(ctx context.Context, id string) error
}

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user into the store.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByUsername retrieves a user by username.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// GetByEmail retrieves a user by email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// RefreshTokenRepository defines the interface for refresh token persistence.
type RefreshTokenRepository interface {
	// Create stores a new refresh token record.
	Create(ctx context.Context, token *domain.RefreshToken) error

	// GetByHash retrieves a token record by its SHA-256 hash.
	GetByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)

	// Revoke marks the token with the given hash as revoked.
	Revoke(ctx context.Context, tokenHash string) error

	// RevokeAllForUser marks all of a user's tokens as revoked.
	RevokeAllForUser(ctx context.Context, userID string) error

	// DeleteExpired removes tokens that expired before the cutoff and
	// returns the number of rows deleted.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)

	// DeleteRevoked removes tokens already marked revoked and returns
	// the number of rows deleted.
	DeleteRevoked(ctx context.Context) (int64, error)
}

// SearchCache defines the interface for the query result cache.
// Implementations degrade gracefully: a broken cache behaves as a miss
// on reads and a no-op on writes, and never surfaces errors to callers.
type SearchCache interface {
	// Get returns the cached movie list for the query, or ok=false on a miss.
	Get(ctx context.Context, query string) (movies []domain.Movie, ok bool)

	// Set stores the movie list for the query with the configured TTL.
	Set(ctx context.Context, query string, movies []domain.Movie)

	// Delete removes the entry for the exact query.
	Delete(ctx context.Context, query string)

	// DeleteMatching removes every entry whose query contains the given
	// text, case-insensitively.
	DeleteMatching(ctx context.Context, text string)

	// Clear removes all cached search entries.
	Clear(ctx context.Context)
}
