package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/reelstack/moviecatalog/internal/domain"
	"github.com/reelstack/moviecatalog/internal/repository"
	"github.com/reelstack/moviecatalog/pkg/database"
	apperrors "github.com/reelstack/moviecatalog/pkg/errors"
)

// MovieRepository implements repository.MovieRepository using PostgreSQL.
type MovieRepository struct {
	pool database.DBTX
}

// NewMovieRepository creates a new PostgreSQL-backed movie repository.
func NewMovieRepository(pool database.DBTX) *MovieRepository {
	return &MovieRepository{pool: pool}
}

// Create inserts a new movie into the database.
func (r *MovieRepository) Create(ctx context.Context, m *domain.Movie) error {
	query := `
		INSERT INTO movies (id, title, description, genre, release_year, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		m.ID,
		m.Title,
		m.Description,
		m.Genre,
		m.ReleaseYear,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert movie: %w", err)
	}

	return nil
}

// GetByID retrieves a movie by its ID.
func (r *MovieRepository) GetByID(ctx context.Context, id string) (*domain.Movie, error) {
	query := `
		SELECT id, title, coalesce(description, ''), coalesce(genre, ''), release_year, created_at, updated_at
		FROM movies
		WHERE id = $1`

	var m domain.Movie
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&m.ID,
		&m.Title,
		&m.Description,
		&m.Genre,
		&m.ReleaseYear,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("movie", id)
		}
		return nil, fmt.Errorf("scan movie: %w", err)
	}

	return &m, nil
}

// List returns movies matching the given filter with the total count.
func (r *MovieRepository) List(ctx context.Context, filter repository.MovieFilter) ([]domain.Movie, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.Genre != nil {
		conditions = append(conditions, fmt.Sprintf("genre = $%d", argIndex))
		args = append(args, *filter.Genre)
		argIndex++
	}

	if filter.ReleaseYear != nil {
		conditions = append(conditions, fmt.Sprintf("release_year = $%d", argIndex))
		args = append(args, *filter.ReleaseYear)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Use count(*) OVER() for total count in a single query.
	query := fmt.Sprintf(`
		SELECT id, title, coalesce(description, ''), coalesce(genre, ''), release_year, created_at, updated_at,
			   count(*) OVER() AS total_count
		FROM movies
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIndex, argIndex+1,
	)

	limit := filter.PerPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list movies: %w", err)
	}
	defer rows.Close()

	var (
		movies     []domain.Movie
		totalCount int
	)

	for rows.Next() {
		var m domain.Movie
		if err := rows.Scan(
			&m.ID,
			&m.Title,
			&m.Description,
			&m.Genre,
			&m.ReleaseYear,
			&m.CreatedAt,
			&m.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan movie row: %w", err)
		}
		movies = append(movies, m)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate movie rows: %w", err)
	}

	if movies == nil {
		movies = []domain.Movie{}
	}

	return movies, totalCount, nil
}

// Search returns movies matching the query text ordered by relevance.
//
// A row matches when the stored search vector matches the parsed query,
// the title contains the text, or the title is trigram-similar to it.
// Full-text matches are ranked with ts_rank_cd; rows reached only through
// the substring or similarity branches fall back to similarity(title, text),
// so full-text matches sort ahead of fuzzy ones.
func (r *MovieRepository) Search(ctx context.Context, query string) ([]domain.Movie, error) {
	const stmt = `
		SELECT m.id, m.title, coalesce(m.description, ''), coalesce(m.genre, ''), m.release_year, m.created_at, m.updated_at
		FROM movies m
		CROSS JOIN plainto_tsquery('english', $1) q
		WHERE m.search_vector @@ q
		   OR m.title ILIKE '%' || $1 || '%'
		   OR similarity(m.title, $1) > 0.2
		ORDER BY
			CASE
				WHEN m.search_vector @@ q THEN ts_rank_cd(m.search_vector, q)
				ELSE similarity(m.title, $1)
			END DESC,
			m.title ASC`

	rows, err := r.pool.Query(ctx, stmt, query)
	if err != nil {
		return nil, fmt.Errorf("search movies: %w", err)
	}
	defer rows.Close()

	var movies []domain.Movie
	for rows.Next() {
		var m domain.Movie
		if err := rows.Scan(
			&m.ID,
			&m.Title,
			&m.Description,
			&m.Genre,
			&m.ReleaseYear,
			&m.CreatedAt,
			&m.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan movie row: %w", err)
		}
		movies = append(movies, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate movie rows: %w", err)
	}

	if movies == nil {
		movies = []domain.Movie{}
	}

	return movies, nil
}

// Update modifies an existing movie in the database.
func (r *MovieRepository) Update(ctx context.Context, m *domain.Movie) error {
	m.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE movies
		SET title = $1, description = $2, genre = $3, release_year = $4, updated_at = $5
		WHERE id = $6`

	ct, err := r.pool.Exec(ctx, query,
		m.Title,
		m.Description,
		m.Genre,
		m.ReleaseYear,
		m.UpdatedAt,
		m.ID,
	)
	if err != nil {
		return fmt.Errorf("update movie: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("movie", m.ID)
	}

	return nil
}

// Delete removes a movie from the database by its ID.
func (r *MovieRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM movies WHERE id = $1`

	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete movie: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("movie", id)
	}

	return nil
}
