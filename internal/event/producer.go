package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/reelstack/moviecatalog/internal/domain"
	pkgkafka "github.com/reelstack/moviecatalog/pkg/kafka"
)

// Kafka topic constants for catalog domain events.
const (
	TopicMovieCreated   = "moviecatalog.movie.created"
	TopicMovieUpdated   = "moviecatalog.movie.updated"
	TopicMovieDeleted   = "moviecatalog.movie.deleted"
	TopicUserRegistered = "moviecatalog.user.registered"
)

// Aggregate type constants.
const (
	AggregateTypeMovie = "movie"
	AggregateTypeUser  = "user"
)

// Source identifier for events originating from this service.
const SourceMovieCatalog = "moviecatalog"

// MovieCreatedData is the payload for a movie.created event.
type MovieCreatedData struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Genre       string `json:"genre,omitempty"`
	ReleaseYear *int   `json:"release_year,omitempty"`
}

// MovieUpdatedData is the payload for a movie.updated event. PreviousTitle
// carries the title before the update so consumers can track renames.
type MovieUpdatedData struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	PreviousTitle string `json:"previous_title"`
	Description   string `json:"description,omitempty"`
	Genre         string `json:"genre,omitempty"`
	ReleaseYear   *int   `json:"release_year,omitempty"`
}

// MovieDeletedData is the payload for a movie.deleted event.
type MovieDeletedData struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Producer publishes catalog domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the catalog service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishMovieCreated publishes a movie.created event.
func (p *Producer) PublishMovieCreated(ctx context.Context, movie *domain.Movie) error {
	data := MovieCreatedData{
		ID:          movie.ID,
		Title:       movie.Title,
		Description: movie.Description,
		Genre:       movie.Genre,
		ReleaseYear: movie.ReleaseYear,
	}

	event, err := pkgkafka.NewEvent(TopicMovieCreated, movie.ID, AggregateTypeMovie, SourceMovieCatalog, data)
	if err != nil {
		return fmt.Errorf("create movie.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicMovieCreated, event); err != nil {
		return fmt.Errorf("publish movie.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published movie.created event",
		slog.String("movie_id", movie.ID),
		slog.String("title", movie.Title),
	)

	return nil
}

// PublishMovieUpdated publishes a movie.updated event.
func (p *Producer) PublishMovieUpdated(ctx context.Context, movie *domain.Movie, previousTitle string) error {
	data := MovieUpdatedData{
		ID:            movie.ID,
		Title:         movie.Title,
		PreviousTitle: previousTitle,
		Description:   movie.Description,
		Genre:         movie.Genre,
		ReleaseYear:   movie.ReleaseYear,
	}

	event, err := pkgkafka.NewEvent(TopicMovieUpdated, movie.ID, AggregateTypeMovie, SourceMovieCatalog, data)
	if err != nil {
		return fmt.Errorf("create movie.updated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicMovieUpdated, event); err != nil {
		return fmt.Errorf("publish movie.updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published movie.updated event",
		slog.String("movie_id", movie.ID),
		slog.String("title", movie.Title),
	)

	return nil
}

// PublishMovieDeleted publishes a movie.deleted event.
func (p *Producer) PublishMovieDeleted(ctx context.Context, id, title string) error {
	data := MovieDeletedData{ID: id, Title: title}

	event, err := pkgkafka.NewEvent(TopicMovieDeleted, id, AggregateTypeMovie, SourceMovieCatalog, data)
	if err != nil {
		return fmt.Errorf("create movie.deleted event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicMovieDeleted, event); err != nil {
		return fmt.Errorf("publish movie.deleted event: %w", err)
	}

	p.logger.DebugContext(ctx, "published movie.deleted event",
		slog.String("movie_id", id),
	)

	return nil
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	data := UserRegisteredData{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	}

	event, err := pkgkafka.NewEvent(TopicUserRegistered, user.ID, AggregateTypeUser, SourceMovieCatalog, data)
	if err != nil {
		return fmt.Errorf("create user.registered event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserRegistered, event); err != nil {
		return fmt.Errorf("publish user.registered event: %w", err)
	}

	p.logger.DebugContext(ctx, "published user.registered event",
		slog.String("user_id", user.ID),
	)

	return nil
}
