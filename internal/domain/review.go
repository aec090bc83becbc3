package domain

import (
	"time"
)

// Review represents a movie review submitted by a user.
type Review struct {
	ID        string    `json:"id"`
	MovieID   string    `json:"movie_id"`
	UserID    string    `json:"user_id"`
	Rating    float64   `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ReviewSummary contains aggregate review statistics for a movie.
type ReviewSummary struct {
	MovieID       string  `json:"movie_id"`
	AverageRating float64 `json:"average_rating"`
	TotalCount    int     `json:"total_count"`
}
