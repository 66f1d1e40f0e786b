package entity

import "github.com/google/uuid"

// Meeting is read-only here: only the columns needed to price and route a booking.
type Meeting struct {
	BaseNoDelete
	MentorID        uuid.UUID `db:"mentor_id"`
	Title           string    `db:"title"`
	IsFree          bool      `db:"is_free"`
	Price           float64   `db:"price"`
	Currency        string    `db:"currency"`
	DurationMinutes int       `db:"duration_minutes"`
}
