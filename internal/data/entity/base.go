package entity

import (
	"time"

	"github.com/google/uuid"
)

type BaseNoDelete struct {
	ID        uuid.UUID `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type BaseSimple struct {
	ID        uuid.UUID `db:"id"`
	CreatedAt time.Time `db:"created_at"`
}

// NewBaseNoDelete stamps a fresh ID and identical created/updated times.
func NewBaseNoDelete(now time.Time) BaseNoDelete {
	return BaseNoDelete{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}
