package entity

import (
	"time"

	"github.com/google/uuid"
)

// UnbookedPayment is a completed checkout that could not become a booking,
// kept until an operator refunds it. TransactionRef is unique.
type UnbookedPayment struct {
	ID               uuid.UUID  `db:"id"`
	TransactionRef   string     `db:"transaction_ref"`
	PaymentIntentRef *string    `db:"payment_intent_ref"`
	SlotID           uuid.UUID  `db:"slot_id"`
	MeetingID        uuid.UUID  `db:"meeting_id"`
	MenteeID         uuid.UUID  `db:"mentee_id"`
	MentorID         uuid.UUID  `db:"mentor_id"`
	Amount           float64    `db:"amount"`
	Currency         string     `db:"currency"`
	Reason           string     `db:"reason"`
	CreatedAt        time.Time  `db:"created_at"`
	ResolvedAt       *time.Time `db:"resolved_at"`
}
