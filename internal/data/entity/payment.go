package entity

import (
	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

type Payment struct {
	BaseNoDelete
	BookingID        uuid.UUID     `db:"booking_id"`
	PayerID          uuid.UUID     `db:"payer_id"`
	RecipientID      uuid.UUID     `db:"recipient_id"`
	Amount           float64       `db:"amount"`
	Currency         string        `db:"currency"`
	Status           PaymentStatus `db:"status"`
	TransactionRef   string        `db:"transaction_ref"`
	PaymentIntentRef *string       `db:"payment_intent_ref"`
}
