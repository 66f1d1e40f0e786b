package gateway

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrInvalidMetadata  = errors.New("invalid checkout metadata")
)

type EventType string

const (
	EventCheckoutCompleted EventType = "checkout.session.completed"
	EventChargeRefunded    EventType = "charge.refunded"
	EventIgnored           EventType = "ignored"
)

// CheckoutParams describes one paid booking attempt. Amount is in minor units.
type CheckoutParams struct {
	MeetingID     uuid.UUID
	SlotID        uuid.UUID
	MenteeID      uuid.UUID
	MentorID      uuid.UUID
	Notes         string
	Title         string
	Description   string
	Amount        int64
	Currency      string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
}

type CheckoutSession struct {
	ID  string
	URL string
}

// CheckoutCompleted carries what the booking core needs from a completed checkout.
type CheckoutCompleted struct {
	SessionID       string
	PaymentIntentID string
	MeetingID       uuid.UUID
	SlotID          uuid.UUID
	MenteeID        uuid.UUID
	MentorID        uuid.UUID
	Notes           string
	AmountTotal     int64
	Currency        string
}

type ChargeRefunded struct {
	ChargeID        string
	PaymentIntentID string
}

// Event is a verified gateway event. Exactly one payload field is set for the
// known types; EventIgnored carries none.
type Event struct {
	ID       string
	Type     EventType
	RawType  string
	Checkout *CheckoutCompleted
	Refund   *ChargeRefunded
}

type Gateway interface {
	CreateCheckout(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)

	// ParseWebhook verifies the signature header against payload before decoding.
	ParseWebhook(payload []byte, signature string) (*Event, error)
}
