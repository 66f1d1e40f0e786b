package response

import (
	"time"

	"mentor-booking/internal/data/entity"
)

type BookingResponse struct {
	ID                 string               `json:"id"`
	SlotID             string               `json:"slot_id"`
	MeetingID          string               `json:"meeting_id"`
	MenteeID           string               `json:"mentee_id"`
	MentorID           string               `json:"mentor_id"`
	Status             entity.BookingStatus `json:"status"`
	Notes              *string              `json:"notes,omitempty"`
	CancellationReason *string              `json:"cancellation_reason,omitempty"`
	ExternalRef        *string              `json:"external_ref,omitempty"`
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at"`
}

type PaymentResponse struct {
	ID               string               `json:"id"`
	BookingID        string               `json:"booking_id"`
	PayerID          string               `json:"payer_id"`
	RecipientID      string               `json:"recipient_id"`
	Amount           float64              `json:"amount"`
	Currency         string               `json:"currency"`
	Status           entity.PaymentStatus `json:"status"`
	TransactionRef   string               `json:"transaction_ref"`
	PaymentIntentRef *string              `json:"payment_intent_ref,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
}

type BookingDetailResponse struct {
	BookingResponse
	Slot    *SlotResponse    `json:"slot,omitempty"`
	Payment *PaymentResponse `json:"payment,omitempty"`
}

// ConfirmationResponse is returned to the gateway after a checkout event.
type ConfirmationResponse struct {
	Booking          BookingResponse  `json:"booking"`
	Payment          *PaymentResponse `json:"payment,omitempty"`
	AlreadyProcessed bool             `json:"already_processed"`
}

type CheckoutResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

type WebhookResponse struct {
	Received  bool   `json:"received"`
	EventType string `json:"event_type"`
	Detail    any    `json:"detail,omitempty"`
}

type RefundResponse struct {
	Ref      string `json:"ref"`
	Refunded int    `json:"refunded"`
}

// Helper converters
func BookingToResponse(b *entity.Booking) BookingResponse {
	return BookingResponse{
		ID:                 b.ID.String(),
		SlotID:             b.SlotID.String(),
		MeetingID:          b.MeetingID.String(),
		MenteeID:           b.MenteeID.String(),
		MentorID:           b.MentorID.String(),
		Status:             b.Status,
		Notes:              b.Notes,
		CancellationReason: b.CancellationReason,
		ExternalRef:        b.ExternalRef,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
}

func BookingsToResponse(bookings []*entity.Booking) []BookingResponse {
	out := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		out[i] = BookingToResponse(b)
	}
	return out
}

func PaymentToResponse(p *entity.Payment) PaymentResponse {
	return PaymentResponse{
		ID:               p.ID.String(),
		BookingID:        p.BookingID.String(),
		PayerID:          p.PayerID.String(),
		RecipientID:      p.RecipientID.String(),
		Amount:           p.Amount,
		Currency:         p.Currency,
		Status:           p.Status,
		TransactionRef:   p.TransactionRef,
		PaymentIntentRef: p.PaymentIntentRef,
		CreatedAt:        p.CreatedAt,
	}
}

type UnbookedPaymentResponse struct {
	ID               string     `json:"id"`
	TransactionRef   string     `json:"transaction_ref"`
	PaymentIntentRef *string    `json:"payment_intent_ref,omitempty"`
	SlotID           string     `json:"slot_id"`
	MeetingID        string     `json:"meeting_id"`
	MenteeID         string     `json:"mentee_id"`
	MentorID         string     `json:"mentor_id"`
	Amount           float64    `json:"amount"`
	Currency         string     `json:"currency"`
	Reason           string     `json:"reason"`
	CreatedAt        time.Time  `json:"created_at"`
	ResolvedAt       *time.Time `json:"resolved_at,omitempty"`
}

func UnbookedPaymentToResponse(p *entity.UnbookedPayment) UnbookedPaymentResponse {
	return UnbookedPaymentResponse{
		ID:               p.ID.String(),
		TransactionRef:   p.TransactionRef,
		PaymentIntentRef: p.PaymentIntentRef,
		SlotID:           p.SlotID.String(),
		MeetingID:        p.MeetingID.String(),
		MenteeID:         p.MenteeID.String(),
		MentorID:         p.MentorID.String(),
		Amount:           p.Amount,
		Currency:         p.Currency,
		Reason:           p.Reason,
		CreatedAt:        p.CreatedAt,
		ResolvedAt:       p.ResolvedAt,
	}
}

// ReconciliationResponse lists money and bookings that disagree: paid
// bookings with no payment row, and paid checkouts with no booking.
type ReconciliationResponse struct {
	MissingPayments  []BookingResponse         `json:"missing_payments"`
	UnbookedPayments []UnbookedPaymentResponse `json:"unbooked_payments"`
}
