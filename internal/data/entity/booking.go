package entity

import (
	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCancelled, BookingStatusCompleted},
}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled, BookingStatusCompleted:
		return true
	}
	return false
}

// IsActive reports whether a booking in this status holds a unit of slot capacity.
func (s BookingStatus) IsActive() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed
}

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Booking struct {
	BaseNoDelete
	SlotID             uuid.UUID     `db:"slot_id"`
	MeetingID          uuid.UUID     `db:"meeting_id"`
	MenteeID           uuid.UUID     `db:"mentee_id"`
	MentorID           uuid.UUID     `db:"mentor_id"`
	Status             BookingStatus `db:"status"`
	Notes              *string       `db:"notes"`
	CancellationReason *string       `db:"cancellation_reason"`
	ExternalRef        *string       `db:"external_ref"`
}

func (b *Booking) HasParticipant(userID uuid.UUID) bool {
	return userID == b.MenteeID || userID == b.MentorID
}

// Counterpart returns the other side of the booking relative to actorID.
func (b *Booking) Counterpart(actorID uuid.UUID) uuid.UUID {
	if actorID == b.MenteeID {
		return b.MentorID
	}
	return b.MenteeID
}
