package entity

import (
	"testing"

	"github.com/google/uuid"
)

func TestBookingStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to BookingStatus
		want     bool
	}{
		{BookingStatusPending, BookingStatusConfirmed, true},
		{BookingStatusPending, BookingStatusCancelled, true},
		{BookingStatusPending, BookingStatusCompleted, false},
		{BookingStatusConfirmed, BookingStatusCancelled, true},
		{BookingStatusConfirmed, BookingStatusCompleted, true},
		{BookingStatusConfirmed, BookingStatusPending, false},
		{BookingStatusCancelled, BookingStatusConfirmed, false},
		{BookingStatusCancelled, BookingStatusCancelled, false},
		{BookingStatusCompleted, BookingStatusCancelled, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestBookingStatusActive(t *testing.T) {
	active := map[BookingStatus]bool{
		BookingStatusPending:   true,
		BookingStatusConfirmed: true,
		BookingStatusCancelled: false,
		BookingStatusCompleted: false,
	}
	for status, want := range active {
		if got := status.IsActive(); got != want {
			t.Errorf("%s.IsActive() = %v, want %v", status, got, want)
		}
	}
	if BookingStatus("expired").Valid() {
		t.Error("unknown status must not be valid")
	}
}

func TestSlotCapacity(t *testing.T) {
	s := Slot{SpotsAvailable: 2, SpotsTaken: 1, IsAvailable: true}
	if s.Remaining() != 1 || s.IsFull() || !s.CanReserve() {
		t.Fatalf("half-full slot: remaining=%d full=%v", s.Remaining(), s.IsFull())
	}

	s.SpotsTaken = 2
	if !s.IsFull() || s.CanReserve() {
		t.Error("full slot must not be reservable")
	}

	s = Slot{SpotsAvailable: 3, IsAvailable: false}
	if s.CanReserve() {
		t.Error("disabled slot must not be reservable")
	}
}

func TestBookingCounterpart(t *testing.T) {
	b := Booking{MenteeID: uuid.New(), MentorID: uuid.New()}

	if b.Counterpart(b.MenteeID) != b.MentorID {
		t.Error("mentee's counterpart must be the mentor")
	}
	if b.Counterpart(b.MentorID) != b.MenteeID {
		t.Error("mentor's counterpart must be the mentee")
	}
	if b.HasParticipant(uuid.New()) {
		t.Error("stranger must not be a participant")
	}
}
