package usecase

import (
	"errors"

	"mentor-booking/internal/data/repository"
)

var (
	ErrSlotFull               = errors.New("slot is full")
	ErrSlotNotFound           = errors.New("slot not found")
	ErrDuplicateBooking       = errors.New("mentee already holds an active booking for this slot")
	ErrSelfBookingDenied      = errors.New("mentors cannot book their own meetings")
	ErrNotAuthorized          = errors.New("not authorized for this booking")
	ErrInvalidStateTransition = errors.New("invalid booking state transition")
	ErrAlreadyProcessed       = errors.New("payment already processed")
	ErrAlreadyCancelled       = errors.New("booking already cancelled")
	ErrBookingNotFound        = errors.New("booking not found")
	ErrMeetingNotFound        = errors.New("meeting not found")
	ErrPaymentRequired        = errors.New("meeting requires payment, use checkout")
	ErrFreeMeeting            = errors.New("meeting is free, book it directly")
	ErrNotificationNotFound   = errors.New("notification not found")
	ErrValidation             = errors.New("validation failed")

	// ErrPaidNotBooked wraps the rejection of a paid checkout that was stored
	// for refund instead of becoming a booking.
	ErrPaidNotBooked = errors.New("paid checkout held for refund")

	// ErrTransientStore marks datastore failures that are safe to retry.
	ErrTransientStore = repository.ErrTransient
)
