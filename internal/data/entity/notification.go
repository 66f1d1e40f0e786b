package entity

import "github.com/google/uuid"

type NotificationType string

const (
	NotificationNewBooking       NotificationType = "new_booking"
	NotificationBookingCancelled NotificationType = "booking_cancelled"
	NotificationPaymentRefunded  NotificationType = "payment_refunded"
)

type Notification struct {
	BaseSimple
	UserID  uuid.UUID        `db:"user_id"`
	Type    NotificationType `db:"type"`
	Title   string           `db:"title"`
	Message string           `db:"message"`
	Data    map[string]any   `db:"data"`
	IsRead  bool             `db:"is_read"`
}
