package adaptor

import (
	"mentor-booking/internal/usecase"

	"go.uber.org/zap"
)

type Handler struct {
	Booking      *BookingHandler
	Payment      *PaymentHandler
	Slot         *SlotHandler
	Notification *NotificationHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Booking:      NewBookingHandler(service.Booking, log),
		Payment:      NewPaymentHandler(service.Payment, log),
		Slot:         NewSlotHandler(service.Slot, log),
		Notification: NewNotificationHandler(service.Notification, log),
	}
}
