package usecase

import (
	"mentor-booking/internal/data/repository"
	"mentor-booking/internal/gateway"
	"mentor-booking/internal/notifier"
	"mentor-booking/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Booking      BookingService
	Payment      PaymentService
	Slot         SlotService
	Notification NotificationService
}

func NewService(repo *repository.Repository, gw gateway.Gateway, notify notifier.Notifier, config *utils.Config, log *zap.Logger) *Service {
	booking := NewBookingService(repo, notify, log)

	return &Service{
		Booking:      booking,
		Payment:      NewPaymentService(repo, booking, gw, notify, config, log),
		Slot:         NewSlotService(repo, log),
		Notification: NewNotificationService(repo.Notification, log),
	}
}
