package wire

import (
	"mentor-booking/internal/adaptor"
	"mentor-booking/pkg/middleware"
	"mentor-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireNotification(r chi.Router, notificationHandler *adaptor.NotificationHandler, config *utils.Config, log *zap.Logger) {
	r.Route("/api/notifications", func(r chi.Router) {
		r.Use(middleware.Auth(config.JWT, log))

		r.Get("/", notificationHandler.GetNotifications)
		r.Patch("/", notificationHandler.MarkRead)
	})
}
