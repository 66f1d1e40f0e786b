package wire

import (
	"mentor-booking/internal/adaptor"
	"mentor-booking/pkg/middleware"
	"mentor-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wirePayment(r chi.Router, paymentHandler *adaptor.PaymentHandler, config *utils.Config, log *zap.Logger) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(config.JWT, log))
		r.Use(rateLimit(config, log))

		r.Post("/api/payments/checkout", paymentHandler.CreateCheckout)
	})

	// gateway callback, authenticated by its signature header
	r.Post("/api/payments/webhook", paymentHandler.Webhook)
}
