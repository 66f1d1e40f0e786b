package wire

import (
	"mentor-booking/internal/adaptor"
	"mentor-booking/pkg/middleware"
	"mentor-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireSlot(r chi.Router, slotHandler *adaptor.SlotHandler, config *utils.Config, log *zap.Logger) {
	r.Get("/api/meetings/{id}/slots", slotHandler.GetMeetingSlots)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(config.JWT, log))
		r.Post("/api/meetings/{id}/slots", slotHandler.CreateSlots)
		r.Patch("/api/slots/{id}/availability", slotHandler.SetAvailability)
	})
}
