package wire

import (
	"mentor-booking/internal/adaptor"
	"mentor-booking/internal/data/repository"
	"mentor-booking/pkg/middleware"
	"mentor-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireBooking(
	r chi.Router,
	bookingHandler *adaptor.BookingHandler,
	repo *repository.Repository,
	config *utils.Config,
	log *zap.Logger,
) {
	// ==================== PROTECTED ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(config.JWT, log))

		// POST /api/bookings - book a free meeting, rate limited per IP
		r.With(rateLimit(config, log)).Post("/api/bookings", bookingHandler.CreateBooking)

		// PATCH /api/bookings - cancel or complete
		r.Patch("/api/bookings", bookingHandler.UpdateBooking)

		// GET /api/bookings - caller's bookings as mentee or mentor
		r.Get("/api/bookings", bookingHandler.GetUserBookings)
	})

	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Auth(config.JWT, log))
		r.Use(middleware.Admin(repo.Profile, log))

		r.Get("/bookings/{id}", bookingHandler.GetBookingByID)

		// confirmed paid bookings with no payment row
		r.Get("/reconciliation", bookingHandler.GetUnreconciled)
	})
}
