package adaptor

import (
	"errors"
	"net/http"

	"mentor-booking/internal/gateway"
	"mentor-booking/internal/usecase"
	"mentor-booking/pkg/utils"

	"go.uber.org/zap"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

// Order matters: the first match wins.
var errorMappings = []errorMapping{
	{usecase.ErrSlotFull, http.StatusConflict, "slot_full"},
	{usecase.ErrDuplicateBooking, http.StatusConflict, "duplicate_booking"},
	{usecase.ErrSelfBookingDenied, http.StatusBadRequest, "self_booking_denied"},
	{usecase.ErrNotAuthorized, http.StatusForbidden, "not_authorized"},
	{usecase.ErrInvalidStateTransition, http.StatusBadRequest, "invalid_state_transition"},
	{usecase.ErrSlotNotFound, http.StatusNotFound, "slot_not_found"},
	{usecase.ErrBookingNotFound, http.StatusNotFound, "booking_not_found"},
	{usecase.ErrMeetingNotFound, http.StatusNotFound, "meeting_not_found"},
	{usecase.ErrNotificationNotFound, http.StatusNotFound, "notification_not_found"},
	{usecase.ErrPaymentRequired, http.StatusBadRequest, "payment_required"},
	{usecase.ErrFreeMeeting, http.StatusBadRequest, "free_meeting"},
	{usecase.ErrValidation, http.StatusBadRequest, "validation_failed"},
	{gateway.ErrInvalidSignature, http.StatusBadRequest, "invalid_signature"},
	{gateway.ErrInvalidMetadata, http.StatusBadRequest, "invalid_metadata"},
	{usecase.ErrTransientStore, http.StatusServiceUnavailable, "temporarily_unavailable"},
}

// statusFor maps a service error to its HTTP status and response code.
// Unknown errors are 500.
func statusFor(err error) errorMapping {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m
		}
	}
	return errorMapping{status: http.StatusInternalServerError, code: "internal_error"}
}

// writeServiceError logs err and writes the error envelope. Client errors
// carry the sentinel's text so wrapped IDs and SQL context stay in the logs;
// validation errors keep the field details.
func writeServiceError(log *zap.Logger, w http.ResponseWriter, err error, operation string) {
	m := statusFor(err)

	switch m.status {
	case http.StatusInternalServerError:
		log.Error("Failed to "+operation, zap.Error(err), zap.String("operation", operation))
		utils.ResponseError(w, m.status, m.code, "Internal server error")
	case http.StatusServiceUnavailable:
		log.Warn(operation+" failed - datastore unavailable", zap.Error(err), zap.String("operation", operation))
		utils.ResponseError(w, m.status, m.code, "Service temporarily unavailable, please retry")
	default:
		log.Warn(operation+" rejected",
			zap.Error(err),
			zap.String("operation", operation),
			zap.String("code", m.code))
		msg := m.err.Error()
		if m.err == usecase.ErrValidation {
			msg = err.Error()
		}
		utils.ResponseError(w, m.status, m.code, msg)
	}
}
