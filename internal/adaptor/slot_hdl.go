package adaptor

import (
	"encoding/json"
	"net/http"

	"mentor-booking/internal/dto/request"
	"mentor-booking/internal/usecase"
	"mentor-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SlotHandler struct {
	service usecase.SlotService
	log     *zap.Logger
}

func NewSlotHandler(service usecase.SlotService, log *zap.Logger) *SlotHandler {
	return &SlotHandler{
		service: service,
		log:     log.With(zap.String("handler", "slot")),
	}
}

// GetMeetingSlots handles GET /api/meetings/{id}/slots (public)
func (h *SlotHandler) GetMeetingSlots(w http.ResponseWriter, r *http.Request) {
	meetingID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid meeting ID", nil)
		return
	}

	slots, err := h.service.GetMeetingSlots(r.Context(), meetingID)
	if err != nil {
		writeServiceError(h.log, w, err, "get meeting slots")
		return
	}

	utils.ResponseSuccess(w, "success", slots)
}

// CreateSlots handles POST /api/meetings/{id}/slots (meeting mentor only)
func (h *SlotHandler) CreateSlots(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	meetingID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid meeting ID", nil)
		return
	}

	var req request.CreateSlotsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	slots, err := h.service.CreateSlots(r.Context(), userID, meetingID, &req)
	if err != nil {
		writeServiceError(h.log, w, err, "create slots")
		return
	}

	utils.ResponseCreated(w, "Slots created", slots)
}

// SetAvailability handles PATCH /api/slots/{id}/availability
func (h *SlotHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	slotID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid slot ID", nil)
		return
	}

	var req request.SetSlotAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	slot, err := h.service.SetAvailability(r.Context(), userID, slotID, &req)
	if err != nil {
		writeServiceError(h.log, w, err, "set slot availability")
		return
	}

	utils.ResponseSuccess(w, "Slot updated", slot)
}
