package adaptor

import (
	"encoding/json"
	"net/http"

	"mentor-booking/internal/dto/request"
	"mentor-booking/internal/usecase"
	"mentor-booking/pkg/utils"

	"go.uber.org/zap"
)

type NotificationHandler struct {
	service usecase.NotificationService
	log     *zap.Logger
}

func NewNotificationHandler(service usecase.NotificationService, log *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		log:     log.With(zap.String("handler", "notification")),
	}
}

// GetNotifications handles GET /api/notifications
func (h *NotificationHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	inbox, err := h.service.GetNotifications(r.Context(), userID)
	if err != nil {
		writeServiceError(h.log, w, err, "get notifications")
		return
	}

	utils.ResponseSuccess(w, "success", inbox)
}

// MarkRead handles PATCH /api/notifications
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.MarkNotificationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	updated, err := h.service.MarkRead(r.Context(), userID, &req)
	if err != nil {
		writeServiceError(h.log, w, err, "mark notifications read")
		return
	}

	utils.ResponseSuccess(w, "Notifications updated", map[string]int64{"updated": updated})
}
