package request

// MarkNotificationsRequest marks one notification, or every unread one when
// MarkAllRead is set.
type MarkNotificationsRequest struct {
	NotificationID string `json:"notification_id" validate:"omitempty,uuid"`
	MarkAllRead    bool   `json:"mark_all_read"`
}
