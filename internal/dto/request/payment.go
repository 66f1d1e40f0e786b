package request

type CheckoutRequest struct {
	SlotID    string  `json:"slot_id" validate:"required,uuid"`
	MeetingID string  `json:"meeting_id" validate:"required,uuid"`
	Notes     *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}
