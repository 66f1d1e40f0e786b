package request

type CreateBookingRequest struct {
	SlotID    string  `json:"slot_id" validate:"required,uuid"`
	MeetingID string  `json:"meeting_id" validate:"required,uuid"`
	Notes     *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

type UpdateBookingRequest struct {
	BookingID string  `json:"booking_id" validate:"required,uuid"`
	Action    string  `json:"action" validate:"required,oneof=cancel complete"`
	Reason    *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

type ListBookingsRequest struct {
	PaginatedRequest
	Status string `json:"status" validate:"omitempty,oneof=pending confirmed cancelled completed"`
}
