package request

import "time"

type SetSlotAvailabilityRequest struct {
	IsAvailable *bool `json:"is_available" validate:"required"`
}

type SlotInput struct {
	StartTime      time.Time `json:"start_time" validate:"required"`
	EndTime        time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
	SpotsAvailable int       `json:"spots_available" validate:"required,min=1,max=100"`
}

type CreateSlotsRequest struct {
	Slots []SlotInput `json:"slots" validate:"required,min=1,max=50,dive"`
}
