package response

import (
	"time"

	"mentor-booking/internal/data/entity"
)

type SlotResponse struct {
	ID             string    `json:"id"`
	MeetingID      string    `json:"meeting_id"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	SpotsAvailable int       `json:"spots_available"`
	SpotsTaken     int       `json:"spots_taken"`
	SpotsRemaining int       `json:"spots_remaining"`
	// IsAvailable is what a mentee sees: open and not full.
	IsAvailable bool `json:"is_available"`
	// IsOpen is the mentor's own flag.
	IsOpen bool `json:"is_open"`
}

func SlotToResponse(s *entity.Slot) SlotResponse {
	return SlotResponse{
		ID:             s.ID.String(),
		MeetingID:      s.MeetingID.String(),
		StartTime:      s.StartTime,
		EndTime:        s.EndTime,
		SpotsAvailable: s.SpotsAvailable,
		SpotsTaken:     s.SpotsTaken,
		SpotsRemaining: s.Remaining(),
		IsAvailable:    s.CanReserve(),
		IsOpen:         s.IsAvailable,
	}
}
