package entity

import (
	"time"

	"github.com/google/uuid"
)

// Slot is one bookable window of a meeting. SpotsTaken only moves through the
// reservation service and always stays within [0, SpotsAvailable].
type Slot struct {
	BaseNoDelete
	MeetingID      uuid.UUID `db:"meeting_id"`
	StartTime      time.Time `db:"start_time"`
	EndTime        time.Time `db:"end_time"`
	SpotsAvailable int       `db:"spots_available"`
	SpotsTaken     int       `db:"spots_taken"`
	IsAvailable    bool      `db:"is_available"`
}

func (s *Slot) Remaining() int {
	if s.SpotsTaken >= s.SpotsAvailable {
		return 0
	}
	return s.SpotsAvailable - s.SpotsTaken
}

func (s *Slot) IsFull() bool {
	return s.Remaining() == 0
}

// CanReserve reports whether one more unit could be claimed right now.
func (s *Slot) CanReserve() bool {
	return s.IsAvailable && !s.IsFull()
}
