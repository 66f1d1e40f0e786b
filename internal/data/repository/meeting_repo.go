package repository

import (
	"context"
	"errors"
	"fmt"

	"mentor-booking/internal/data/entity"
	"mentor-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type MeetingRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Meeting, error)
}

type meetingRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewMeetingRepository(db database.Querier, log *zap.Logger) MeetingRepository {
	return &meetingRepository{
		db:  db,
		log: log.With(zap.String("repository", "meeting")),
	}
}

func (r *meetingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Meeting, error) {
	query := `
		SELECT id, mentor_id, title, is_free, price, currency, duration_minutes, created_at, updated_at
		FROM meetings
		WHERE id = $1
	`

	var meeting entity.Meeting
	err := r.db.QueryRow(ctx, query, id).Scan(
		&meeting.ID,
		&meeting.MentorID,
		&meeting.Title,
		&meeting.IsFree,
		&meeting.Price,
		&meeting.Currency,
		&meeting.DurationMinutes,
		&meeting.CreatedAt,
		&meeting.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find meeting by ID",
			zap.Error(err),
			zap.String("meeting_id", id.String()),
		)
		return nil, fmt.Errorf("find meeting by ID %s: %w", id.String(), classify(err))
	}

	return &meeting, nil
}
