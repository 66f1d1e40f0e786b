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

type SlotRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Slot, error)
	FindByMeetingID(ctx context.Context, meetingID uuid.UUID) ([]*entity.Slot, error)

	// FindByIDForUpdate row-locks the slot until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Slot, error)

	Create(ctx context.Context, slot *entity.Slot) error

	// ClaimSpot increments spots_taken only while the slot is open and below
	// capacity. false means nothing was claimed.
	ClaimSpot(ctx context.Context, id uuid.UUID) (bool, error)

	// ReleaseSpot decrements spots_taken if it is above zero. false means
	// nothing was released.
	ReleaseSpot(ctx context.Context, id uuid.UUID) (bool, error)

	// SetAvailability writes the mentor's open/closed flag. It is the only
	// writer of is_available; fullness is always read from the counts.
	SetAvailability(ctx context.Context, id uuid.UUID, available bool) error
}

const slotColumns = `id, meeting_id, start_time, end_time, spots_available, spots_taken, is_available, created_at, updated_at`

type slotRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewSlotRepository(db database.Querier, log *zap.Logger) SlotRepository {
	return &slotRepository{
		db:  db,
		log: log.With(zap.String("repository", "slot")),
	}
}

func scanSlot(row pgx.Row) (*entity.Slot, error) {
	var slot entity.Slot
	err := row.Scan(
		&slot.ID,
		&slot.MeetingID,
		&slot.StartTime,
		&slot.EndTime,
		&slot.SpotsAvailable,
		&slot.SpotsTaken,
		&slot.IsAvailable,
		&slot.CreatedAt,
		&slot.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *slotRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Slot, error) {
	return r.findOne(ctx, `SELECT `+slotColumns+` FROM meeting_slots WHERE id = $1`, id)
}

func (r *slotRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Slot, error) {
	return r.findOne(ctx, `SELECT `+slotColumns+` FROM meeting_slots WHERE id = $1 FOR UPDATE`, id)
}

func (r *slotRepository) findOne(ctx context.Context, query string, id uuid.UUID) (*entity.Slot, error) {
	slot, err := scanSlot(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find slot by ID",
			zap.Error(err),
			zap.String("slot_id", id.String()),
		)
		return nil, fmt.Errorf("find slot %s: %w", id.String(), classify(err))
	}

	return slot, nil
}

func (r *slotRepository) FindByMeetingID(ctx context.Context, meetingID uuid.UUID) ([]*entity.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM meeting_slots
		WHERE meeting_id = $1
		ORDER BY start_time
	`

	rows, err := r.db.Query(ctx, query, meetingID)
	if err != nil {
		r.log.Error("Failed to find slots by meeting ID",
			zap.Error(err),
			zap.String("meeting_id", meetingID.String()),
		)
		return nil, fmt.Errorf("find slots by meeting %s: %w", meetingID.String(), classify(err))
	}
	defer rows.Close()

	var slots []*entity.Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			r.log.Error("Failed to scan slot row", zap.Error(err))
			return nil, fmt.Errorf("scan slot row: %w", err)
		}
		slots = append(slots, slot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slot rows: %w", classify(err))
	}

	return slots, nil
}

func (r *slotRepository) Create(ctx context.Context, slot *entity.Slot) error {
	query := `
		INSERT INTO meeting_slots (id, meeting_id, start_time, end_time, spots_available, spots_taken, is_available, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(ctx, query,
		slot.ID,
		slot.MeetingID,
		slot.StartTime,
		slot.EndTime,
		slot.SpotsAvailable,
		slot.SpotsTaken,
		slot.IsAvailable,
		slot.CreatedAt,
		slot.UpdatedAt,
	)

	if err != nil {
		err = classify(err)
		r.log.Error("Failed to create slot",
			zap.Error(err),
			zap.String("meeting_id", slot.MeetingID.String()),
		)
		return fmt.Errorf("create slot for meeting %s: %w", slot.MeetingID.String(), err)
	}

	return nil
}

func (r *slotRepository) ClaimSpot(ctx context.Context, id uuid.UUID) (bool, error) {
	// the capacity check and the increment are one statement; the affected
	// row count is the only thing that decides who won
	query := `
		UPDATE meeting_slots
		SET spots_taken = spots_taken + 1,
		    updated_at = NOW()
		WHERE id = $1
		  AND is_available
		  AND spots_taken < spots_available
	`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to claim slot spot",
			zap.Error(err),
			zap.String("slot_id", id.String()),
		)
		return false, fmt.Errorf("claim spot on slot %s: %w", id.String(), classify(err))
	}

	return result.RowsAffected() == 1, nil
}

func (r *slotRepository) ReleaseSpot(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE meeting_slots
		SET spots_taken = spots_taken - 1,
		    updated_at = NOW()
		WHERE id = $1
		  AND spots_taken > 0
	`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to release slot spot",
			zap.Error(err),
			zap.String("slot_id", id.String()),
		)
		return false, fmt.Errorf("release spot on slot %s: %w", id.String(), classify(err))
	}

	return result.RowsAffected() == 1, nil
}

func (r *slotRepository) SetAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	query := `UPDATE meeting_slots SET is_available = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id, available)
	if err != nil {
		r.log.Error("Failed to update slot availability",
			zap.Error(err),
			zap.String("slot_id", id.String()),
			zap.Bool("available", available),
		)
		return fmt.Errorf("update slot %s availability: %w", id.String(), classify(err))
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("slot %s not found", id.String())
	}

	return nil
}
