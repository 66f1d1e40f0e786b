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

// Constraint names surfaced through UniqueConstraint.
const (
	ConstraintActiveBooking = "bookings_active_slot_mentee_uq"
	ConstraintExternalRef   = "bookings_external_ref_uq"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByExternalRef(ctx context.Context, ref string) (*entity.Booking, error)
	FindByParticipant(ctx context.Context, userID uuid.UUID, status *entity.BookingStatus, limit, offset int) ([]*entity.Booking, error)
	CountByParticipant(ctx context.Context, userID uuid.UUID, status *entity.BookingStatus) (int64, error)

	// Business queries
	FindActiveBySlotAndMentee(ctx context.Context, slotID, menteeID uuid.UUID) (*entity.Booking, error)
	FindPaidWithoutPayment(ctx context.Context, limit int) ([]*entity.Booking, error)

	// UpdateStatus moves the booking from -> to only if it is still in from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to entity.BookingStatus, reason *string) (bool, error)

	// MarkConfirmed promotes a pending booking and records the gateway reference.
	MarkConfirmed(ctx context.Context, id uuid.UUID, externalRef *string) (bool, error)
}

const bookingColumns = `id, slot_id, meeting_id, mentee_id, mentor_id, status, notes, cancellation_reason, external_ref, created_at, updated_at`

type bookingRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewBookingRepository(db database.Querier, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

func scanBooking(row pgx.Row) (*entity.Booking, error) {
	var booking entity.Booking
	err := row.Scan(
		&booking.ID,
		&booking.SlotID,
		&booking.MeetingID,
		&booking.MenteeID,
		&booking.MentorID,
		&booking.Status,
		&booking.Notes,
		&booking.CancellationReason,
		&booking.ExternalRef,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	query := `
		INSERT INTO bookings (id, slot_id, meeting_id, mentee_id, mentor_id, status, notes, cancellation_reason, external_ref, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Exec(ctx, query,
		booking.ID,
		booking.SlotID,
		booking.MeetingID,
		booking.MenteeID,
		booking.MentorID,
		string(booking.Status),
		booking.Notes,
		booking.CancellationReason,
		booking.ExternalRef,
		booking.CreatedAt,
		booking.UpdatedAt,
	)

	if err != nil {
		err = classify(err)
		// unique violations are an expected outcome of racing requests
		if errors.Is(err, ErrUniqueViolation) {
			r.log.Debug("Booking insert hit unique constraint",
				zap.String("constraint", UniqueConstraint(err)),
				zap.String("slot_id", booking.SlotID.String()),
				zap.String("mentee_id", booking.MenteeID.String()),
			)
		} else {
			r.log.Error("Failed to create booking",
				zap.Error(err),
				zap.String("slot_id", booking.SlotID.String()),
				zap.String("mentee_id", booking.MenteeID.String()),
			)
		}
		return fmt.Errorf("create booking on slot %s: %w", booking.SlotID.String(), err)
	}

	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	return r.findOne(ctx, "find booking by ID",
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
}

func (r *bookingRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	return r.findOne(ctx, "lock booking by ID",
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id)
}

func (r *bookingRepository) FindByExternalRef(ctx context.Context, ref string) (*entity.Booking, error) {
	return r.findOne(ctx, "find booking by external ref",
		`SELECT `+bookingColumns+` FROM bookings WHERE external_ref = $1`, ref)
}

func (r *bookingRepository) FindActiveBySlotAndMentee(ctx context.Context, slotID, menteeID uuid.UUID) (*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE slot_id = $1
		  AND mentee_id = $2
		  AND status IN ('pending', 'confirmed')
	`
	return r.findOne(ctx, "find active booking", query, slotID, menteeID)
}

func (r *bookingRepository) findOne(ctx context.Context, op, query string, args ...any) (*entity.Booking, error) {
	booking, err := scanBooking(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to "+op,
			zap.Error(err),
			zap.Any("args", args),
		)
		return nil, fmt.Errorf("%s: %w", op, classify(err))
	}

	return booking, nil
}

func statusArg(status *entity.BookingStatus) *string {
	if status == nil {
		return nil
	}
	s := string(*status)
	return &s
}

func (r *bookingRepository) FindByParticipant(ctx context.Context, userID uuid.UUID, status *entity.BookingStatus, limit, offset int) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE (mentee_id = $1 OR mentor_id = $1)
		  AND ($2::text IS NULL OR status = $2::text)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.Query(ctx, query, userID, statusArg(status), limit, offset)
	if err != nil {
		r.log.Error("Failed to find bookings by participant",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find bookings by participant %s: %w", userID.String(), classify(err))
	}

	return r.collect(rows)
}

func (r *bookingRepository) CountByParticipant(ctx context.Context, userID uuid.UUID, status *entity.BookingStatus) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM bookings
		WHERE (mentee_id = $1 OR mentor_id = $1)
		  AND ($2::text IS NULL OR status = $2::text)
	`

	var count int64
	err := r.db.QueryRow(ctx, query, userID, statusArg(status)).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count bookings by participant",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return 0, fmt.Errorf("count bookings by participant %s: %w", userID.String(), classify(err))
	}

	return count, nil
}

func (r *bookingRepository) FindPaidWithoutPayment(ctx context.Context, limit int) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings b
		WHERE b.external_ref IS NOT NULL
		  AND b.status IN ('confirmed', 'completed')
		  AND NOT EXISTS (SELECT 1 FROM payments p WHERE p.booking_id = b.id)
		ORDER BY b.created_at
		LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		r.log.Error("Failed to find paid bookings without payment", zap.Error(err))
		return nil, fmt.Errorf("find paid bookings without payment: %w", classify(err))
	}

	return r.collect(rows)
}

func (r *bookingRepository) collect(rows pgx.Rows) ([]*entity.Booking, error) {
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate booking rows: %w", classify(err))
	}

	return bookings, nil
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to entity.BookingStatus, reason *string) (bool, error) {
	query := `
		UPDATE bookings
		SET status = $3,
		    cancellation_reason = COALESCE($4, cancellation_reason),
		    updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	result, err := r.db.Exec(ctx, query, id, string(from), string(to), reason)
	if err != nil {
		r.log.Error("Failed to update booking status",
			zap.Error(err),
			zap.String("booking_id", id.String()),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
		)
		return false, fmt.Errorf("update booking %s status: %w", id.String(), classify(err))
	}

	return result.RowsAffected() == 1, nil
}

func (r *bookingRepository) MarkConfirmed(ctx context.Context, id uuid.UUID, externalRef *string) (bool, error) {
	query := `
		UPDATE bookings
		SET status = 'confirmed',
		    external_ref = COALESCE($2, external_ref),
		    updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`

	result, err := r.db.Exec(ctx, query, id, externalRef)
	if err != nil {
		r.log.Error("Failed to confirm booking",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return false, fmt.Errorf("confirm booking %s: %w", id.String(), classify(err))
	}

	return result.RowsAffected() == 1, nil
}
