package repository

import (
	"context"
	"fmt"

	"mentor-booking/pkg/database"

	"go.uber.org/zap"
)

// Transactor runs fn against a Repository whose members all share one
// transaction. Returning an error from fn rolls everything back. Calling
// WithTx on the Repository handed to fn opens a savepoint.
type Transactor interface {
	WithTx(ctx context.Context, fn func(tx *Repository) error) error
}

type Repository struct {
	Profile      ProfileRepository
	Meeting      MeetingRepository
	Slot         SlotRepository
	Booking      BookingRepository
	Payment      PaymentRepository
	Notification NotificationRepository

	UnbookedPayment UnbookedPaymentRepository

	Tx Transactor
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return newRepository(db, db, log)
}

func newRepository(q database.Querier, b database.Beginner, log *zap.Logger) *Repository {
	return &Repository{
		Profile:      NewProfileRepository(q, log),
		Meeting:      NewMeetingRepository(q, log),
		Slot:         NewSlotRepository(q, log),
		Booking:      NewBookingRepository(q, log),
		Payment:      NewPaymentRepository(q, log),
		Notification: NewNotificationRepository(q, log),

		UnbookedPayment: NewUnbookedPaymentRepository(q, log),

		Tx: &pgxTransactor{db: b, log: log},
	}
}

// WithTx delegates to the configured Transactor.
func (r *Repository) WithTx(ctx context.Context, fn func(tx *Repository) error) error {
	return r.Tx.WithTx(ctx, fn)
}

type pgxTransactor struct {
	db  database.Beginner
	log *zap.Logger
}

func (t *pgxTransactor) WithTx(ctx context.Context, fn func(tx *Repository) error) error {
	tx, err := t.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", classify(err))
	}
	// no-op once committed
	defer tx.Rollback(ctx)

	if err := fn(newRepository(tx, tx, t.log)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		t.log.Error("Failed to commit transaction", zap.Error(err))
		return fmt.Errorf("commit transaction: %w", classify(err))
	}

	return nil
}
