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

const ConstraintTransactionRef = "payments_transaction_ref_uq"

type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	FindByTransactionRef(ctx context.Context, ref string) (*entity.Payment, error)
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.Payment, error)

	// MarkRefunded flips every non-refunded payment whose transaction or
	// payment intent reference equals ref and returns the rows it changed.
	MarkRefunded(ctx context.Context, ref string) ([]*entity.Payment, error)
}

const paymentColumns = `id, booking_id, payer_id, recipient_id, amount, currency, status, transaction_ref, payment_intent_ref, created_at, updated_at`

type paymentRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewPaymentRepository(db database.Querier, log *zap.Logger) PaymentRepository {
	return &paymentRepository{
		db:  db,
		log: log.With(zap.String("repository", "payment")),
	}
}

func (r *paymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	query := `
		INSERT INTO payments (id, booking_id, payer_id, recipient_id, amount, currency, status, transaction_ref, payment_intent_ref, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Exec(ctx, query,
		payment.ID,
		payment.BookingID,
		payment.PayerID,
		payment.RecipientID,
		payment.Amount,
		payment.Currency,
		string(payment.Status),
		payment.TransactionRef,
		payment.PaymentIntentRef,
		payment.CreatedAt,
		payment.UpdatedAt,
	)

	if err != nil {
		err = classify(err)
		r.log.Error("Failed to create payment",
			zap.Error(err),
			zap.String("booking_id", payment.BookingID.String()),
			zap.String("transaction_ref", payment.TransactionRef),
		)
		return fmt.Errorf("create payment for booking %s: %w", payment.BookingID.String(), err)
	}

	return nil
}

func scanPayment(row pgx.Row) (*entity.Payment, error) {
	var payment entity.Payment
	err := row.Scan(
		&payment.ID,
		&payment.BookingID,
		&payment.PayerID,
		&payment.RecipientID,
		&payment.Amount,
		&payment.Currency,
		&payment.Status,
		&payment.TransactionRef,
		&payment.PaymentIntentRef,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) FindByTransactionRef(ctx context.Context, ref string) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE transaction_ref = $1`

	payment, err := scanPayment(r.db.QueryRow(ctx, query, ref))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find payment by transaction ref",
			zap.Error(err),
			zap.String("transaction_ref", ref),
		)
		return nil, fmt.Errorf("find payment by transaction ref %s: %w", ref, classify(err))
	}

	return payment, nil
}

func (r *paymentRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE booking_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	payment, err := scanPayment(r.db.QueryRow(ctx, query, bookingID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find payment by booking ID",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("find payment by booking ID %s: %w", bookingID.String(), classify(err))
	}

	return payment, nil
}

func (r *paymentRepository) MarkRefunded(ctx context.Context, ref string) ([]*entity.Payment, error) {
	query := `
		UPDATE payments
		SET status = 'refunded', updated_at = NOW()
		WHERE (transaction_ref = $1 OR payment_intent_ref = $1)
		  AND status <> 'refunded'
		RETURNING ` + paymentColumns

	rows, err := r.db.Query(ctx, query, ref)
	if err != nil {
		r.log.Error("Failed to mark payment refunded",
			zap.Error(err),
			zap.String("ref", ref),
		)
		return nil, fmt.Errorf("mark payment %s refunded: %w", ref, classify(err))
	}
	defer rows.Close()

	var payments []*entity.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			r.log.Error("Failed to scan refunded payment row", zap.Error(err))
			return nil, fmt.Errorf("scan refunded payment row: %w", err)
		}
		payments = append(payments, payment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("mark payment %s refunded: %w", ref, classify(err))
	}

	return payments, nil
}
