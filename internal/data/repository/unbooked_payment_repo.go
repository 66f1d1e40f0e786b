package repository

import (
	"context"
	"fmt"

	"mentor-booking/internal/data/entity"
	"mentor-booking/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type UnbookedPaymentRepository interface {
	// Record stores the payment once per transaction reference. false means
	// the reference was already recorded.
	Record(ctx context.Context, payment *entity.UnbookedPayment) (bool, error)

	// FindUnresolved lists records still waiting for a refund, oldest first.
	FindUnresolved(ctx context.Context, limit int) ([]*entity.UnbookedPayment, error)
}

const unbookedPaymentColumns = `id, transaction_ref, payment_intent_ref, slot_id, meeting_id, mentee_id, mentor_id, amount, currency, reason, created_at, resolved_at`

type unbookedPaymentRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewUnbookedPaymentRepository(db database.Querier, log *zap.Logger) UnbookedPaymentRepository {
	return &unbookedPaymentRepository{
		db:  db,
		log: log.With(zap.String("repository", "unbooked_payment")),
	}
}

func (r *unbookedPaymentRepository) Record(ctx context.Context, payment *entity.UnbookedPayment) (bool, error) {
	query := `
		INSERT INTO unbooked_payments (` + unbookedPaymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (transaction_ref) DO NOTHING
	`

	result, err := r.db.Exec(ctx, query,
		payment.ID,
		payment.TransactionRef,
		payment.PaymentIntentRef,
		payment.SlotID,
		payment.MeetingID,
		payment.MenteeID,
		payment.MentorID,
		payment.Amount,
		payment.Currency,
		payment.Reason,
		payment.CreatedAt,
		payment.ResolvedAt,
	)
	if err != nil {
		r.log.Error("Failed to record unbooked payment",
			zap.Error(err),
			zap.String("transaction_ref", payment.TransactionRef),
		)
		return false, fmt.Errorf("record unbooked payment %s: %w", payment.TransactionRef, classify(err))
	}

	return result.RowsAffected() == 1, nil
}

func scanUnbookedPayment(row pgx.Row) (*entity.UnbookedPayment, error) {
	var p entity.UnbookedPayment
	err := row.Scan(
		&p.ID,
		&p.TransactionRef,
		&p.PaymentIntentRef,
		&p.SlotID,
		&p.MeetingID,
		&p.MenteeID,
		&p.MentorID,
		&p.Amount,
		&p.Currency,
		&p.Reason,
		&p.CreatedAt,
		&p.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *unbookedPaymentRepository) FindUnresolved(ctx context.Context, limit int) ([]*entity.UnbookedPayment, error) {
	query := `SELECT ` + unbookedPaymentColumns + `
		FROM unbooked_payments
		WHERE resolved_at IS NULL
		ORDER BY created_at
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		r.log.Error("Failed to find unbooked payments", zap.Error(err))
		return nil, fmt.Errorf("find unbooked payments: %w", classify(err))
	}
	defer rows.Close()

	var payments []*entity.UnbookedPayment
	for rows.Next() {
		p, err := scanUnbookedPayment(rows)
		if err != nil {
			r.log.Error("Failed to scan unbooked payment row", zap.Error(err))
			return nil, fmt.Errorf("scan unbooked payment row: %w", err)
		}
		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unbooked payment rows: %w", classify(err))
	}

	return payments, nil
}
