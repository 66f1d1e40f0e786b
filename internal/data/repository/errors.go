package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrUniqueViolation wraps SQLSTATE 23505; the constraint name stays in the chain.
	ErrUniqueViolation = errors.New("unique constraint violation")

	// ErrTransient marks failures a caller may safely retry: serialization
	// failures, deadlocks, lock timeouts and connection errors raised before
	// the statement reached the server.
	ErrTransient = errors.New("transient datastore error")
)

const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

// classify tags a pgx error with one of the sentinels above while keeping the
// original error in the chain.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w (%s): %w", ErrUniqueViolation, pgErr.ConstraintName, err)
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return fmt.Errorf("%w: %w", ErrTransient, err)
		}
		return err
	}

	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTransient, err)
	}

	return err
}

// UniqueConstraint returns the violated constraint name, or "" if err is not
// a unique violation.
func UniqueConstraint(err error) string {
	if !errors.Is(err, ErrUniqueViolation) {
		return ""
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}
