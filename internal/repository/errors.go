package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a lookup matches no record.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateTicketNumber is returned when a ticket number is already taken.
	ErrDuplicateTicketNumber = errors.New("duplicate ticket number")
	// ErrDuplicateUser is returned when an email or identity number is already registered.
	ErrDuplicateUser = errors.New("duplicate user")
	// ErrStaleStatus is returned when a guarded update finds the status already changed.
	ErrStaleStatus = errors.New("ticket status changed concurrently")
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func mapNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
