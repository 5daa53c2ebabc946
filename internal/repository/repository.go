// internal/repository/repository.go
package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ============================================
// Repository Errors
// ============================================

var (
	// ErrDuplicate is returned when a uniqueness constraint rejects a write.
	ErrDuplicate = errors.New("duplicate row")
	// ErrNotPending is returned when a status transition finds the row already resolved.
	ErrNotPending = errors.New("row is not pending")
	// ErrNoRows is returned by mutations that matched nothing.
	ErrNoRows = errors.New("no rows affected")
)

const (
	pgUniqueViolation           = "23505"
	pgInvalidTextRepresentation = "22P02"
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// isInvalidText reports whether Postgres rejected a parameter it could not
// parse, such as a malformed uuid. Such an id matches no row.
func isInvalidText(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgInvalidTextRepresentation
}

// isNoMatch reports whether a single-row statement matched nothing.
func isNoMatch(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || isInvalidText(err)
}

// listErr drops the error of a list query whose parameters could not be parsed;
// the result is simply empty.
func listErr(err error) error {
	if isInvalidText(err) {
		return nil
	}
	return err
}
