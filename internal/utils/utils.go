package utils

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the storage layer translates into domain errors.
const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
)

// IsPGUniqueViolation reports whether err carries a Postgres unique constraint violation.
func IsPGUniqueViolation(err error) bool {
	return pgErrorCode(err) == pgUniqueViolation
}

// IsPGCheckViolation reports whether err carries a Postgres check constraint violation.
func IsPGCheckViolation(err error) bool {
	return pgErrorCode(err) == pgCheckViolation
}

func pgErrorCode(err error) string {
	var pge *pgconn.PgError
	if errors.As(err, &pge) {
		return pge.Code
	}
	return ""
}
