package postgres

import "github.com/jackc/pgx/v5/pgconn"

func newUniqueViolation() error {
	return &pgconn.PgError{Code: uniqueViolationCode, ConstraintName: "checklists_pkey"}
}
