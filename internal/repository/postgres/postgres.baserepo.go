package postgres

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/itsatony/w4b_v3/server/sensorhub/internal/database"
	"github.com/itsatony/w4b_v3/server/sensorhub/internal/errors"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// PostgreSQL SQLSTATE codes for constraint violations.
const (
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

type PostgresBaseRepo struct {
	db database.DB
}

func (r *PostgresBaseRepo) BeginTx(ctx context.Context) (database.Transaction, error) {
	tx, err := r.db.GetDB().BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to begin transaction", err)
	}
	return tx, nil
}

func (r *PostgresBaseRepo) rebind(query string) string {
	return r.db.GetDB().Rebind(query)
}

// orderClause turns a "-field" style ordering parameter into an ORDER BY clause.
// Unknown fields fall back to def.
func orderClause(ordering string, allowed map[string]string, def string) string {
	ordering = strings.TrimSpace(ordering)
	if ordering == "" {
		ordering = def
	}
	dir := "ASC"
	field := ordering
	if strings.HasPrefix(field, "-") {
		dir = "DESC"
		field = field[1:]
	}
	column, ok := allowed[field]
	if !ok {
		return orderClause(def, allowed, def)
	}
	if column == "id" {
		return " ORDER BY id " + dir
	}
	return " ORDER BY " + column + " " + dir + ", id " + dir
}

// escapeLike escapes the LIKE wildcards in s so it matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func isForeignKeyViolation(err error) bool {
	return constraintViolation(err, pgForeignKeyViolation, "FOREIGN KEY")
}

func isCheckViolation(err error) bool {
	return constraintViolation(err, pgCheckViolation, "CHECK")
}

func constraintViolation(err error, sqlState, sqliteKind string) bool {
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		return string(pqErr.Code) == sqlState
	}
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		return pgErr.Code == sqlState
	}
	var liteErr *sqlite.Error
	if stderrors.As(err, &liteErr) {
		return liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(liteErr.Error(), sqliteKind)
	}
	return false
}

// writeError maps constraint violations to validation errors and everything else to database errors.
func writeError(msg string, err error) *errors.APIError {
	switch {
	case isForeignKeyViolation(err):
		return errors.NewFieldError("sensor", "sensor does not exist")
	case isCheckViolation(err):
		return errors.NewValidationError("value out of range", err)
	default:
		return errors.NewDatabaseError(msg, err)
	}
}
