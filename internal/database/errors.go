package database

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonMunkholm/estates/internal/core"
)

// integrityViolationClass is SQLSTATE class 23 (integrity constraint violation).
const integrityViolationClass = "23"

// translateError turns constraint violations into *core.IntegrityError and
// leaves every other error untouched.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) >= 2 && pgErr.Code[:2] == integrityViolationClass {
		return core.NewIntegrityError(err, pgErr.ConstraintName)
	}
	return err
}
