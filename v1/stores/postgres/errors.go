package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/Aleph-Alpha/polystore/v1/store"
)

const undefinedTable = "42P01"

// isUndefinedTable reports whether err is PostgreSQL's "relation does not
// exist".
func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == undefinedTable
}

// translateError maps GORM errors onto the store sentinels.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%v: %w", err, store.ErrNotFound)
	case errors.Is(err, gorm.ErrInvalidData):
		return fmt.Errorf("%v: %w", err, store.ErrUnsupportedValue)
	}
	return err
}
