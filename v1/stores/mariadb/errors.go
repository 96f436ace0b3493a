package mariadb

import (
	"errors"
	"fmt"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"github.com/Aleph-Alpha/polystore/v1/store"
)

const noSuchTable = 1146

// isNoSuchTable reports whether err is MariaDB's "table doesn't exist".
func isNoSuchTable(err error) bool {
	var myErr *mysqldriver.MySQLError
	return errors.As(err, &myErr) && myErr.Number == noSuchTable
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
