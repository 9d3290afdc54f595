package dao

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a query resolves to no row. Callers classify
// it with errors.Is instead of matching error strings.
var ErrNotFound = errors.New("record not found")

// IsDuplicateEntry reports whether an error is a MySQL unique-key violation
func IsDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}
