package library

import (
	"database/sql"
	"errors"
	"fmt"
)

// nullable stores empty strings as NULL so optional unique columns
// (isbn) do not collide on "".
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func expectOneRow(res sql.Result, kind string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
	}
	return nil
}

func isNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
