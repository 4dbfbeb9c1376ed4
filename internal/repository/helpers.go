package repository

import (
	"database/sql"
	"fmt"
)

// expectAffected turns an update or delete that matched no row into
// sql.ErrNoRows.
func expectAffected(result sql.Result, entity string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", entity, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", entity, sql.ErrNoRows)
	}
	return nil
}
