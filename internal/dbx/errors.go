package dbx

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// invalidTextRepresentation is what Postgres reports when a parameter
// cannot be cast to the column type, e.g. "nope" compared to a uuid.
const invalidTextRepresentation = "22P02"

// IsNoRows reports whether err means the looked-up row cannot exist: either
// nothing matched, or the key was not a valid value for its column.
func IsNoRows(err error) bool {
	if errors.Is(err, sql.ErrNoRows) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == invalidTextRepresentation
}
