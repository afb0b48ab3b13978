package pgstore

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonMunkholm/transitdir/internal/core"
)

// PostgreSQL SQLSTATE codes the store translates.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeNotNullViolation    = "23502"
	codeStringTooLong       = "22001"
)

// mapError translates driver errors into the core sentinels. Errors it
// does not recognise are returned wrapped with the entity they concern.
func mapError(err error, kind core.Kind, id int64) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return core.NotFound(kind, id)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%w: duplicate key: %s %d already exists: %w", core.ErrConstraint, kind.Singular(), id, pgErr)
		case codeForeignKeyViolation:
			return fmt.Errorf("%w: %s %d references a missing entity: %w", core.ErrConstraint, kind.Singular(), id, pgErr)
		case codeCheckViolation, codeNotNullViolation, codeStringTooLong:
			return fmt.Errorf("%w: %s %d: %w", core.ErrConstraint, kind.Singular(), id, pgErr)
		}
	}
	return fmt.Errorf("%s %d: %w", kind.Singular(), id, err)
}
