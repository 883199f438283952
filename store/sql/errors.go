package sqlstore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/goliatone/go-shortlink/core"
)

const pgUniqueViolation = "23505"

// mapLinkInsertError turns a driver unique-violation into the sentinel the
// orchestrator branches on. The constraint naming contract matters: the
// canonical-url index name contains "canonical", the code index contains
// "code".
func mapLinkInsertError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		if string(pgErr.Code) != pgUniqueViolation {
			return err
		}
		constraint := strings.ToLower(pgErr.Constraint)
		if strings.Contains(constraint, "canonical") {
			return fmt.Errorf("%w: %s", core.ErrDuplicateCanonicalURL, constraint)
		}
		return fmt.Errorf("%w: %s", core.ErrDuplicateCode, constraint)
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		if sqliteErr.ExtendedCode != sqlite3.ErrConstraintUnique {
			return err
		}
		message := strings.ToLower(sqliteErr.Error())
		if strings.Contains(message, "canonical_url") {
			return fmt.Errorf("%w: %s", core.ErrDuplicateCanonicalURL, message)
		}
		return fmt.Errorf("%w: %s", core.ErrDuplicateCode, message)
	}

	return err
}
