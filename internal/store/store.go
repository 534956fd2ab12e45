package store

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
)

const schemaName = "comproposito"

func psql() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

// isUniqueViolation reports whether err is a postgres unique constraint failure.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// excludedSetClause builds the SET list of an ON CONFLICT DO UPDATE,
// e.g. "name = EXCLUDED.name, sort_order = EXCLUDED.sort_order".
// id and created_at are never overwritten.
func excludedSetClause(fields map[string]any) string {
	columns := make([]string, 0, len(fields))
	for field := range fields {
		if field == "id" || field == "created_at" {
			continue
		}
		columns = append(columns, field)
	}
	sort.Strings(columns)

	set := make([]string, len(columns))
	for i, c := range columns {
		set[i] = fmt.Sprintf("%s = EXCLUDED.%s", c, c)
	}

	return strings.Join(set, ", ")
}

func joinColumns(columns []string) string {
	return strings.Join(columns, ", ")
}
