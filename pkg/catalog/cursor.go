// Package catalog reads schema metadata from the target database.
package catalog

import (
	"context"
	"strconv"

	"github.com/pkg/errors"
)

// Cursor executes a query and exposes its buffered result rows.
//
// A Cursor is owned by exactly one validation run and is not safe for
// concurrent use.
type Cursor interface {
	// Execute runs query with positional args and buffers its result set.
	Execute(ctx context.Context, query string, args ...any) error
	// FetchOne returns the next buffered row, or nil when the result set is exhausted.
	FetchOne() ([]any, error)
	// FetchAll returns every remaining buffered row.
	FetchAll() ([][]any, error)
}

// ErrConnection marks errors caused by a lost or unusable database connection.
// Cursor implementations wrap such errors so callers can test them with errors.Is.
var ErrConnection = errors.New("database connection failure")

// Metadata queries. Table names are compared case-insensitively.
const (
	QueryServerInfo = "SELECT VERSION(), DATABASE()"

	QueryTableExists = "SELECT COUNT(*) FROM information_schema.TABLES " +
		"WHERE TABLE_SCHEMA = DATABASE() AND LOWER(TABLE_NAME) = LOWER(?)"

	QueryColumns = "SELECT COLUMN_NAME FROM information_schema.COLUMNS " +
		"WHERE TABLE_SCHEMA = DATABASE() AND LOWER(TABLE_NAME) = LOWER(?)"

	QueryIndexExists = "SELECT COUNT(*) FROM information_schema.STATISTICS " +
		"WHERE TABLE_SCHEMA = DATABASE() AND LOWER(TABLE_NAME) = LOWER(?) AND LOWER(INDEX_NAME) = LOWER(?)"

	QueryReferencingTables = "SELECT DISTINCT TABLE_NAME FROM information_schema.KEY_COLUMN_USAGE " +
		"WHERE TABLE_SCHEMA = DATABASE() AND LOWER(REFERENCED_TABLE_NAME) = LOWER(?) AND LOWER(TABLE_NAME) <> LOWER(?)"

	// QueryRowCountPrefix is followed by a back-quoted table name.
	QueryRowCountPrefix = "SELECT COUNT(*) AS row_count FROM "
)

func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return ""
	}
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case []byte:
		return strconv.ParseInt(string(n), 10, 64)
	case string:
		return strconv.ParseInt(n, 10, 64)
	default:
		return 0, errors.Errorf("unexpected count value of type %T", v)
	}
}
