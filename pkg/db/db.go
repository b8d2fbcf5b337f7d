// Package db connects to the target MySQL database and adapts a single
// connection to catalog.Cursor.
package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"

	"github.com/nsxbet/ddl-validator/pkg/catalog"
)

// MySQL server error numbers that mean the session cannot be used at all.
var connectionErrorNumbers = map[uint16]struct{}{
	1040: {}, // too many connections
	1044: {}, // access denied for user to database
	1045: {}, // access denied for user
	1049: {}, // unknown database
	1053: {}, // server shutdown in progress
	1129: {}, // host blocked
	1130: {}, // host not allowed
}

// IsConnectionError reports whether err means the connection is lost or unusable.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, catalog.ErrConnection) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, mysql.ErrInvalidConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, io.EOF) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		_, ok := connectionErrorNumbers[mysqlErr.Number]
		return ok
	}
	return false
}

// Open opens a connection pool for dsn and pings it within timeout.
func Open(ctx context.Context, dsn string, timeout time.Duration) (*sql.DB, error) {
	pool, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	pool.SetMaxOpenConns(2)
	pool.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := pool.PingContext(pingCtx); err != nil {
		CloseWithErr(pool, "database")
		return nil, classify(errors.Wrap(err, "failed to ping database"))
	}
	return pool, nil
}

// Cursor runs queries on one dedicated connection and buffers their rows.
type Cursor struct {
	conn         *sql.Conn
	queryTimeout time.Duration
	rows         [][]any
}

var _ catalog.Cursor = (*Cursor)(nil)

// NewCursor takes a dedicated connection from pool. Close returns it.
func NewCursor(ctx context.Context, pool *sql.DB, queryTimeout time.Duration) (*Cursor, error) {
	conn, err := pool.Conn(ctx)
	if err != nil {
		return nil, classify(errors.Wrap(err, "failed to acquire connection"))
	}
	return &Cursor{conn: conn, queryTimeout: queryTimeout}, nil
}

// Execute implements catalog.Cursor.
func (c *Cursor) Execute(ctx context.Context, query string, args ...any) error {
	c.rows = nil
	if c.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.queryTimeout)
		defer cancel()
	}

	rows, err := c.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return classify(errors.Wrap(err, "query failed"))
	}
	defer CloseWithErr(rows, "rows")

	columns, err := rows.Columns()
	if err != nil {
		return classify(errors.Wrap(err, "failed to read columns"))
	}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return classify(errors.Wrap(err, "failed to scan row"))
		}
		c.rows = append(c.rows, values)
	}
	if err := rows.Err(); err != nil {
		return classify(errors.Wrap(err, "failed to iterate rows"))
	}
	return nil
}

// FetchOne implements catalog.Cursor.
func (c *Cursor) FetchOne() ([]any, error) {
	if len(c.rows) == 0 {
		return nil, nil
	}
	row := c.rows[0]
	c.rows = c.rows[1:]
	return row, nil
}

// FetchAll implements catalog.Cursor.
func (c *Cursor) FetchAll() ([][]any, error) {
	rows := c.rows
	c.rows = nil
	return rows, nil
}

// Close returns the connection to its pool.
func (c *Cursor) Close() error {
	return c.conn.Close()
}

func classify(err error) error {
	if IsConnectionError(err) && !errors.Is(err, catalog.ErrConnection) {
		return errors.Wrapf(catalog.ErrConnection, "%v", err)
	}
	return err
}

// CloseWithErr closes closer and logs a failure under name.
func CloseWithErr(closer io.Closer, name string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		slog.Warn("close failed", "name", name, "error", err)
	}
}
