package catalog

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

var plainIdentifier = regexp.MustCompile(`^[A-Za-z0-9_$]+$`)

// ColumnSet is a set of lower-cased column names.
type ColumnSet map[string]struct{}

// Has reports whether the set contains column, ignoring case.
func (s ColumnSet) Has(column string) bool {
	_, ok := s[strings.ToLower(column)]
	return ok
}

// TableState is what the introspector has learned about one table during a run.
type TableState struct {
	Name          string
	Columns       ColumnSet
	columnsLoaded bool
	Indexes       map[string]bool
	RowCount      int64
	rowCountKnown bool
}

// Introspector answers schema questions for one validation run.
//
// Column sets and row counts are fetched at most once per table and run.
// Existence probes always hit the database. Query failures other than
// connection failures degrade to "not found" and are logged. Connection
// failures, errors wrapping ErrConnection or matched by the configured
// classifier, are returned.
type Introspector struct {
	cursor            Cursor
	logger            *slog.Logger
	tables            map[string]*TableState
	isConnectionError func(error) bool
}

// Option configures an Introspector.
type Option func(*Introspector)

// WithConnectionErrorClassifier makes errors matched by fn propagate like
// ErrConnection instead of degrading to "not found".
func WithConnectionErrorClassifier(fn func(error) bool) Option {
	return func(in *Introspector) {
		in.isConnectionError = fn
	}
}

// NewIntrospector creates an introspector over cursor.
func NewIntrospector(cursor Cursor, logger *slog.Logger, opts ...Option) *Introspector {
	if logger == nil {
		logger = slog.Default()
	}
	in := &Introspector{
		cursor: cursor,
		logger: logger,
		tables: make(map[string]*TableState),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// ServerInfo returns the server version and the current database.
func (in *Introspector) ServerInfo(ctx context.Context) (version string, database string, err error) {
	if err := in.cursor.Execute(ctx, QueryServerInfo); err != nil {
		return "", "", errors.Wrap(err, "failed to query server info")
	}
	row, err := in.cursor.FetchOne()
	if err != nil {
		return "", "", errors.Wrap(err, "failed to fetch server info")
	}
	if len(row) < 2 {
		return "", "", errors.New("server info query returned no row")
	}
	return toString(row[0]), toString(row[1]), nil
}

// Columns returns the lower-cased column names of table. A failed lookup is
// cached as an empty set and not retried within the run.
func (in *Introspector) Columns(ctx context.Context, table string) (ColumnSet, error) {
	state := in.state(table)
	if state.columnsLoaded {
		return state.Columns, nil
	}
	state.columnsLoaded = true
	state.Columns = ColumnSet{}

	rows, err := in.query(ctx, QueryColumns, table)
	if err != nil {
		return state.Columns, in.degrade(err, "column lookup failed", "table", table)
	}
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		if name := toString(row[0]); name != "" {
			state.Columns[strings.ToLower(name)] = struct{}{}
		}
	}
	in.logger.Debug("loaded columns", "table", table, "count", len(state.Columns))
	return state.Columns, nil
}

// TableExists probes whether table exists in the current database.
func (in *Introspector) TableExists(ctx context.Context, table string) (bool, error) {
	n, err := in.count(ctx, QueryTableExists, table)
	if err != nil {
		return false, in.degrade(err, "table lookup failed", "table", table)
	}
	return n > 0, nil
}

// IndexExists probes whether index exists on table.
func (in *Introspector) IndexExists(ctx context.Context, table, index string) (bool, error) {
	n, err := in.count(ctx, QueryIndexExists, table, index)
	if err != nil {
		return false, in.degrade(err, "index lookup failed", "table", table, "index", index)
	}
	state := in.state(table)
	if state.Indexes == nil {
		state.Indexes = make(map[string]bool)
	}
	state.Indexes[strings.ToLower(index)] = n > 0
	return n > 0, nil
}

// RowCount returns the number of rows of table, fetched once per run.
func (in *Introspector) RowCount(ctx context.Context, table string) (int64, error) {
	state := in.state(table)
	if state.rowCountKnown {
		return state.RowCount, nil
	}
	if !plainIdentifier.MatchString(table) {
		in.logger.Warn("refusing to count rows of unusual table name", "table", table)
		return 0, nil
	}
	n, err := in.count(ctx, QueryRowCountPrefix+"`"+table+"`")
	if err != nil {
		return 0, in.degrade(err, "row count failed", "table", table)
	}
	state.RowCount = n
	state.rowCountKnown = true
	return n, nil
}

// ReferencingTables returns the other tables holding a foreign key to table.
func (in *Introspector) ReferencingTables(ctx context.Context, table string) ([]string, error) {
	rows, err := in.query(ctx, QueryReferencingTables, table, table)
	if err != nil {
		return nil, in.degrade(err, "foreign key lookup failed", "table", table)
	}
	var result []string
	for _, row := range rows {
		if len(row) > 0 {
			if name := toString(row[0]); name != "" {
				result = append(result, name)
			}
		}
	}
	return result, nil
}

// Table returns the cached state of table, or nil if the run never looked at it.
func (in *Introspector) Table(table string) *TableState {
	return in.tables[strings.ToLower(table)]
}

func (in *Introspector) state(table string) *TableState {
	key := strings.ToLower(table)
	state, ok := in.tables[key]
	if !ok {
		state = &TableState{Name: table}
		in.tables[key] = state
	}
	return state
}

func (in *Introspector) query(ctx context.Context, query string, args ...any) ([][]any, error) {
	if err := in.cursor.Execute(ctx, query, args...); err != nil {
		return nil, err
	}
	return in.cursor.FetchAll()
}

func (in *Introspector) count(ctx context.Context, query string, args ...any) (int64, error) {
	if err := in.cursor.Execute(ctx, query, args...); err != nil {
		return 0, err
	}
	row, err := in.cursor.FetchOne()
	if err != nil {
		return 0, err
	}
	if len(row) == 0 {
		return 0, nil
	}
	return toInt64(row[0])
}

func (in *Introspector) degrade(err error, msg string, args ...any) error {
	if errors.Is(err, ErrConnection) || (in.isConnectionError != nil && in.isConnectionError(err)) {
		return err
	}
	in.logger.Warn(msg, append(args, "error", err)...)
	return nil
}
