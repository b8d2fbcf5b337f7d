// Package catalogtest provides an in-memory catalog.Cursor for tests.
package catalogtest

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/nsxbet/ddl-validator/pkg/catalog"
)

type table struct {
	name       string
	columns    []string
	indexes    []string
	rows       int64
	referredBy []string
}

// Schema is a fake database answering the catalog metadata queries.
type Schema struct {
	Version  string
	Database string

	tables   map[string]*table
	failures map[string]error
	executed []string
	result   [][]any
}

var _ catalog.Cursor = (*Schema)(nil)

// New returns an empty schema named "app".
func New() *Schema {
	return &Schema{
		Version:  "8.0.36",
		Database: "app",
		tables:   make(map[string]*table),
		failures: make(map[string]error),
	}
}

// AddTable adds a table with columns.
func (s *Schema) AddTable(name string, columns ...string) *Schema {
	s.tables[strings.ToLower(name)] = &table{name: name, columns: columns}
	return s
}

// AddIndex adds an index to an existing table.
func (s *Schema) AddIndex(tableName, index string) *Schema {
	if t, ok := s.tables[strings.ToLower(tableName)]; ok {
		t.indexes = append(t.indexes, index)
	}
	return s
}

// SetRowCount sets the number of rows of an existing table.
func (s *Schema) SetRowCount(tableName string, rows int64) *Schema {
	if t, ok := s.tables[strings.ToLower(tableName)]; ok {
		t.rows = rows
	}
	return s
}

// AddForeignKey records that from holds a foreign key to to.
func (s *Schema) AddForeignKey(from, to string) *Schema {
	if t, ok := s.tables[strings.ToLower(to)]; ok {
		t.referredBy = append(t.referredBy, from)
	}
	return s
}

// FailWith makes every execution of query return err. An empty query fails everything.
func (s *Schema) FailWith(query string, err error) *Schema {
	s.failures[query] = err
	return s
}

// Executed returns how many times a query starting with prefix was executed.
func (s *Schema) Executed(prefix string) int {
	n := 0
	for _, q := range s.executed {
		if strings.HasPrefix(q, prefix) {
			n++
		}
	}
	return n
}

// Execute implements catalog.Cursor.
func (s *Schema) Execute(_ context.Context, query string, args ...any) error {
	s.executed = append(s.executed, query)
	s.result = nil
	if err, ok := s.failures[""]; ok {
		return err
	}
	for prefix, err := range s.failures {
		if prefix != "" && strings.HasPrefix(query, prefix) {
			return err
		}
	}

	arg := func(i int) string {
		if i >= len(args) {
			return ""
		}
		v, _ := args[i].(string)
		return strings.ToLower(v)
	}

	switch {
	case query == catalog.QueryServerInfo:
		s.result = [][]any{{[]byte(s.Version), []byte(s.Database)}}
	case query == catalog.QueryTableExists:
		s.result = [][]any{{boolCount(s.tables[arg(0)] != nil)}}
	case query == catalog.QueryColumns:
		if t, ok := s.tables[arg(0)]; ok {
			for _, c := range t.columns {
				s.result = append(s.result, []any{[]byte(c)})
			}
		}
	case query == catalog.QueryIndexExists:
		found := false
		if t, ok := s.tables[arg(0)]; ok {
			for _, idx := range t.indexes {
				found = found || strings.EqualFold(idx, arg(1))
			}
		}
		s.result = [][]any{{boolCount(found)}}
	case query == catalog.QueryReferencingTables:
		if t, ok := s.tables[arg(0)]; ok {
			for _, from := range t.referredBy {
				s.result = append(s.result, []any{[]byte(from)})
			}
		}
	case strings.HasPrefix(query, catalog.QueryRowCountPrefix):
		name := strings.Trim(strings.TrimPrefix(query, catalog.QueryRowCountPrefix), "`")
		t, ok := s.tables[strings.ToLower(name)]
		if !ok {
			return errors.Errorf("Error 1146 (42S02): Table 'app.%s' doesn't exist", name)
		}
		s.result = [][]any{{t.rows}}
	default:
		return errors.Errorf("catalogtest: unsupported query %q", query)
	}
	return nil
}

// FetchOne implements catalog.Cursor.
func (s *Schema) FetchOne() ([]any, error) {
	if len(s.result) == 0 {
		return nil, nil
	}
	row := s.result[0]
	s.result = s.result[1:]
	return row, nil
}

// FetchAll implements catalog.Cursor.
func (s *Schema) FetchAll() ([][]any, error) {
	rows := s.result
	s.result = nil
	return rows, nil
}

func boolCount(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
