// Package dml verifies that the qualified columns of SELECT, UPDATE and DELETE
// statements exist in the live schema.
package dml

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/nsxbet/ddl-validator/pkg/catalog"
	"github.com/nsxbet/ddl-validator/pkg/mysqlparser"
	"github.com/nsxbet/ddl-validator/pkg/statement"
	"github.com/nsxbet/ddl-validator/pkg/types"
)

const excerptLength = 100

// QueryResult holds the findings of one DML statement.
type QueryResult struct {
	QueryType types.StatementKind `json:"query_type" yaml:"query_type"`
	SQL       string              `json:"sql" yaml:"sql"`
	Issues    []types.Issue       `json:"issues" yaml:"issues"`
}

// Tally is the outcome of a DML batch.
type Tally struct {
	TotalQueries      int           `json:"total_queries" yaml:"total_queries"`
	QueriesWithIssues int           `json:"queries_with_issues" yaml:"queries_with_issues"`
	Results           []QueryResult `json:"results" yaml:"results"`
}

// Resolver resolves column references against an introspector.
type Resolver struct {
	catalog   *catalog.Introspector
	extractor Extractor
	logger    *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithExtractor replaces the default RegexExtractor.
func WithExtractor(e Extractor) Option {
	return func(r *Resolver) {
		r.extractor = e
	}
}

// WithLogger sets the logger of the resolver.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a Resolver over introspector.
func NewResolver(introspector *catalog.Introspector, opts ...Option) *Resolver {
	r := &Resolver{
		catalog:   introspector,
		extractor: RegexExtractor{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ValidateBatch splits script and validates every SELECT, UPDATE and DELETE in it.
// Other statements are not counted.
func (r *Resolver) ValidateBatch(ctx context.Context, script string) (*Tally, error) {
	statements, err := mysqlparser.SplitSQL(script)
	if err != nil {
		return nil, errors.Wrap(err, "failed to split DML batch")
	}

	tally := &Tally{}
	for _, stmt := range statements {
		kind := statement.DMLKind(stmt.Stripped)
		if !kind.IsDML() {
			r.logger.Debug("skipping non-DML statement", "line", stmt.BaseLine+1)
			continue
		}
		issues, err := r.ValidateStatement(ctx, kind, stmt.Stripped)
		if err != nil {
			return nil, err
		}
		tally.TotalQueries++
		if len(issues) > 0 {
			tally.QueriesWithIssues++
		}
		tally.Results = append(tally.Results, QueryResult{
			QueryType: kind,
			SQL:       Excerpt(stmt.Text),
			Issues:    issues,
		})
	}
	return tally, nil
}

// ValidateStatement returns one MissingColumn issue per distinct (table, column)
// pair of text that is absent from its resolved table. Unresolvable qualifiers
// are skipped. A table with no known columns, such as a misspelled one, flags
// every column referenced through it. Only connection failures are returned
// as errors.
func (r *Resolver) ValidateStatement(ctx context.Context, kind types.StatementKind, text string) ([]types.Issue, error) {
	aliases := make(map[string]string)
	tables := make(map[string]bool)
	for _, ref := range r.extractor.Tables(text) {
		tables[ref.Table] = true
		if ref.Alias != "" {
			aliases[ref.Alias] = ref.Table
		}
	}

	var issues []types.Issue
	seen := make(map[[2]string]bool)
	for _, ref := range r.extractor.Columns(text) {
		if ref.Column == "*" {
			continue
		}
		table, ok := aliases[ref.Qualifier]
		if !ok {
			if !tables[ref.Qualifier] {
				continue
			}
			table = ref.Qualifier
		}
		key := [2]string{table, ref.Column}
		if seen[key] {
			continue
		}
		seen[key] = true

		columns, err := r.catalog.Columns(ctx, table)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to resolve columns of %s", table)
		}
		if columns.Has(ref.Column) {
			continue
		}
		issues = append(issues, types.Issue{
			Kind:     types.IssueKindMissingColumn,
			Severity: types.Severity_ERROR,
			Message:  fmt.Sprintf("Column `%s` does not exist in table `%s` (%s)", ref.Column, table, kind),
			Table:    table,
			Column:   ref.Column,
			Fragment: Excerpt(text),
			Stage:    types.Stage_SCHEMA,
		})
	}
	return issues, nil
}

// Excerpt truncates text to 100 characters, marking the cut with "...".
func Excerpt(text string) string {
	runes := []rune(text)
	if len(runes) <= excerptLength {
		return text
	}
	return string(runes[:excerptLength]) + "..."
}
