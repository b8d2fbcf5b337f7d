package rules

import (
	"fmt"
	"regexp"

	"github.com/nsxbet/ddl-validator/pkg/statement"
	"github.com/nsxbet/ddl-validator/pkg/types"
)

var (
	lobColumnRe    = regexp.MustCompile(`(?i)\bTEXT\b|\bBLOB\b`)
	foreignKeyRe   = regexp.MustCompile(`(?i)\bFOREIGN\s+KEY\b`)
	indexKeywordRe = regexp.MustCompile(`(?i)\bINDEX\b`)
	addColumnRe    = regexp.MustCompile(`(?i)\bADD\s+COLUMN\b`)
	modifyColumnRe = regexp.MustCompile(`(?i)\bMODIFY\s+COLUMN\b`)
)

// Performance is the rule table of the PERFORMANCE stage.
var Performance = NewRegistry(types.Stage_PERFORMANCE,
	Rule{
		Name:  "create-table.lob-columns",
		Kinds: []types.StatementKind{types.StatementKind_CREATE_TABLE},
		Check: func(text string, limits Limits) []types.Issue {
			n := len(lobColumnRe.FindAllString(text, -1))
			if n <= limits.MaxLobColumns {
				return nil
			}
			return []types.Issue{{
				Kind:     types.IssueKindExcessiveLobColumns,
				Severity: types.Severity_WARNING,
				Message:  fmt.Sprintf("Table declares %d TEXT/BLOB columns, more than %d slows down reads and sorts", n, limits.MaxLobColumns),
			}}
		},
	},
	Rule{
		Name:  "create-table.foreign-key-index",
		Kinds: []types.StatementKind{types.StatementKind_CREATE_TABLE},
		Check: func(text string, _ Limits) []types.Issue {
			if !foreignKeyRe.MatchString(text) || indexKeywordRe.MatchString(text) {
				return nil
			}
			return []types.Issue{{
				Kind:     types.IssueKindMissingIndexOnForeignKey,
				Severity: types.Severity_WARNING,
				Message:  "Foreign key declared without an explicit INDEX on its columns",
			}}
		},
	},
	Rule{
		Name:  "alter-table.add-column",
		Kinds: []types.StatementKind{types.StatementKind_ALTER_TABLE},
		Check: func(text string, _ Limits) []types.Issue {
			if !addColumnRe.MatchString(text) {
				return nil
			}
			return []types.Issue{{
				Kind:     types.IssueKindColumnRewriteCost,
				Severity: types.Severity_WARNING,
				Message:  "ADD COLUMN may rebuild the table; schedule it for a low traffic window on large tables",
			}}
		},
	},
	Rule{
		Name:  "alter-table.modify-column",
		Kinds: []types.StatementKind{types.StatementKind_ALTER_TABLE},
		Check: func(text string, _ Limits) []types.Issue {
			if !modifyColumnRe.MatchString(text) {
				return nil
			}
			return []types.Issue{{
				Kind:     types.IssueKindColumnRewriteCost,
				Severity: types.Severity_WARNING,
				Message:  "MODIFY COLUMN rewrites every row and locks the table while converting data",
			}}
		},
	},
	Rule{
		Name:  "index.column-count",
		Kinds: []types.StatementKind{types.StatementKind_CREATE_INDEX, types.StatementKind_CREATE_UNIQUE_INDEX},
		Check: func(text string, limits Limits) []types.Issue {
			list, ok := statement.IndexColumnList(text)
			if !ok {
				return nil
			}
			n := statement.CountColumnListItems(list)
			if n <= limits.MaxIndexColumns {
				return nil
			}
			return []types.Issue{{
				Kind:     types.IssueKindWideCompositeIndex,
				Severity: types.Severity_WARNING,
				Message:  fmt.Sprintf("Composite index has %d columns, more than %d", n, limits.MaxIndexColumns),
			}}
		},
	},
)

// CheckPerformance evaluates the performance rules for one statement.
func CheckPerformance(kind types.StatementKind, text string, limits Limits) []types.Issue {
	return Performance.Evaluate(kind, text, limits)
}
