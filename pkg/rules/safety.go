package rules

import (
	"regexp"

	"github.com/nsxbet/ddl-validator/pkg/types"
)

var (
	dropColumnRe = regexp.MustCompile(`(?i)\bDROP\s+COLUMN\b`)
	cascadeRe    = regexp.MustCompile(`(?i)\bCASCADE\b`)
)

// Safety is the rule table of the SAFETY stage.
var Safety = NewRegistry(types.Stage_SAFETY,
	Rule{
		Name:  "alter-table.drop-column",
		Kinds: []types.StatementKind{types.StatementKind_ALTER_TABLE},
		Check: func(text string, _ Limits) []types.Issue {
			if !dropColumnRe.MatchString(text) {
				return nil
			}
			return []types.Issue{{
				Kind:     types.IssueKindDataLossRisk,
				Severity: types.Severity_ERROR,
				Message:  "DROP COLUMN permanently deletes the column data; back it up first",
			}}
		},
	},
	Rule{
		Name:  "drop.cascade",
		Kinds: []types.StatementKind{types.StatementKind_DROP, types.StatementKind_DROP_INDEX},
		Check: func(text string, _ Limits) []types.Issue {
			if cascadeRe.MatchString(text) {
				return nil
			}
			return []types.Issue{{
				Kind:     types.IssueKindCascadeMissing,
				Severity: types.Severity_WARNING,
				Message:  "DROP without CASCADE; dependent objects are not handled",
			}}
		},
	},
)

// CheckSafety evaluates the safety rules for one statement.
func CheckSafety(kind types.StatementKind, text string) []types.Issue {
	return Safety.Evaluate(kind, text, Limits{})
}
