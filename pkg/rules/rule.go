// Package rules holds the statement level checks of the validation pipeline:
// structural syntax checks, naming standards, and the performance and safety
// rule tables.
package rules

import (
	"github.com/nsxbet/ddl-validator/pkg/types"
)

// Limits are the configurable thresholds of the performance rules.
type Limits struct {
	MaxLobColumns   int
	MaxIndexColumns int
}

// DefaultLimits returns the stock thresholds.
func DefaultLimits() Limits {
	return Limits{MaxLobColumns: 3, MaxIndexColumns: 5}
}

// Rule is a pure check over the text of one statement.
type Rule struct {
	Name string
	// Kinds lists the statement kinds the rule applies to.
	Kinds []types.StatementKind
	Check func(text string, limits Limits) []types.Issue
}

func (r Rule) appliesTo(kind types.StatementKind) bool {
	for _, k := range r.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Registry is an ordered rule table for one pipeline stage.
type Registry struct {
	stage types.Stage
	rules []Rule
}

// NewRegistry creates a registry whose issues are attributed to stage.
func NewRegistry(stage types.Stage, rules ...Rule) *Registry {
	return &Registry{stage: stage, rules: rules}
}

// Evaluate runs every rule that applies to kind, in registration order.
func (r *Registry) Evaluate(kind types.StatementKind, text string, limits Limits) []types.Issue {
	var issues []types.Issue
	for _, rule := range r.rules {
		if !rule.appliesTo(kind) {
			continue
		}
		for _, issue := range rule.Check(text, limits) {
			issue.Stage = r.stage
			issues = append(issues, issue)
		}
	}
	return issues
}
