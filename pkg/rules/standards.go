package rules

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/nsxbet/ddl-validator/pkg/advisor"
	"github.com/nsxbet/ddl-validator/pkg/config"
	"github.com/nsxbet/ddl-validator/pkg/statement"
	"github.com/nsxbet/ddl-validator/pkg/types"
)

// Template tokens usable in naming formats.
const (
	TableNameTemplateToken  = "{{table}}"
	ColumnListTemplateToken = "{{column_list}}"
)

// StandardsChecker checks naming standards and, when a knowledge search and an
// advisory client are configured, asks the advisory about the retrieved standards.
type StandardsChecker struct {
	rules     []*config.StandardRule
	knowledge advisor.KnowledgeSearch
	advisory  advisor.Client
	logger    *slog.Logger
}

// NewStandardsChecker creates a checker. knowledge and advisory may be nil.
func NewStandardsChecker(rules []*config.StandardRule, knowledge advisor.KnowledgeSearch, advisory advisor.Client, logger *slog.Logger) *StandardsChecker {
	if logger == nil {
		logger = slog.Default()
	}
	return &StandardsChecker{rules: rules, knowledge: knowledge, advisory: advisory, logger: logger}
}

// StandardsQuery is the knowledge search query for a statement kind.
func StandardsQuery(kind types.StatementKind) string {
	return fmt.Sprintf("DDL %s schema standards naming rules", kind)
}

// Check returns the standards violations of text. Knowledge search and
// advisory failures are returned as errors.
func (c *StandardsChecker) Check(ctx context.Context, kind types.StatementKind, text string) ([]types.Issue, error) {
	issues := c.checkNaming(kind, text)

	if c.knowledge == nil || c.advisory == nil {
		return issues, nil
	}
	docs, err := c.knowledge.Query(ctx, StandardsQuery(kind))
	if err != nil {
		return issues, errors.Wrap(err, "knowledge search failed")
	}
	if len(docs) == 0 {
		c.logger.Debug("no standards documents found", "kind", kind)
		return issues, nil
	}
	answer, err := c.advisory.Ask(ctx, advisor.StandardsPrompt(text, docs))
	if err != nil {
		return issues, errors.Wrap(err, "advisory standards check failed")
	}
	for _, line := range advisor.Violations(answer) {
		issues = append(issues, types.Issue{
			Kind:     types.IssueKindStandardsViolation,
			Severity: types.Severity_WARNING,
			Message:  line,
			Stage:    types.Stage_STANDARDS,
			Advisory: true,
		})
	}
	return issues, nil
}

func (c *StandardsChecker) checkNaming(kind types.StatementKind, text string) []types.Issue {
	var issues []types.Issue
	for _, rule := range c.rules {
		var name, table, what string
		tokens := map[string]string{}
		switch {
		case rule.Type == config.StandardTableNaming && kind == types.StatementKind_CREATE_TABLE:
			ct, ok := statement.ParseCreateTable(text)
			if !ok {
				continue
			}
			name, table, what = ct.Table, ct.Table, "Table"
		case rule.Type == config.StandardIndexNaming && kind == types.StatementKind_CREATE_INDEX,
			rule.Type == config.StandardUniqueIndexNaming && kind == types.StatementKind_CREATE_UNIQUE_INDEX:
			ci, ok := statement.ParseCreateIndex(text)
			if !ok {
				continue
			}
			name, table, what = ci.Index, ci.Table, "Index"
			tokens[ColumnListTemplateToken] = strings.Join(ci.Columns, "_")
		default:
			continue
		}
		tokens[TableNameTemplateToken] = table

		if rule.Format != "" {
			pattern, err := templateRegexp(rule.Format, tokens)
			if err != nil {
				c.logger.Warn("invalid naming format", "type", rule.Type, "format", rule.Format, "error", err)
			} else if !pattern.MatchString(name) {
				issues = append(issues, types.Issue{
					Kind:     types.IssueKindStandardsViolation,
					Severity: rule.Level,
					Message:  fmt.Sprintf("%s `%s` mismatches the naming convention, naming format should be %q", what, name, pattern.String()),
					Table:    table,
					Stage:    types.Stage_STANDARDS,
				})
			}
		}
		if rule.MaxLength > 0 && len(name) > rule.MaxLength {
			issues = append(issues, types.Issue{
				Kind:     types.IssueKindStandardsViolation,
				Severity: rule.Level,
				Message:  fmt.Sprintf("%s `%s` mismatches the naming convention, its length should be within %d characters", what, name, rule.MaxLength),
				Table:    table,
				Stage:    types.Stage_STANDARDS,
			})
		}
	}
	return issues
}

func templateRegexp(format string, tokens map[string]string) (*regexp.Regexp, error) {
	pattern := format
	for token, value := range tokens {
		pattern = strings.ReplaceAll(pattern, token, regexp.QuoteMeta(value))
	}
	return regexp.Compile(pattern)
}
