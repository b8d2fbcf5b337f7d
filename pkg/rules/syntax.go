package rules

import (
	"context"
	"log/slog"
	"strings"

	"github.com/nsxbet/ddl-validator/pkg/advisor"
	"github.com/nsxbet/ddl-validator/pkg/mysqlparser"
	"github.com/nsxbet/ddl-validator/pkg/statement"
	"github.com/nsxbet/ddl-validator/pkg/types"
)

// SyntaxChecker runs the structural checks and, when configured, the grammar
// and advisory checks.
type SyntaxChecker struct {
	advisory    advisor.Client
	parserCheck bool
	logger      *slog.Logger
}

// SyntaxResult is the outcome of the SYNTAX stage.
type SyntaxResult struct {
	Issues []types.Issue
	Valid  bool
}

// NewSyntaxChecker creates a checker. advisory may be nil.
func NewSyntaxChecker(advisory advisor.Client, parserCheck bool, logger *slog.Logger) *SyntaxChecker {
	if logger == nil {
		logger = slog.Default()
	}
	return &SyntaxChecker{advisory: advisory, parserCheck: parserCheck, logger: logger}
}

// Check validates text. The statement is valid when there is no structural
// error and the advisory did not report a syntax error. An advisory failure
// is inconclusive and leaves validity untouched.
func (c *SyntaxChecker) Check(ctx context.Context, kind types.StatementKind, text string) SyntaxResult {
	var issues []types.Issue
	add := func(issue types.Issue) {
		issue.Stage = types.Stage_SYNTAX
		issues = append(issues, issue)
	}

	trimmed := strings.TrimSpace(text)
	if !strings.HasSuffix(trimmed, ";") {
		add(types.Issue{
			Kind:     types.IssueKindMissingTerminator,
			Severity: types.Severity_ERROR,
			Message:  "Statement must end with a semicolon (;)",
		})
	}

	if kind == types.StatementKind_CREATE_TABLE && statement.HasUnsizedVarchar(trimmed) {
		add(types.Issue{
			Kind:     types.IssueKindUnspecifiedVarcharLength,
			Severity: types.Severity_ERROR,
			Message:  "VARCHAR columns must declare a length, e.g. VARCHAR(255)",
		})
	}

	if c.parserCheck {
		if err := mysqlparser.ParseStatement(trimmed); err != nil {
			add(types.Issue{
				Kind:          types.IssueKindParseError,
				Severity:      types.Severity_ERROR,
				Message:       err.Error(),
				StartPosition: err.Position,
			})
		}
	}

	if c.advisory != nil {
		answer, err := c.advisory.Ask(ctx, advisor.SyntaxPrompt(trimmed))
		switch {
		case err != nil:
			c.logger.Warn("advisory syntax check unavailable, result inconclusive", "error", err)
		case advisor.ReportsSyntaxError(answer):
			add(types.Issue{
				Kind:     types.IssueKindAdvisorySyntaxError,
				Severity: types.Severity_ERROR,
				Message:  "Advisory review reported a syntax error: " + firstLine(answer),
				Advisory: true,
			})
		}
	}

	return SyntaxResult{Issues: issues, Valid: len(issues) == 0}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
