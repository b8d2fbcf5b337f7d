// Package advisor defines the external advisory service used for free-form
// syntax and standards review, and the knowledge search that feeds it.
//
// Advisory answers are heuristic. Callers label issues derived from them and
// never treat an advisory failure as a validation failure by itself.
package advisor

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

// ErrUnavailable is returned when the advisory service cannot answer.
var ErrUnavailable = errors.New("advisory service unavailable")

// Client sends a prompt to the advisory service and returns its answer.
type Client interface {
	Ask(ctx context.Context, prompt string) (string, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, prompt string) (string, error)

// Ask implements Client.
func (f ClientFunc) Ask(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Document is one standards document returned by a knowledge search.
type Document struct {
	Title    string   `yaml:"title" json:"title"`
	Content  string   `yaml:"content" json:"content"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

// KnowledgeSearch finds standards documents relevant to a query.
type KnowledgeSearch interface {
	Query(ctx context.Context, text string) ([]Document, error)
}

// Markers that an advisory answer reports a syntax problem.
var syntaxErrorMarkers = []string{"syntax error", "문법 오류"}

// Markers that an advisory answer reports a standards violation.
var (
	violationMarkers     = []string{"violation", "violates", "non-compliant", "위반", "부적절"}
	violationLineMarkers = []string{"violation", "violates", "non-compliant", "issue", "problem", "error", "위반", "문제", "오류"}
)

// SyntaxPrompt builds the prompt asking for a syntax review of ddl.
func SyntaxPrompt(ddl string) string {
	return "Validate the syntax of the following MySQL DDL statement. " +
		"If it contains a syntax error, answer with a line starting with \"syntax error:\" followed by the reason. " +
		"Otherwise answer \"OK\".\n\n" + ddl
}

// StandardsPrompt builds the prompt asking whether ddl follows the given standards.
func StandardsPrompt(ddl string, docs []Document) string {
	var b strings.Builder
	b.WriteString("Check the following MySQL DDL statement against these schema standards.\n\n")
	for _, doc := range docs {
		if doc.Title != "" {
			b.WriteString("## ")
			b.WriteString(doc.Title)
			b.WriteString("\n")
		}
		b.WriteString(doc.Content)
		b.WriteString("\n\n")
	}
	b.WriteString("Report each problem on its own line starting with \"violation:\". ")
	b.WriteString("Answer \"compliant\" if there is none.\n\nDDL:\n")
	b.WriteString(ddl)
	return b.String()
}

// ReportsSyntaxError reports whether an advisory answer flags a syntax error.
func ReportsSyntaxError(answer string) bool {
	return containsAny(strings.ToLower(answer), syntaxErrorMarkers)
}

// Violations returns the lines of an advisory answer that report standards violations.
// It returns nil unless the answer as a whole reports a violation.
func Violations(answer string) []string {
	if !containsAny(strings.ToLower(answer), violationMarkers) {
		return nil
	}
	var lines []string
	for _, line := range strings.Split(answer, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if containsAny(strings.ToLower(line), violationLineMarkers) {
			lines = append(lines, line)
		}
	}
	return lines
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
