package rules

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsxbet/ddl-validator/pkg/advisor"
	"github.com/nsxbet/ddl-validator/pkg/types"
)

func answer(s string) advisor.Client {
	return advisor.ClientFunc(func(context.Context, string) (string, error) { return s, nil })
}

func TestSyntaxChecker(t *testing.T) {
	unavailable := advisor.ClientFunc(func(context.Context, string) (string, error) {
		return "", errors.Wrap(advisor.ErrUnavailable, "timeout")
	})

	tests := []struct {
		name      string
		advisory  advisor.Client
		parser    bool
		kind      types.StatementKind
		text      string
		want      []types.IssueKind
		wantValid bool
	}{
		{
			name:      "valid create table",
			kind:      types.StatementKind_CREATE_TABLE,
			text:      "CREATE TABLE t (id INT, name VARCHAR(20));",
			wantValid: true,
		},
		{
			name: "missing terminator",
			kind: types.StatementKind_CREATE_TABLE,
			text: "CREATE TABLE t (id INT)",
			want: []types.IssueKind{types.IssueKindMissingTerminator},
		},
		{
			name: "varchar without length",
			kind: types.StatementKind_CREATE_TABLE,
			text: "CREATE TABLE t (id INT, name VARCHAR());",
			want: []types.IssueKind{types.IssueKindUnspecifiedVarcharLength},
		},
		{
			name:      "varchar length only checked on create table",
			kind:      types.StatementKind_ALTER_TABLE,
			text:      "ALTER TABLE t MODIFY COLUMN name VARCHAR();",
			wantValid: true,
		},
		{
			name:     "advisory reports syntax error",
			advisory: answer("Syntax error: unknown type INTT"),
			kind:     types.StatementKind_CREATE_TABLE,
			text:     "CREATE TABLE t (id INTT);",
			want:     []types.IssueKind{types.IssueKindAdvisorySyntaxError},
		},
		{
			name:      "advisory ok",
			advisory:  answer("OK"),
			kind:      types.StatementKind_CREATE_TABLE,
			text:      "CREATE TABLE t (id INT);",
			wantValid: true,
		},
		{
			name:      "advisory unavailable is inconclusive",
			advisory:  unavailable,
			kind:      types.StatementKind_CREATE_TABLE,
			text:      "CREATE TABLE t (id INT);",
			wantValid: true,
		},
		{
			name:   "grammar check",
			parser: true,
			kind:   types.StatementKind_CREATE_TABLE,
			text:   "CREATE TABLE t (id INT;",
			want:   []types.IssueKind{types.IssueKindParseError},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewSyntaxChecker(tt.advisory, tt.parser, nil)
			result := checker.Check(context.Background(), tt.kind, tt.text)
			assert.Equal(t, tt.want, kinds(result.Issues))
			assert.Equal(t, tt.wantValid, result.Valid)
			for _, issue := range result.Issues {
				assert.Equal(t, types.Stage_SYNTAX, issue.Stage)
			}
		})
	}
}

func TestAdvisorySyntaxIssueIsLabeled(t *testing.T) {
	checker := NewSyntaxChecker(answer("문법 오류: 괄호"), false, nil)
	result := checker.Check(context.Background(), types.StatementKind_CREATE_TABLE, "CREATE TABLE t (id INT);")
	require.Len(t, result.Issues, 1)
	assert.True(t, result.Issues[0].Advisory)
	assert.False(t, result.Valid)
}
