package advisor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportsSyntaxError(t *testing.T) {
	tests := []struct {
		answer string
		want   bool
	}{
		{"OK", false},
		{"Syntax error: missing closing parenthesis", true},
		{"문법 오류: 괄호가 닫히지 않았습니다", true},
		{"The statement is valid.", false},
	}
	for _, tt := range tests {
		t.Run(tt.answer, func(t *testing.T) {
			assert.Equal(t, tt.want, ReportsSyntaxError(tt.answer))
		})
	}
}

func TestViolations(t *testing.T) {
	answer := "Review result:\n" +
		"violation: table name `UserData` is not snake_case\n" +
		"\n" +
		"note: consider a comment\n" +
		"violation: column `ID` should be lower case\n"
	assert.Equal(t, []string{
		"violation: table name `UserData` is not snake_case",
		"violation: column `ID` should be lower case",
	}, Violations(answer))

	assert.Nil(t, Violations("compliant"))
	assert.Nil(t, Violations("There is an issue with nothing"))
}

func TestStandardsPrompt(t *testing.T) {
	prompt := StandardsPrompt("CREATE TABLE t (id INT);", []Document{
		{Title: "Naming", Content: "Tables use snake_case."},
	})
	assert.Contains(t, prompt, "## Naming")
	assert.Contains(t, prompt, "Tables use snake_case.")
	assert.Contains(t, prompt, "CREATE TABLE t (id INT);")
	assert.Contains(t, SyntaxPrompt("DROP TABLE t;"), "DROP TABLE t;")
}

func TestFileKnowledge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "standards.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- title: General
  content: Every table has a primary key.
- title: Index naming
  content: Indexes are named idx_<table>_<columns>.
  keywords: [index]
- title: Table naming
  content: Tables use snake_case plural nouns.
  keywords: [create_table, naming, table]
`), 0o600))

	k, err := LoadFileKnowledge(path)
	require.NoError(t, err)

	docs, err := k.Query(context.Background(), "DDL CREATE_TABLE schema standards naming rules")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "Table naming", docs[0].Title)
	assert.Equal(t, "General", docs[1].Title)

	docs, err = k.Query(context.Background(), "DDL CREATE_INDEX schema standards naming rules")
	require.NoError(t, err)
	require.Len(t, docs, 3)
}

func TestNewOpenAIClientRequiresKey(t *testing.T) {
	_, err := NewOpenAIClient(OpenAIOptions{Model: "gpt-4o-mini"})
	assert.ErrorIs(t, err, ErrUnavailable)

	c, err := NewOpenAIClient(OpenAIOptions{APIKey: "sk-test", Model: "gpt-4o-mini"})
	require.NoError(t, err)
	assert.NotNil(t, c)
}
