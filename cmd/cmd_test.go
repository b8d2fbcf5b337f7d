package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsxbet/ddl-validator/pkg/catalog"
	"github.com/nsxbet/ddl-validator/pkg/dml"
	"github.com/nsxbet/ddl-validator/pkg/report"
	"github.com/nsxbet/ddl-validator/pkg/types"
)

func TestFailedCursor(t *testing.T) {
	cause := errors.New("dial tcp 10.0.0.1:3306: connect: connection refused")
	cursor := failedCursor{err: cause}

	err := cursor.Execute(context.Background(), catalog.QueryServerInfo)
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrConnection)
	assert.Contains(t, err.Error(), "connection refused")

	_, err = cursor.FetchOne()
	assert.Equal(t, cause, err)
	_, err = cursor.FetchAll()
	assert.Equal(t, cause, err)
}

func TestLoadConfiguration(t *testing.T) {
	viper.Set("dsn", "app:secret@tcp(db:3306)/shop")
	viper.Set("region", "sa-east-1")
	t.Cleanup(func() {
		viper.Set("dsn", "")
		viper.Set("region", "")
	})

	cfg, err := loadConfiguration()
	require.NoError(t, err)
	assert.Equal(t, "app:secret@tcp(db:3306)/shop", cfg.Database.DSN)
	assert.Equal(t, "sa-east-1", cfg.Database.Region)
	assert.Empty(t, cfg.Database.Secret)
	assert.Equal(t, 5, cfg.Performance.MaxIndexColumns)
}

func TestConnectWithoutDatabase(t *testing.T) {
	cfg, err := loadConfiguration()
	require.NoError(t, err)
	cfg.Database.DSN = ""

	conn, err := connect(context.Background(), cfg, initLogger())
	require.NoError(t, err)
	assert.Nil(t, conn)
}

func TestRenderTally(t *testing.T) {
	color.NoColor = true
	tally := &dml.Tally{
		TotalQueries:      2,
		QueriesWithIssues: 1,
		Results: []dml.QueryResult{
			{QueryType: types.StatementKind_SELECT, SQL: "SELECT u.id FROM users u"},
			{
				QueryType: types.StatementKind_UPDATE,
				SQL:       "UPDATE users u SET u.nickname = 'x'",
				Issues: []types.Issue{{
					Kind:     types.IssueKindMissingColumn,
					Severity: types.Severity_ERROR,
					Message:  "Column `nickname` does not exist in table `users` (UPDATE)",
				}},
			},
		},
	}

	tests := []struct {
		name   string
		format report.Format
		check  func(t *testing.T, out string)
	}{
		{
			name:   "text",
			format: report.FormatText,
			check: func(t *testing.T, out string) {
				assert.Contains(t, out, "UPDATE UPDATE users u SET u.nickname = 'x'")
				assert.Contains(t, out, "nickname")
				assert.NotContains(t, out, "SELECT u.id")
				assert.Contains(t, out, "Summary: 2 quer(ies), 1 with missing columns")
			},
		},
		{
			name:   "json",
			format: report.FormatJSON,
			check: func(t *testing.T, out string) {
				var decoded map[string]any
				require.NoError(t, json.Unmarshal([]byte(out), &decoded))
				assert.EqualValues(t, 2, decoded["total_queries"])
				assert.EqualValues(t, 1, decoded["queries_with_issues"])
			},
		},
		{
			name:   "yaml",
			format: report.FormatYAML,
			check: func(t *testing.T, out string) {
				assert.Contains(t, out, "total_queries: 2")
				assert.Contains(t, out, "query_type: UPDATE")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, renderTally(&buf, tt.format, tally))
			tt.check(t, buf.String())
		})
	}
}

func TestRenderTallyClean(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	require.NoError(t, renderTally(&buf, report.FormatText, &dml.Tally{TotalQueries: 1}))
	assert.Contains(t, buf.String(), "All referenced columns exist.")
}

func TestValidateCommandWithoutDatabase(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "change.sql")
	script := "CREATE TABLE users (id INT PRIMARY KEY);\nDROP TABLE audit;\n"
	require.NoError(t, os.WriteFile(file, []byte(script), 0o600))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"validate", file, "--output", "json", "--database", "shop"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		viper.Set("output", "text")
		viper.Set("database", "")
	})

	require.NoError(t, rootCmd.Execute())

	var decoded struct {
		Reports []struct {
			DDLType       string `json:"ddl_type"`
			OverallStatus string `json:"overall_status"`
			Database      string `json:"database"`
		} `json:"reports"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	require.Len(t, decoded.Reports, 2)
	assert.Equal(t, "CREATE_TABLE", decoded.Reports[0].DDLType)
	assert.Equal(t, "PASS", decoded.Reports[0].OverallStatus)
	assert.Equal(t, "shop", decoded.Reports[0].Database)
	assert.Equal(t, "DROP", decoded.Reports[1].DDLType)
	assert.Equal(t, "FAIL", decoded.Reports[1].OverallStatus)
}
