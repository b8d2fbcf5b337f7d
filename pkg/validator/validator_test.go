package validator

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsxbet/ddl-validator/pkg/catalog"
	"github.com/nsxbet/ddl-validator/pkg/catalog/catalogtest"
	"github.com/nsxbet/ddl-validator/pkg/types"
)

func fixture() *catalogtest.Schema {
	return catalogtest.New().
		AddTable("users", "id", "email", "name").
		AddIndex("users", "idx_users_email").
		SetRowCount("users", 1500).
		AddTable("orders", "id", "user_id", "total").
		AddForeignKey("orders", "users").
		AddTable("empty_log", "id", "message")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		kind     types.StatementKind
		text     string
		want     []types.IssueKind
		severity []types.Severity
	}{
		{
			name: "create new table",
			kind: types.StatementKind_CREATE_TABLE,
			text: "CREATE TABLE invoices (id INT);",
		},
		{
			name:     "create existing table",
			kind:     types.StatementKind_CREATE_TABLE,
			text:     "CREATE TABLE users (id INT);",
			want:     []types.IssueKind{types.IssueKindTableAlreadyExists},
			severity: []types.Severity{types.Severity_WARNING},
		},
		{
			name:     "foreign key to missing table",
			kind:     types.StatementKind_CREATE_TABLE,
			text:     "CREATE TABLE invoices (id INT, customer_id INT, FOREIGN KEY (customer_id) REFERENCES customers(id));",
			want:     []types.IssueKind{types.IssueKindForeignKeyTargetMissing},
			severity: []types.Severity{types.Severity_ERROR},
		},
		{
			name:     "foreign key to missing column",
			kind:     types.StatementKind_CREATE_TABLE,
			text:     "CREATE TABLE invoices (id INT, uid INT, FOREIGN KEY (uid) REFERENCES users(uuid));",
			want:     []types.IssueKind{types.IssueKindForeignKeyColumnMissing},
			severity: []types.Severity{types.Severity_ERROR},
		},
		{
			name: "foreign key to existing column",
			kind: types.StatementKind_CREATE_TABLE,
			text: "CREATE TABLE invoices (id INT, uid INT, FOREIGN KEY (uid) REFERENCES `Users`(`ID`));",
		},
		{
			name:     "alter missing table",
			kind:     types.StatementKind_ALTER_TABLE,
			text:     "ALTER TABLE customers ADD COLUMN age INT;",
			want:     []types.IssueKind{types.IssueKindTableMissing},
			severity: []types.Severity{types.Severity_ERROR},
		},
		{
			name:     "alter column actions",
			kind:     types.StatementKind_ALTER_TABLE,
			text:     "ALTER TABLE users ADD COLUMN email VARCHAR(10), DROP COLUMN phone, MODIFY COLUMN name VARCHAR(50);",
			want:     []types.IssueKind{types.IssueKindColumnAlreadyExists, types.IssueKindColumnMissing},
			severity: []types.Severity{types.Severity_ERROR, types.Severity_ERROR},
		},
		{
			name: "alter comment mentioning a drop",
			kind: types.StatementKind_ALTER_TABLE,
			text: "ALTER TABLE users ADD COLUMN note VARCHAR(10) COMMENT 'we drop legacy data';",
		},
		{
			name: "alter add index is not a column",
			kind: types.StatementKind_ALTER_TABLE,
			text: "ALTER TABLE users ADD INDEX idx_users_name (name);",
		},
		{
			name:     "create index on missing table",
			kind:     types.StatementKind_CREATE_INDEX,
			text:     "CREATE INDEX idx_x ON customers (id);",
			want:     []types.IssueKind{types.IssueKindTableMissing},
			severity: []types.Severity{types.Severity_ERROR},
		},
		{
			name:     "create existing index",
			kind:     types.StatementKind_CREATE_INDEX,
			text:     "CREATE INDEX IDX_USERS_EMAIL ON users (email);",
			want:     []types.IssueKind{types.IssueKindIndexAlreadyExists},
			severity: []types.Severity{types.Severity_ERROR},
		},
		{
			name:     "create unique index on missing column",
			kind:     types.StatementKind_CREATE_UNIQUE_INDEX,
			text:     "CREATE UNIQUE INDEX uk_users_phone ON users (phone(10));",
			want:     []types.IssueKind{types.IssueKindColumnMissing},
			severity: []types.Severity{types.Severity_ERROR},
		},
		{
			name:     "drop missing table",
			kind:     types.StatementKind_DROP,
			text:     "DROP TABLE customers;",
			want:     []types.IssueKind{types.IssueKindTableMissing},
			severity: []types.Severity{types.Severity_WARNING},
		},
		{
			name: "drop missing table if exists",
			kind: types.StatementKind_DROP,
			text: "DROP TABLE IF EXISTS customers;",
		},
		{
			name:     "drop populated referenced table",
			kind:     types.StatementKind_DROP,
			text:     "DROP TABLE users;",
			want:     []types.IssueKind{types.IssueKindDataLossRisk, types.IssueKindTableReferenced},
			severity: []types.Severity{types.Severity_ERROR, types.Severity_ERROR},
		},
		{
			name: "drop empty table",
			kind: types.StatementKind_DROP,
			text: "DROP TABLE empty_log;",
		},
		{
			name: "drop view is not checked",
			kind: types.StatementKind_DROP,
			text: "DROP VIEW user_summary;",
		},
		{
			name:     "drop index on missing table",
			kind:     types.StatementKind_DROP_INDEX,
			text:     "DROP INDEX idx_x ON customers;",
			want:     []types.IssueKind{types.IssueKindTableMissing},
			severity: []types.Severity{types.Severity_ERROR},
		},
		{
			name:     "drop missing index",
			kind:     types.StatementKind_DROP_INDEX,
			text:     "DROP INDEX idx_users_name ON users;",
			want:     []types.IssueKind{types.IssueKindIndexMissing},
			severity: []types.Severity{types.Severity_ERROR},
		},
		{
			name: "drop existing index",
			kind: types.StatementKind_DROP_INDEX,
			text: "DROP INDEX idx_users_email ON users;",
		},
		{
			name:     "unparsable create index",
			kind:     types.StatementKind_CREATE_INDEX,
			text:     "CREATE INDEX ON users;",
			want:     []types.IssueKind{types.IssueKindTargetUnparsable},
			severity: []types.Severity{types.Severity_ERROR},
		},
		{
			name: "dml is not checked here",
			kind: types.StatementKind_SELECT,
			text: "SELECT u.nope FROM users u;",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New(catalog.NewIntrospector(fixture(), nil), nil)
			issues, err := v.Validate(context.Background(), tt.kind, tt.text)
			require.NoError(t, err)

			var kinds []types.IssueKind
			var severities []types.Severity
			for _, issue := range issues {
				kinds = append(kinds, issue.Kind)
				severities = append(severities, issue.Severity)
				assert.Equal(t, types.Stage_SCHEMA, issue.Stage)
			}
			assert.Equal(t, tt.want, kinds)
			assert.Equal(t, tt.severity, severities)
		})
	}
}

func TestDropTableReportsRowCount(t *testing.T) {
	v := New(catalog.NewIntrospector(catalogtest.New().AddTable("audit", "id").SetRowCount("audit", 42), nil), nil)
	issues, err := v.Validate(context.Background(), types.StatementKind_DROP, "DROP TABLE audit;")
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, types.IssueKindDataLossRisk, issues[0].Kind)
	assert.Contains(t, issues[0].Message, "42")
}

func TestCreateExistingTableIfNotExists(t *testing.T) {
	v := New(catalog.NewIntrospector(fixture(), nil), nil)
	issues, err := v.Validate(context.Background(), types.StatementKind_CREATE_TABLE, "CREATE TABLE IF NOT EXISTS users (id INT);")
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Message, "no-op")
}

func TestColumnsFetchedOncePerTable(t *testing.T) {
	schema := fixture()
	in := catalog.NewIntrospector(schema, nil)
	v := New(in, nil)
	for i := 0; i < 3; i++ {
		_, err := v.Validate(context.Background(), types.StatementKind_ALTER_TABLE, "ALTER TABLE users DROP COLUMN phone;")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, schema.Executed(catalog.QueryColumns))
}

func TestConnectionErrorIsReturned(t *testing.T) {
	schema := fixture().FailWith("", errors.Wrap(catalog.ErrConnection, "broken pipe"))
	v := New(catalog.NewIntrospector(schema, nil), nil)
	_, err := v.Validate(context.Background(), types.StatementKind_DROP, "DROP TABLE users;")
	assert.ErrorIs(t, err, catalog.ErrConnection)
}

func TestQueryFailureDegrades(t *testing.T) {
	schema := fixture().FailWith(catalog.QueryTableExists, errors.New("Error 1142: SELECT command denied"))
	v := New(catalog.NewIntrospector(schema, nil), nil)
	issues, err := v.Validate(context.Background(), types.StatementKind_ALTER_TABLE, "ALTER TABLE users ADD COLUMN age INT;")
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, types.IssueKindTableMissing, issues[0].Kind)
}
