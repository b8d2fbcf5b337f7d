package catalog_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsxbet/ddl-validator/pkg/catalog"
	"github.com/nsxbet/ddl-validator/pkg/catalog/catalogtest"
)

func newSchema() *catalogtest.Schema {
	return catalogtest.New().
		AddTable("Users", "ID", "name", "email").
		AddTable("orders", "id", "user_id").
		AddIndex("orders", "idx_orders_user_id").
		SetRowCount("orders", 42).
		AddForeignKey("orders", "users")
}

func TestColumnsAreLowerCasedAndCached(t *testing.T) {
	ctx := context.Background()
	schema := newSchema()
	in := catalog.NewIntrospector(schema, nil)

	cols, err := in.Columns(ctx, "users")
	require.NoError(t, err)
	assert.Len(t, cols, 3)
	assert.True(t, cols.Has("id"))
	assert.True(t, cols.Has("EMAIL"))
	assert.False(t, cols.Has("total"))

	_, err = in.Columns(ctx, "USERS")
	require.NoError(t, err)
	assert.Equal(t, 1, schema.Executed(catalog.QueryColumns))
}

func TestFailedColumnLookupIsCachedEmpty(t *testing.T) {
	ctx := context.Background()
	schema := newSchema().FailWith(catalog.QueryColumns, errors.New("Error 1142: SELECT command denied"))
	in := catalog.NewIntrospector(schema, nil)

	cols, err := in.Columns(ctx, "users")
	require.NoError(t, err)
	assert.Empty(t, cols)

	cols, err = in.Columns(ctx, "users")
	require.NoError(t, err)
	assert.Empty(t, cols)
	assert.Equal(t, 1, schema.Executed(catalog.QueryColumns))
}

func TestExistenceProbes(t *testing.T) {
	ctx := context.Background()
	schema := newSchema()
	in := catalog.NewIntrospector(schema, nil)

	tests := []struct {
		name  string
		probe func() (bool, error)
		want  bool
	}{
		{"existing table", func() (bool, error) { return in.TableExists(ctx, "ORDERS") }, true},
		{"missing table", func() (bool, error) { return in.TableExists(ctx, "payments") }, false},
		{"existing index", func() (bool, error) { return in.IndexExists(ctx, "orders", "IDX_ORDERS_USER_ID") }, true},
		{"missing index", func() (bool, error) { return in.IndexExists(ctx, "orders", "idx_other") }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.probe()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	// Probes are live, not cached.
	_, _ = in.TableExists(ctx, "orders")
	assert.Equal(t, 3, schema.Executed(catalog.QueryTableExists))
	assert.True(t, in.Table("orders").Indexes["idx_orders_user_id"])
}

func TestRowCount(t *testing.T) {
	ctx := context.Background()
	schema := newSchema()
	in := catalog.NewIntrospector(schema, nil)

	n, err := in.RowCount(ctx, "orders")
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	n, err = in.RowCount(ctx, "orders")
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
	assert.Equal(t, 1, schema.Executed(catalog.QueryRowCountPrefix))

	n, err = in.RowCount(ctx, "orders; DROP TABLE users")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, schema.Executed(catalog.QueryRowCountPrefix))
}

func TestReferencingTables(t *testing.T) {
	in := catalog.NewIntrospector(newSchema(), nil)
	refs, err := in.ReferencingTables(context.Background(), "users")
	require.NoError(t, err)
	assert.Equal(t, []string{"orders"}, refs)
}

func TestServerInfo(t *testing.T) {
	in := catalog.NewIntrospector(newSchema(), nil)
	version, database, err := in.ServerInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "8.0.36", version)
	assert.Equal(t, "app", database)
}

func TestConnectionErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	lost := errors.Wrap(catalog.ErrConnection, "invalid connection")
	in := catalog.NewIntrospector(newSchema().FailWith("", lost), nil)

	_, err := in.TableExists(ctx, "users")
	assert.ErrorIs(t, err, catalog.ErrConnection)

	_, err = in.Columns(ctx, "users")
	assert.ErrorIs(t, err, catalog.ErrConnection)

	_, err = in.RowCount(ctx, "users")
	assert.ErrorIs(t, err, catalog.ErrConnection)
}

func TestConnectionErrorClassifier(t *testing.T) {
	ctx := context.Background()
	badConn := errors.New("driver: bad connection")
	isBadConn := func(err error) bool { return errors.Is(err, badConn) }

	degraded := catalog.NewIntrospector(newSchema().FailWith(catalog.QueryTableExists, badConn), nil)
	exists, err := degraded.TableExists(ctx, "users")
	require.NoError(t, err)
	assert.False(t, exists)

	classified := catalog.NewIntrospector(newSchema().FailWith(catalog.QueryTableExists, badConn), nil,
		catalog.WithConnectionErrorClassifier(isBadConn))
	_, err = classified.TableExists(ctx, "users")
	assert.ErrorIs(t, err, badConn)
}
