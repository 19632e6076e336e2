package gateway

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"

	"dbsync/internal/model"
)

type testMySQLContainer struct {
	container *tcmysql.MySQLContainer
	conn      *model.ConnectionConfig
	db        *sql.DB
}

func setupMySQL(t *testing.T) *testMySQLContainer {
	t.Helper()
	ctx := context.Background()

	container, err := tcmysql.Run(ctx, "mysql:8.0",
		tcmysql.WithDatabase("testdb"),
		tcmysql.WithUsername("root"),
		tcmysql.WithPassword("testpass"),
	)
	require.NoError(t, err, "failed to start MySQL container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "3306/tcp")
	require.NoError(t, err)

	conn := &model.ConnectionConfig{
		Host:     host,
		User:     "root",
		Password: "testpass",
		Port:     port.Int(),
		ModuleSchemaMapping: []model.ModuleSchemaMapping{
			{ModuleName: "blog", SchemaName: "testdb"},
		},
	}

	dsn, err := DSN(conn, "testdb")
	require.NoError(t, err)
	db, err := sql.Open("mysql", dsn)
	require.NoError(t, err)
	require.NoError(t, db.PingContext(ctx))
	t.Cleanup(func() { _ = db.Close() })

	return &testMySQLContainer{container: container, conn: conn, db: db}
}

func TestGatewayConnectAndClose(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	tc := setupMySQL(t)
	ctx := context.Background()

	gw, err := Connect(ctx, "blog", tc.conn)
	require.NoError(t, err)
	assert.Equal(t, "blog", gw.Module)
	assert.Equal(t, "testdb", gw.Schema)
	require.NoError(t, gw.Close())
}

func TestGatewayConnectUnknownModuleFails(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	tc := setupMySQL(t)
	ctx := context.Background()

	_, err := Connect(ctx, "not-a-module", tc.conn)
	assert.Error(t, err)
}

func TestGatewayIntrospectionRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	tc := setupMySQL(t)
	ctx := context.Background()

	gw, err := Connect(ctx, "blog", tc.conn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = gw.Close() })

	ok, err := gw.EngineSupportsInnoDB(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, gw.Execute(ctx, "CREATE TABLE `posts` (`id` BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY, `title` VARCHAR(255) NOT NULL);"))
	require.NoError(t, gw.Execute(ctx, "CREATE INDEX `idx_title` ON `posts` (`title`);"))

	tables, err := gw.IntrospectTables(ctx)
	require.NoError(t, err)
	names := make([]string, 0, len(tables))
	for _, tbl := range tables {
		names = append(names, tbl.Name)
	}
	assert.Contains(t, names, "posts")

	cols, err := gw.IntrospectColumns(ctx, "posts")
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.Equal(t, "id", cols[0].Field)
	assert.Equal(t, "title", cols[1].Field)

	indexes, err := gw.IntrospectIndexes(ctx, "posts")
	require.NoError(t, err)
	var found bool
	for _, idx := range indexes {
		if idx.Name == "idx_title" {
			found = true
			assert.Equal(t, []string{"title"}, idx.Columns)
		}
	}
	assert.True(t, found)

	require.NoError(t, gw.SetForeignKeyChecks(ctx, false))
	require.NoError(t, gw.SetForeignKeyChecks(ctx, true))
}

// TestGatewayIntegrityProbeDetectsNonInnoDBDefault exercises spec scenario
// S6: a server whose default storage engine is not InnoDB must be caught by
// EngineSupportsInnoDB before any DDL runs. default_storage_engine is a
// session variable that initializes from the GLOBAL value at connect time,
// so flipping the global and opening a fresh connection is enough to
// reproduce a non-InnoDB server without a custom container image.
func TestGatewayIntegrityProbeDetectsNonInnoDBDefault(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	tc := setupMySQL(t)
	ctx := context.Background()

	_, err := tc.db.ExecContext(ctx, "SET GLOBAL default_storage_engine = 'MyISAM'")
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = tc.db.ExecContext(context.Background(), "SET GLOBAL default_storage_engine = 'InnoDB'")
	})

	gw, err := Connect(ctx, "blog", tc.conn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = gw.Close() })

	ok, err := gw.EngineSupportsInnoDB(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}
