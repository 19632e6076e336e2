package reconcile

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"

	"dbsync/internal/caseconv"
	"dbsync/internal/gateway"
	"dbsync/internal/interact"
	"dbsync/internal/model"
)

func setupMySQLForEngine(t *testing.T) *model.ConnectionConfig {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
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

	dsn, err := gateway.DSN(conn, "testdb")
	require.NoError(t, err)
	db, err := sql.Open("mysql", dsn)
	require.NoError(t, err)
	require.NoError(t, db.PingContext(ctx))
	t.Cleanup(func() { _ = db.Close() })

	return conn
}

func blogModel() *model.DataModel {
	post := &model.EntityDefinition{
		Module: "blog",
		Attributes: map[string]model.AttributeDefinition{
			"title": {Type: "varchar", LengthOrValues: &model.LengthOrValues{Int: intPtrEngine(255)}, AllowNull: false},
		},
		AttributeOrder:    []string{"title"},
		RelationshipOrder: []string{"author"},
		Relationships:     map[string][]string{"author": {"primary"}},
		Options:           model.EntityOptions{EnforceLockingConstraints: true, IsAuditEnabled: true},
	}
	author := &model.EntityDefinition{
		Module: "blog",
		Attributes: map[string]model.AttributeDefinition{
			"name": {Type: "varchar", LengthOrValues: &model.LengthOrValues{Int: intPtrEngine(100)}, AllowNull: false},
		},
		AttributeOrder: []string{"name"},
		Options:        model.EntityOptions{EnforceLockingConstraints: true, IsAuditEnabled: true},
	}
	return &model.DataModel{
		Entities:    map[string]*model.EntityDefinition{"post": post, "author": author},
		EntityOrder: []string{"author", "post"},
	}
}

func intPtrEngine(i int) *int { return &i }

func TestEngineRunConvergesInTwoPasses(t *testing.T) {
	conn := setupMySQLForEngine(t)
	dataModel := blogModel()
	shim := interact.NewHeadless(testWriter{t}, true)

	eng1 := NewEngine(dataModel, conn, caseconv.Snake, shim, false)
	report1, err := eng1.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateDone, eng1.State())
	assert.NotEmpty(t, report1.Executed())

	eng2 := NewEngine(dataModel, conn, caseconv.Snake, shim, false)
	report2, err := eng2.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateDone, eng2.State())

	// Second run still rewrites foreign keys (names are always fresh) but
	// must not touch tables, columns, or indexes a second time.
	for _, op := range report2.Executed() {
		assert.NotContains(t, op.SQL, "CREATE TABLE")
		assert.NotContains(t, op.SQL, "ADD COLUMN")
	}
}

func TestEngineRunDryRunRecordsSkippedOnly(t *testing.T) {
	conn := setupMySQLForEngine(t)
	dataModel := blogModel()
	shim := interact.NewHeadless(testWriter{t}, true)

	eng := NewEngine(dataModel, conn, caseconv.Snake, shim, true)
	report, err := eng.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Executed())
	assert.NotEmpty(t, report.Skipped())
}

func TestEngineRunDropsOrphanTableWithAssumeYes(t *testing.T) {
	conn := setupMySQLForEngine(t)
	ctx := context.Background()

	gw, err := gateway.Connect(ctx, "blog", conn)
	require.NoError(t, err)
	require.NoError(t, gw.Execute(ctx, "CREATE TABLE `legacy_widgets` (`id` BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY);"))
	require.NoError(t, gw.Close())

	dataModel := blogModel()
	shim := interact.NewHeadless(testWriter{t}, true)
	eng := NewEngine(dataModel, conn, caseconv.Snake, shim, false)
	report, err := eng.Run(context.Background())
	require.NoError(t, err)

	var droppedLegacy bool
	for _, op := range report.Executed() {
		if op.Phase == phaseDropOrphans {
			droppedLegacy = true
		}
	}
	assert.True(t, droppedLegacy)
}

// TestEngineRunAbortsOnNonInnoDBDefault exercises spec scenario S6: a
// non-InnoDB default storage engine must abort the run in the integrity
// phase with an IntegrityError, before any DDL is attempted against any
// module.
func TestEngineRunAbortsOnNonInnoDBDefault(t *testing.T) {
	conn := setupMySQLForEngine(t)
	ctx := context.Background()

	dsn, err := gateway.DSN(conn, "testdb")
	require.NoError(t, err)
	db, err := sql.Open("mysql", dsn)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.ExecContext(ctx, "SET GLOBAL default_storage_engine = 'MyISAM'")
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = db.ExecContext(context.Background(), "SET GLOBAL default_storage_engine = 'InnoDB'")
	})

	dataModel := blogModel()
	shim := interact.NewHeadless(testWriter{t}, true)
	eng := NewEngine(dataModel, conn, caseconv.Snake, shim, false)
	report, err := eng.Run(ctx)

	require.Error(t, err)
	var re *Error
	require.ErrorAs(t, err, &re)
	assert.Equal(t, KindIntegrityError, re.Kind)
	assert.Equal(t, "blog", re.Module)
	assert.Equal(t, StateFailed, eng.State())
	assert.Empty(t, report.Executed())
}

// testWriter adapts *testing.T to io.Writer so headless Report lines land in
// the test log instead of stdout.
type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Logf("%s", p)
	return len(p), nil
}
