// Package gateway is the narrow adapter between the reconciliation engine
// and a single module's MySQL/MariaDB connection. It never interprets the
// data model; it only runs SQL and reports what it sees.
package gateway

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"database/sql"
	"fmt"
	"strings"

	mysqldriver "github.com/go-sql-driver/mysql"

	"dbsync/internal/model"
)

// Gateway holds one module's connection and knows which schema it owns.
type Gateway struct {
	Module string
	Schema string
	db     *sql.DB
}

// TableInfo is one row of introspectTables (spec §4.4).
type TableInfo struct {
	Name      string
	TableType string
}

// ColumnInfo is one row of introspectColumns, shaped after `SHOW FULL
// COLUMNS` (spec §4.5.3): Field, Nullable ("YES"/"NO"), Type (raw, with
// length/values still attached), Default (verbatim, nil when NULL).
type ColumnInfo struct {
	Field   string
	Null    string
	Type    string
	Default *string
}

// IndexInfo is one introspected index: its name plus the ordered column
// list making up its composition.
type IndexInfo struct {
	Name    string
	Unique  bool
	Columns []string
}

// ForeignKeyInfo is one row from information_schema.REFERENTIAL_CONSTRAINTS.
type ForeignKeyInfo struct {
	ConstraintName string
	TableName      string
}

// DSN builds a go-sql-driver/mysql DSN for one module's schema, registering
// a TLS config under a per-module name when the connection config carries
// one.
func DSN(conn *model.ConnectionConfig, schema string) (string, error) {
	cfg := mysqldriver.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", conn.Host, conn.Port)
	cfg.User = conn.User
	cfg.Passwd = conn.Password
	cfg.DBName = schema
	cfg.ParseTime = true
	cfg.MultiStatements = false

	if conn.SSL != nil {
		tlsName := "dbsync-" + schema
		pool := x509.NewCertPool()
		if conn.SSL.CA != "" && !pool.AppendCertsFromPEM([]byte(conn.SSL.CA)) {
			return "", fmt.Errorf("gateway: failed to parse CA certificate for schema %q", schema)
		}
		var certs []tls.Certificate
		if conn.SSL.Cert != "" && conn.SSL.Key != "" {
			cert, err := tls.X509KeyPair([]byte(conn.SSL.Cert), []byte(conn.SSL.Key))
			if err != nil {
				return "", fmt.Errorf("gateway: failed to parse client certificate for schema %q: %w", schema, err)
			}
			certs = []tls.Certificate{cert}
		}
		if err := mysqldriver.RegisterTLSConfig(tlsName, &tls.Config{RootCAs: pool, Certificates: certs}); err != nil {
			return "", fmt.Errorf("gateway: failed to register TLS config for schema %q: %w", schema, err)
		}
		cfg.TLSConfig = tlsName
	}

	return cfg.FormatDSN(), nil
}

// Connect opens and pings the module's connection.
func Connect(ctx context.Context, module string, conn *model.ConnectionConfig) (*Gateway, error) {
	schema := conn.SchemaForModule(module)
	if schema == "" {
		return nil, wrapErr(module, schema, "connect", "", fmt.Errorf("module %q is not present in moduleSchemaMapping", module))
	}
	dsn, err := DSN(conn, schema)
	if err != nil {
		return nil, wrapErr(module, schema, "connect", "", err)
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, wrapErr(module, schema, "connect", "", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, wrapErr(module, schema, "connect", "", err)
	}

	return &Gateway{Module: module, Schema: schema, db: db}, nil
}

// Close releases the underlying connection pool.
func (g *Gateway) Close() error {
	if g.db == nil {
		return nil
	}
	return g.db.Close()
}

// EngineSupportsInnoDB backs the integrity probe (phase 2): it checks the
// server's configured default storage engine.
func (g *Gateway) EngineSupportsInnoDB(ctx context.Context) (bool, error) {
	var varName, value string
	row := g.db.QueryRowContext(ctx, "SHOW VARIABLES LIKE 'default_storage_engine'")
	if err := row.Scan(&varName, &value); err != nil {
		return false, wrapErr(g.Module, g.Schema, "integrity-probe", "", err)
	}
	return strings.EqualFold(value, "InnoDB"), nil
}

// SetForeignKeyChecks toggles the session-scoped flag.
func (g *Gateway) SetForeignKeyChecks(ctx context.Context, enabled bool) error {
	stmt := "SET FOREIGN_KEY_CHECKS = 0"
	if enabled {
		stmt = "SET FOREIGN_KEY_CHECKS = 1"
	}
	if _, err := g.db.ExecContext(ctx, stmt); err != nil {
		return wrapErr(g.Module, g.Schema, "set-foreign-key-checks", stmt, err)
	}
	return nil
}

// Execute runs one DDL statement on this module's connection.
func (g *Gateway) Execute(ctx context.Context, statement string) error {
	if _, err := g.db.ExecContext(ctx, statement); err != nil {
		return wrapErr(g.Module, g.Schema, "execute", statement, err)
	}
	return nil
}

// IntrospectTables lists every base table owned by this schema.
func (g *Gateway) IntrospectTables(ctx context.Context) ([]TableInfo, error) {
	const q = `
		SELECT table_name, table_type
		FROM information_schema.tables
		WHERE table_schema = ? AND table_type = 'BASE TABLE'
	`
	rows, err := g.db.QueryContext(ctx, q, g.Schema)
	if err != nil {
		return nil, wrapErr(g.Module, g.Schema, "introspect-tables", q, err)
	}
	defer rows.Close()

	var out []TableInfo
	for rows.Next() {
		var t TableInfo
		if err := rows.Scan(&t.Name, &t.TableType); err != nil {
			return nil, wrapErr(g.Module, g.Schema, "introspect-tables", q, err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(g.Module, g.Schema, "introspect-tables", q, err)
	}
	return out, nil
}

// IntrospectColumns runs `SHOW FULL COLUMNS FROM table` and returns the
// Field/Null/Type/Default quartet the column reconciler normalizes (spec
// §4.5.3).
func (g *Gateway) IntrospectColumns(ctx context.Context, table string) ([]ColumnInfo, error) {
	stmt := fmt.Sprintf("SHOW FULL COLUMNS FROM `%s`", strings.ReplaceAll(table, "`", "``"))
	rows, err := g.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, wrapErr(g.Module, g.Schema, "introspect-columns", stmt, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, wrapErr(g.Module, g.Schema, "introspect-columns", stmt, err)
	}

	var out []ColumnInfo
	for rows.Next() {
		// SHOW FULL COLUMNS yields: Field, Type, Collation, Null, Key,
		// Default, Extra, Privileges, Comment.
		scanDest := make([]sql.NullString, len(cols))
		ptrs := make([]any, len(cols))
		for i := range scanDest {
			ptrs[i] = &scanDest[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, wrapErr(g.Module, g.Schema, "introspect-columns", stmt, err)
		}

		var c ColumnInfo
		for i, name := range cols {
			switch strings.ToLower(name) {
			case "field":
				c.Field = scanDest[i].String
			case "type":
				c.Type = scanDest[i].String
			case "null":
				c.Null = scanDest[i].String
			case "default":
				if scanDest[i].Valid {
					v := scanDest[i].String
					c.Default = &v
				}
			}
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(g.Module, g.Schema, "introspect-columns", stmt, err)
	}
	return out, nil
}

// IntrospectIndexes returns every index on table, PRIMARY included, with
// its column composition in key order.
func (g *Gateway) IntrospectIndexes(ctx context.Context, table string) ([]IndexInfo, error) {
	const q = `
		SELECT index_name, non_unique, column_name
		FROM information_schema.statistics
		WHERE table_schema = ? AND table_name = ?
		ORDER BY index_name, seq_in_index
	`
	rows, err := g.db.QueryContext(ctx, q, g.Schema, table)
	if err != nil {
		return nil, wrapErr(g.Module, g.Schema, "introspect-indexes", q, err)
	}
	defer rows.Close()

	byName := make(map[string]*IndexInfo)
	var order []string
	for rows.Next() {
		var name string
		var nonUnique int
		var column string
		if err := rows.Scan(&name, &nonUnique, &column); err != nil {
			return nil, wrapErr(g.Module, g.Schema, "introspect-indexes", q, err)
		}
		idx, ok := byName[name]
		if !ok {
			idx = &IndexInfo{Name: name, Unique: nonUnique == 0}
			byName[name] = idx
			order = append(order, name)
		}
		idx.Columns = append(idx.Columns, column)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(g.Module, g.Schema, "introspect-indexes", q, err)
	}

	out := make([]IndexInfo, 0, len(order))
	for _, name := range order {
		out = append(out, *byName[name])
	}
	return out, nil
}

// IntrospectForeignKeys lists the constraint names currently stored on
// table, queried from information_schema.REFERENTIAL_CONSTRAINTS as the
// spec requires (spec §4.4).
func (g *Gateway) IntrospectForeignKeys(ctx context.Context, table string) ([]ForeignKeyInfo, error) {
	const q = `
		SELECT constraint_name, table_name
		FROM information_schema.referential_constraints
		WHERE constraint_schema = ? AND table_name = ?
	`
	rows, err := g.db.QueryContext(ctx, q, g.Schema, table)
	if err != nil {
		return nil, wrapErr(g.Module, g.Schema, "introspect-foreign-keys", q, err)
	}
	defer rows.Close()

	var out []ForeignKeyInfo
	for rows.Next() {
		var fk ForeignKeyInfo
		if err := rows.Scan(&fk.ConstraintName, &fk.TableName); err != nil {
			return nil, wrapErr(g.Module, g.Schema, "introspect-foreign-keys", q, err)
		}
		out = append(out, fk)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(g.Module, g.Schema, "introspect-foreign-keys", q, err)
	}
	return out, nil
}
