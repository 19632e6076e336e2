// Package reconcile implements the core reconciliation engine: the
// phased algorithm that diffs the data model against the live database
// and emits the DDL needed to converge them.
package reconcile

import (
	"context"
	"fmt"

	"dbsync/internal/caseconv"
	"dbsync/internal/gateway"
	"dbsync/internal/interact"
	"dbsync/internal/model"
	"dbsync/internal/preflight"
	"dbsync/internal/sqlgen"
)

const (
	phaseValidate         = "validate"
	phaseIntegrityProbe   = "integrity-probe"
	phaseConfirm          = "confirm"
	phaseDisableFKChecks  = "disable-fk-checks"
	phaseIntrospect       = "introspect"
	phaseDropOrphans      = "drop-orphans"
	phaseCreateTables     = "create-tables"
	phaseDropStaleFKs     = "drop-stale-foreign-keys"
	phaseReconcileColumns = "reconcile-columns"
	phaseReconcileIndexes = "reconcile-indexes"
	phaseAddForeignKeys   = "add-foreign-keys"
	phaseRestoreAndCommit = "restore-and-commit"
)

// Engine runs the phased reconciliation algorithm once, end to end
// (spec §4.5.1).
type Engine struct {
	DataModel  *model.DataModel
	Conn       *model.ConnectionConfig
	Policy     caseconv.Policy
	Shim       interact.Shim
	Classifier *preflight.Classifier
	DryRun     bool

	state         State
	gateways      map[string]*gateway.Gateway
	fksByName     map[string][]expectedForeignKey
	pendingCreate map[string]map[string]bool // module -> table -> not yet actually created this run
}

// NewEngine builds an Engine with its required collaborators.
func NewEngine(dataModel *model.DataModel, conn *model.ConnectionConfig, policy caseconv.Policy, shim interact.Shim, dryRun bool) *Engine {
	return &Engine{
		DataModel:  dataModel,
		Conn:       conn,
		Policy:     policy,
		Shim:       shim,
		Classifier: preflight.NewClassifier(),
		DryRun:     dryRun,
		state:      StateIdle,
	}
}

// State reports where in the state machine the run currently is.
func (eng *Engine) State() State {
	return eng.state
}

// Run executes all eleven phases in order and returns the accumulated
// Report, or the first typed error encountered.
func (eng *Engine) Run(ctx context.Context) (*Report, error) {
	report := &Report{}

	if err := eng.phaseValidate(); err != nil {
		eng.state = StateFailed
		return report, err
	}
	eng.state = StateValidated

	if err := eng.connectAll(ctx); err != nil {
		eng.state = StateFailed
		return report, err
	}
	defer eng.closeAll()

	if err := eng.phaseIntegrityProbe(ctx); err != nil {
		return eng.abort(ctx, report, err)
	}

	if err := eng.phaseConfirm(report); err != nil {
		return eng.abort(ctx, report, err)
	}

	if err := eng.phaseDisableFKChecks(ctx, report); err != nil {
		return eng.abort(ctx, report, err)
	}

	tablesExisting, tablesCreate, tablesRemove, err := eng.phaseIntrospect(ctx)
	if err != nil {
		return eng.abort(ctx, report, err)
	}
	eng.state = StateIntrospected
	_ = tablesExisting

	eng.pendingCreate = make(map[string]map[string]bool, len(tablesCreate))
	for module, tables := range tablesCreate {
		set := make(map[string]bool, len(tables))
		for _, t := range tables {
			set[t] = true
		}
		eng.pendingCreate[module] = set
	}

	eng.fksByName = make(map[string][]expectedForeignKey, len(eng.DataModel.EntityOrder))
	for _, name := range eng.DataModel.EntityOrder {
		eng.fksByName[name] = expectedForeignKeys(eng.DataModel.Entity(name), eng.Policy)
	}

	eng.state = StateMutating
	if err := eng.phaseDropOrphans(ctx, report, tablesRemove); err != nil {
		return eng.abort(ctx, report, err)
	}
	if err := eng.phaseCreateTables(ctx, report, tablesCreate); err != nil {
		return eng.abort(ctx, report, err)
	}

	if err := eng.phaseDropStaleForeignKeys(ctx, report); err != nil {
		return eng.abort(ctx, report, err)
	}
	if err := eng.phaseReconcileColumns(ctx, report); err != nil {
		return eng.abort(ctx, report, err)
	}
	if err := eng.phaseReconcileIndexes(ctx, report); err != nil {
		return eng.abort(ctx, report, err)
	}
	if err := eng.phaseAddForeignKeys(ctx, report); err != nil {
		return eng.abort(ctx, report, err)
	}

	eng.state = StateCommitting
	if err := eng.phaseRestoreAndCommit(ctx, report); err != nil {
		return eng.abort(ctx, report, err)
	}

	eng.state = StateDone
	return report, nil
}

func (eng *Engine) abort(ctx context.Context, report *Report, cause error) (*Report, error) {
	eng.state = StateAborting
	for _, module := range eng.Conn.Modules() {
		gw, ok := eng.gateways[module]
		if !ok {
			continue
		}
		if restoreErr := gw.SetForeignKeyChecks(ctx, true); restoreErr != nil {
			eng.Shim.Report(phaseRestoreAndCommit, fmt.Sprintf("module %q: failed to restore FK checks during abort: %v", module, restoreErr), interact.LevelError)
		}
	}
	eng.state = StateFailed
	return report, cause
}

func (eng *Engine) phaseValidate() error {
	if err := model.Validate(eng.DataModel, eng.Conn); err != nil {
		return newError(KindConfigError, phaseValidate, "", "model or connection config failed validation", err)
	}
	return nil
}

func (eng *Engine) connectAll(ctx context.Context) error {
	eng.gateways = make(map[string]*gateway.Gateway, len(eng.Conn.Modules()))
	for _, module := range eng.Conn.Modules() {
		gw, err := gateway.Connect(ctx, module, eng.Conn)
		if err != nil {
			return newError(KindConnectError, phaseValidate, module, "failed to connect", err)
		}
		eng.gateways[module] = gw
	}
	return nil
}

func (eng *Engine) closeAll() {
	for _, module := range eng.Conn.Modules() {
		if gw, ok := eng.gateways[module]; ok {
			_ = gw.Close()
		}
	}
}

func (eng *Engine) phaseIntegrityProbe(ctx context.Context) error {
	for _, module := range eng.Conn.Modules() {
		gw := eng.gateways[module]
		ok, err := gw.EngineSupportsInnoDB(ctx)
		if err != nil {
			return newError(KindIntegrityError, phaseIntegrityProbe, module, "failed to read default storage engine", err)
		}
		if !ok {
			return newError(KindIntegrityError, phaseIntegrityProbe, module, "default storage engine is not InnoDB", nil)
		}
	}
	return nil
}

// phaseConfirm asks the master "Ready to proceed?" question (spec §6)
// before any mutation begins. A "no" answer is the UserCancel source
// spec §7 documents; nothing has been mutated yet, so aborting here only
// needs to restore FK checks on connections that never had them disabled,
// which is a harmless no-op.
func (eng *Engine) phaseConfirm(report *Report) error {
	decision, err := eng.Shim.Confirm("Ready to proceed?", interact.DecisionYes, interact.DecisionNo)
	if err != nil {
		return newError(KindUserCancel, phaseConfirm, "", "failed to read master confirmation", err)
	}
	if decision != interact.DecisionYes {
		report.note(phaseConfirm, "operator answered no to the master prompt; no changes were made")
		return newError(KindUserCancel, phaseConfirm, "", "operator answered no to the master prompt", nil)
	}
	return nil
}

func (eng *Engine) phaseDisableFKChecks(ctx context.Context, report *Report) error {
	for _, module := range eng.Conn.Modules() {
		gw := eng.gateways[module]
		if err := gw.SetForeignKeyChecks(ctx, false); err != nil {
			return newError(KindDdlError, phaseDisableFKChecks, module, "failed to disable foreign key checks", err)
		}
		report.note(phaseDisableFKChecks, fmt.Sprintf("module %q: foreign key checks disabled", module))
	}
	return nil
}

// phaseIntrospect computes tablesExisting/tablesCreate/tablesRemove per
// spec step 4, keyed by module. Every list is built by deterministic
// iteration over the model (spec §5): tablesCreate follows
// DataModel.EntityOrder, and both outer loops follow
// ConnectionConfig.Modules() rather than ranging over a Go map.
func (eng *Engine) phaseIntrospect(ctx context.Context) (existing, create, remove map[string][]string, err error) {
	existing = make(map[string][]string)
	create = make(map[string][]string)
	remove = make(map[string][]string)

	existingByModule := make(map[string]map[string]bool)
	for _, module := range eng.Conn.Modules() {
		gw := eng.gateways[module]
		tables, ierr := gw.IntrospectTables(ctx)
		if ierr != nil {
			return nil, nil, nil, newError(KindIntrospectionError, phaseIntrospect, module, "failed to introspect tables", ierr)
		}
		set := make(map[string]bool, len(tables))
		for _, t := range tables {
			set[t.Name] = true
			existing[module] = append(existing[module], t.Name)
		}
		existingByModule[module] = set
	}

	expectedByModule := make(map[string]map[string]bool)
	for _, name := range eng.DataModel.EntityOrder {
		e := eng.DataModel.Entity(name)
		table := caseconv.Normalize(name, eng.Policy)
		if expectedByModule[e.Module] == nil {
			expectedByModule[e.Module] = make(map[string]bool)
		}
		if expectedByModule[e.Module][table] {
			continue
		}
		expectedByModule[e.Module][table] = true
		if !existingByModule[e.Module][table] {
			create[e.Module] = append(create[e.Module], table)
		}
	}

	for _, module := range eng.Conn.Modules() {
		expected := expectedByModule[module]
		for _, table := range existing[module] {
			if !expected[table] {
				remove[module] = append(remove[module], table)
			}
		}
	}
	return existing, create, remove, nil
}

func (eng *Engine) phaseDropOrphans(ctx context.Context, report *Report, tablesRemove map[string][]string) error {
	for _, module := range eng.Conn.Modules() {
		orphans := tablesRemove[module]
		if len(orphans) == 0 {
			continue
		}
		gw := eng.gateways[module]
		statements, skipped, err := planOrphanDrops(eng.Shim, module, orphans)
		if err != nil {
			return newError(KindUserCancel, phaseDropOrphans, module, "failed to resolve orphan-table disposition", err)
		}
		for _, table := range skipped {
			report.recordSkipped(phaseDropOrphans, module, table, ActionDrop, sqlgen.DropTable(table))
		}
		for _, stmt := range statements {
			if err := eng.execute(ctx, gw, phaseDropOrphans, "", ActionDrop, stmt, report); err != nil {
				return err
			}
		}
	}
	return nil
}

func (eng *Engine) phaseCreateTables(ctx context.Context, report *Report, tablesCreate map[string][]string) error {
	pkCol := caseconv.PrimaryKeyColumn(eng.Policy)
	for _, module := range eng.Conn.Modules() {
		tables := tablesCreate[module]
		if len(tables) == 0 {
			continue
		}
		gw := eng.gateways[module]
		for _, table := range tables {
			stmt := sqlgen.CreateTable(table, pkCol)
			if err := eng.execute(ctx, gw, phaseCreateTables, table, ActionCreate, stmt, report); err != nil {
				return err
			}
		}
	}
	return nil
}

func (eng *Engine) forEachEntity(fn func(name string, e *model.EntityDefinition, table string, gw *gateway.Gateway) error) error {
	for _, name := range eng.DataModel.EntityOrder {
		e := eng.DataModel.Entity(name)
		gw, ok := eng.gateways[e.Module]
		if !ok {
			return fmt.Errorf("reconcile: entity %q references module %q with no open connection", name, e.Module)
		}
		table := caseconv.Normalize(name, eng.Policy)
		if err := fn(name, e, table, gw); err != nil {
			return err
		}
	}
	return nil
}

// isPendingCreate reports whether table was queued for creation this run
// but, because the engine is in DryRun mode, was never actually created
// (phaseCreateTables only classifies and records it as skipped). Later
// phases must not introspect such a table; it does not exist yet.
func (eng *Engine) isPendingCreate(module, table string) bool {
	if !eng.DryRun {
		return false
	}
	return eng.pendingCreate[module][table]
}

// columnsFor returns the columns a later phase should reconcile against:
// a real introspection for a table that exists, or the synthetic
// skeleton (just the primary key column, as phaseCreateTables would have
// produced) for a table this dry run never actually created.
func (eng *Engine) columnsFor(ctx context.Context, gw *gateway.Gateway, module, table string) ([]gateway.ColumnInfo, error) {
	if eng.isPendingCreate(module, table) {
		return []gateway.ColumnInfo{{Field: caseconv.PrimaryKeyColumn(eng.Policy), Type: "bigint", Null: "NO"}}, nil
	}
	return gw.IntrospectColumns(ctx, table)
}

func (eng *Engine) indexesFor(ctx context.Context, gw *gateway.Gateway, module, table string) ([]gateway.IndexInfo, error) {
	if eng.isPendingCreate(module, table) {
		return nil, nil
	}
	return gw.IntrospectIndexes(ctx, table)
}

func (eng *Engine) foreignKeysFor(ctx context.Context, gw *gateway.Gateway, module, table string) ([]gateway.ForeignKeyInfo, error) {
	if eng.isPendingCreate(module, table) {
		return nil, nil
	}
	return gw.IntrospectForeignKeys(ctx, table)
}

func (eng *Engine) phaseDropStaleForeignKeys(ctx context.Context, report *Report) error {
	return eng.forEachEntity(func(name string, e *model.EntityDefinition, table string, gw *gateway.Gateway) error {
		existing, err := eng.foreignKeysFor(ctx, gw, e.Module, table)
		if err != nil {
			return newError(KindIntrospectionError, phaseDropStaleFKs, e.Module, "failed to introspect foreign keys for "+table, err)
		}
		statements := dropStaleForeignKeys(gw.Schema, table, existing, eng.fksByName[name])
		for _, stmt := range statements {
			if err := eng.execute(ctx, gw, phaseDropStaleFKs, table, ActionDrop, stmt, report); err != nil {
				return err
			}
		}
		return nil
	})
}

func (eng *Engine) phaseReconcileColumns(ctx context.Context, report *Report) error {
	return eng.forEachEntity(func(name string, e *model.EntityDefinition, table string, gw *gateway.Gateway) error {
		rows, err := eng.columnsFor(ctx, gw, e.Module, table)
		if err != nil {
			return newError(KindIntrospectionError, phaseReconcileColumns, e.Module, "failed to introspect columns for "+table, err)
		}
		for _, stmt := range reconcileColumns(rows, table, e, eng.Policy, eng.fksByName[name]) {
			if err := eng.execute(ctx, gw, phaseReconcileColumns, table, stmt.Action, stmt.SQL, report); err != nil {
				return err
			}
		}
		return nil
	})
}

func (eng *Engine) phaseReconcileIndexes(ctx context.Context, report *Report) error {
	return eng.forEachEntity(func(name string, e *model.EntityDefinition, table string, gw *gateway.Gateway) error {
		rows, err := eng.indexesFor(ctx, gw, e.Module, table)
		if err != nil {
			return newError(KindIntrospectionError, phaseReconcileIndexes, e.Module, "failed to introspect indexes for "+table, err)
		}
		for _, stmt := range reconcileIndexes(rows, table, e, eng.Policy, eng.fksByName[name]) {
			if err := eng.execute(ctx, gw, phaseReconcileIndexes, table, stmt.Action, stmt.SQL, report); err != nil {
				return err
			}
		}
		return nil
	})
}

func (eng *Engine) phaseAddForeignKeys(ctx context.Context, report *Report) error {
	return eng.forEachEntity(func(name string, e *model.EntityDefinition, table string, gw *gateway.Gateway) error {
		statements, err := addExpectedForeignKeys(table, e, eng.DataModel, eng.Policy, eng.fksByName[name])
		if err != nil {
			return newError(KindDdlError, phaseAddForeignKeys, e.Module, "failed to build foreign key statements for "+table, err)
		}
		for _, stmt := range statements {
			if err := eng.execute(ctx, gw, phaseAddForeignKeys, table, ActionAdd, stmt, report); err != nil {
				return err
			}
		}
		return nil
	})
}

func (eng *Engine) phaseRestoreAndCommit(ctx context.Context, report *Report) error {
	for _, module := range eng.Conn.Modules() {
		gw := eng.gateways[module]
		if err := gw.SetForeignKeyChecks(ctx, true); err != nil {
			return newError(KindDdlError, phaseRestoreAndCommit, module, "failed to restore foreign key checks", err)
		}
		report.note(phaseRestoreAndCommit, fmt.Sprintf("module %q: foreign key checks restored", module))
	}
	return nil
}

// execute classifies a statement's risk, surfaces any finding through the
// Interaction Shim, and then either runs it or records it as skipped when
// the engine is in dry-run mode.
func (eng *Engine) execute(ctx context.Context, gw *gateway.Gateway, phase, table string, action OperationAction, stmt string, report *Report) error {
	if finding := eng.Classifier.Classify(stmt); finding != nil {
		eng.Shim.Report(phase, fmt.Sprintf("%s: %s", finding.Reason, stmt), interact.LevelWarn)
	}

	if eng.DryRun {
		report.recordSkipped(phase, gw.Module, table, action, stmt)
		return nil
	}

	if err := gw.Execute(ctx, stmt); err != nil {
		return newError(KindDdlError, phase, gw.Module, "statement failed: "+stmt, err)
	}
	report.recordExecuted(phase, gw.Module, table, action, stmt)
	return nil
}
