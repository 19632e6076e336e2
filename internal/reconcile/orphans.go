package reconcile

import (
	"fmt"
	"sort"
	"strings"

	"dbsync/internal/interact"
	"dbsync/internal/sqlgen"
)

// planOrphanDrops implements §4.5.2: given one module's orphan tables, ask
// the Interaction Shim how to dispose of them and return the DDL
// statements to run plus the tables that were left untouched.
func planOrphanDrops(shim interact.Shim, module string, orphans []string) (statements []string, skipped []string, err error) {
	if len(orphans) == 0 {
		return nil, nil, nil
	}
	sorted := append([]string(nil), orphans...)
	sort.Strings(sorted)

	for {
		decision, err := shim.Confirm(
			fmt.Sprintf("module %q has %d orphan table(s): %s. Drop them?", module, len(sorted), strings.Join(sorted, ", ")),
			interact.DecisionYes, interact.DecisionAll, interact.DecisionNone, interact.DecisionList,
		)
		if err != nil {
			return nil, nil, err
		}

		switch decision {
		case interact.DecisionList:
			for _, t := range sorted {
				shim.Report("orphan-tables", "would drop: "+t, interact.LevelInfo)
			}
			continue

		case interact.DecisionAll:
			return []string{sqlgen.DropTable(sorted...)}, nil, nil

		case interact.DecisionNone:
			return nil, sorted, nil

		case interact.DecisionYes:
			return planOrphanDropsOneByOne(shim, sorted)

		default:
			return nil, sorted, nil
		}
	}
}

func planOrphanDropsOneByOne(shim interact.Shim, orphans []string) (statements []string, skipped []string, err error) {
	for _, table := range orphans {
		decision, err := shim.Confirm(fmt.Sprintf("drop orphan table %q?", table), interact.DecisionYes, interact.DecisionNo)
		if err != nil {
			return nil, nil, err
		}
		if decision == interact.DecisionYes {
			statements = append(statements, sqlgen.DropTable(table))
		} else {
			skipped = append(skipped, table)
		}
	}
	return statements, skipped, nil
}
