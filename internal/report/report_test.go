package report

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbsync/internal/reconcile"
)

func sampleReport() *reconcile.Report {
	return &reconcile.Report{
		Operations: []reconcile.Operation{
			{Kind: reconcile.OperationExecuted, Phase: "create-tables", Module: "blog", Table: "posts", Action: reconcile.ActionCreate, SQL: "CREATE TABLE posts (...);"},
			{Kind: reconcile.OperationSkipped, Phase: "drop-orphans", Module: "blog", Table: "legacy", Action: reconcile.ActionDrop, SQL: "DROP TABLE legacy;"},
		},
	}
}

func TestNewFormatterDefaultsToHuman(t *testing.T) {
	f, err := NewFormatter("")
	require.NoError(t, err)
	assert.IsType(t, humanFormatter{}, f)
}

func TestNewFormatterRejectsUnknown(t *testing.T) {
	_, err := NewFormatter("xml")
	assert.Error(t, err)
}

func TestHumanFormatterEmptyReport(t *testing.T) {
	f := humanFormatter{}
	out, err := f.Format(&reconcile.Report{})
	require.NoError(t, err)
	assert.Contains(t, out, "No operations recorded")
}

func TestHumanFormatterIncludesExecutedAndSkipped(t *testing.T) {
	f := humanFormatter{}
	out, err := f.Format(sampleReport())
	require.NoError(t, err)
	assert.Contains(t, out, "Executed")
	assert.Contains(t, out, "Skipped")
	assert.Contains(t, out, "posts")
	assert.Contains(t, out, "legacy")
}

func TestSummaryFormatterCounts(t *testing.T) {
	f := summaryFormatter{}
	out, err := f.Format(sampleReport())
	require.NoError(t, err)
	assert.Contains(t, out, "Executed: 1")
	assert.Contains(t, out, "Skipped:  1")
}

func TestSummaryFormatterIncludesActionBreakdown(t *testing.T) {
	f := summaryFormatter{}
	out, err := f.Format(sampleReport())
	require.NoError(t, err)
	assert.Contains(t, out, "By action:")
	assert.Contains(t, out, "1 tables created")
	assert.Contains(t, out, "1 tables removed")
}

func TestJSONFormatterShape(t *testing.T) {
	f := jsonFormatter{}
	out, err := f.Format(sampleReport())
	require.NoError(t, err)

	var payload reportPayload
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.Equal(t, 1, payload.Summary.Executed)
	assert.Equal(t, 1, payload.Summary.Skipped)
	require.Len(t, payload.Operations, 2)
	assert.Equal(t, "create", payload.Operations[0].Action)
	assert.Equal(t, "drop", payload.Operations[1].Action)
}
