package interact

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInteractiveConfirmAcceptsAlias(t *testing.T) {
	in := strings.NewReader("y\n")
	var out bytes.Buffer
	s := NewInteractive(in, &out)

	decision, err := s.Confirm("proceed?", DecisionYes, DecisionNo)
	require.NoError(t, err)
	assert.Equal(t, DecisionYes, decision)
}

func TestInteractiveConfirmBlankLineUsesDefault(t *testing.T) {
	in := strings.NewReader("\n")
	var out bytes.Buffer
	s := NewInteractive(in, &out)

	decision, err := s.Confirm("proceed?", DecisionAll, DecisionNone)
	require.NoError(t, err)
	assert.Equal(t, DecisionAll, decision)
}

func TestInteractiveConfirmRepromptsOnBadInput(t *testing.T) {
	in := strings.NewReader("bogus\nall\n")
	var out bytes.Buffer
	s := NewInteractive(in, &out)

	decision, err := s.Confirm("proceed?", DecisionAll, DecisionNone)
	require.NoError(t, err)
	assert.Equal(t, DecisionAll, decision)
	assert.Contains(t, out.String(), "unrecognized answer")
}

func TestInteractiveReportWritesSection(t *testing.T) {
	var out bytes.Buffer
	s := NewInteractive(strings.NewReader(""), &out)
	s.Report("phase", "did a thing", LevelInfo)
	assert.Contains(t, out.String(), "phase")
	assert.Contains(t, out.String(), "did a thing")
}

func TestHeadlessConfirmMasterPromptDefaultsByAssumeYes(t *testing.T) {
	var out bytes.Buffer
	yes := NewHeadless(&out, true)
	decision, err := yes.Confirm("Ready to proceed?", DecisionYes, DecisionNo)
	require.NoError(t, err)
	assert.Equal(t, DecisionYes, decision)

	out.Reset()
	no := NewHeadless(&out, false)
	decision, err = no.Confirm("Ready to proceed?", DecisionYes, DecisionNo)
	require.NoError(t, err)
	assert.Equal(t, DecisionNo, decision)
}

func TestHeadlessConfirmOrphanDispositionDefaultsByAssumeYes(t *testing.T) {
	var out bytes.Buffer
	yes := NewHeadless(&out, true)
	decision, err := yes.Confirm("drop orphans?", DecisionYes, DecisionAll, DecisionNone, DecisionList)
	require.NoError(t, err)
	assert.Equal(t, DecisionAll, decision)

	out.Reset()
	no := NewHeadless(&out, false)
	decision, err = no.Confirm("drop orphans?", DecisionYes, DecisionAll, DecisionNone, DecisionList)
	require.NoError(t, err)
	assert.Equal(t, DecisionNone, decision)
}

func TestHeadlessConfirmRecordsDecisionThroughReport(t *testing.T) {
	var out bytes.Buffer
	s := NewHeadless(&out, true)
	_, err := s.Confirm("proceed?", DecisionYes, DecisionNo)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "headless default")
}

func TestHeadlessReportFormat(t *testing.T) {
	var out bytes.Buffer
	s := NewHeadless(&out, false)
	s.Report("phase", "message", LevelWarn)
	assert.Equal(t, "[WARN] phase: message\n", out.String())
}
