package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLadderBoundaries(t *testing.T) {
	const limit = 1000.0

	cases := []struct {
		predicted float64
		action    Action
	}{
		{0, ActionSafe},
		{849.99, ActionSafe},
		{850, ActionMonitor},
		{899.99, ActionMonitor},
		{900, ActionCaution},
		{949.99, ActionCaution},
		{950, ActionCleanup},
		{2000, ActionCleanup},
	}
	for _, tc := range cases {
		ev := Evaluate(tc.predicted, limit)
		assert.Equal(t, tc.action, ev.Action, "predicted=%v", tc.predicted)
	}
}

func TestNonPositiveLimitIsSafe(t *testing.T) {
	ev := Evaluate(5000, 0)
	assert.Equal(t, ActionSafe, ev.Action)
	assert.Zero(t, ev.AmountToDeleteMB)
	assert.Zero(t, ev.ProjectedPct)

	ev = Evaluate(5000, -10)
	assert.Equal(t, ActionSafe, ev.Action)
}

func TestSafeEvaluation(t *testing.T) {
	ev := Evaluate(800, 1000)

	assert.Equal(t, ActionSafe, ev.Action)
	assert.Equal(t, 80.0, ev.ProjectedPct)
	assert.Zero(t, ev.AmountToDeleteMB)
}

func TestCleanupTargetsSeventyPercent(t *testing.T) {
	ev := Evaluate(980, 1000)

	assert.Equal(t, ActionCleanup, ev.Action)
	assert.Equal(t, 98.0, ev.ProjectedPct)
	assert.InDelta(t, 280.0, ev.AmountToDeleteMB, 1e-9)
}

func TestMonitorAndCautionDeleteNothing(t *testing.T) {
	assert.Zero(t, Evaluate(870, 1000).AmountToDeleteMB)
	assert.Zero(t, Evaluate(920, 1000).AmountToDeleteMB)
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "SAFE", ActionSafe.String())
	assert.Equal(t, "MONITOR", ActionMonitor.String())
	assert.Equal(t, "CAUTION", ActionCaution.String())
	assert.Equal(t, "CLEANUP", ActionCleanup.String())
}
