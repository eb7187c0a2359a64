package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRollReportCollectsFailures(t *testing.T) {
	t.Parallel()

	ranAt := time.Date(2025, 9, 1, 0, 1, 0, 0, time.UTC)
	res := &RollResult{
		Value:   "30.09.2025",
		Updated: 1,
		Failed:  1,
		RanAt:   ranAt,
		Elements: []RollElementResult{
			{ElementID: "12", OK: true},
			{ElementID: "13", OK: false, Error: "remote error"},
		},
	}

	report := rollReport(res)

	assert.Equal(t, "30.09.2025", report.Value)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 1, report.Failed)
	assert.True(t, report.RanAt.Equal(ranAt))
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "13", report.Failures[0].ElementID)
	assert.Equal(t, "remote error", report.Failures[0].Error)
}
