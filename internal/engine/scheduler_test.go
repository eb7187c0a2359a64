package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkravchenko/b24-dealsync/internal/engine"
	"github.com/pkravchenko/b24-dealsync/pkg/logger"
)

func TestNewSchedulerRegistersMonthlyEntry(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(&fakeClient{}, rollConfig(), time.Now())
	s, err := engine.NewScheduler(eng, 1, 0, 1, moscow, logger.Nop())
	require.NoError(t, err)

	entries := s.Entries()
	require.Len(t, entries, 1)

	// First firing after an arbitrary moment is 00:01 Moscow on the first
	// of the following month.
	after := time.Date(2025, 8, 15, 12, 0, 0, 0, moscow)
	next := entries[0].Schedule.Next(after)
	assert.Equal(t, time.Date(2025, 9, 1, 0, 1, 0, 0, moscow).Unix(), next.Unix())
}

func TestNewSchedulerRejectsBadSpec(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(&fakeClient{}, rollConfig(), time.Now())
	_, err := engine.NewScheduler(eng, 77, 0, 1, moscow, logger.Nop())
	assert.Error(t, err)
}
