package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkravchenko/b24-dealsync/internal/api/handlers"
	"github.com/pkravchenko/b24-dealsync/internal/bitrix"
	"github.com/pkravchenko/b24-dealsync/internal/engine"
)

// mockRoller is a test double for DateRoller.
type mockRoller struct {
	res  *engine.RollResult
	err  error
	last *engine.RollResult
}

func (m *mockRoller) RollDates(_ context.Context) (*engine.RollResult, error) {
	return m.res, m.err
}

func (m *mockRoller) LastRoll() *engine.RollResult {
	return m.last
}

// mockSchedule is a test double for ScheduleInspector.
type mockSchedule struct {
	entries []cron.Entry
}

func (m *mockSchedule) Entries() []cron.Entry {
	return m.entries
}

func registerAdmin(t *testing.T, syncer handlers.DealSyncer, roller handlers.DateRoller, sched handlers.ScheduleInspector) humatest.TestAPI {
	t.Helper()

	_, api := humatest.New(t)
	handlers.RegisterAdminRoutes(api,
		handlers.NewRollHandler(roller),
		handlers.NewReconcileHandler(syncer),
		handlers.NewJobsHandler(sched, roller),
	)
	return api
}

func TestRollDates_Success(t *testing.T) {
	t.Parallel()

	roller := &mockRoller{res: &engine.RollResult{Value: "28.02.2025", Updated: 2}}
	api := registerAdmin(t, &mockSyncer{}, roller, &mockSchedule{})

	resp := api.Post("/api/v1/roll-dates")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "28.02.2025")
	assert.Contains(t, resp.Body.String(), `"updated":2`)
}

func TestRollDates_Error(t *testing.T) {
	t.Parallel()

	roller := &mockRoller{err: errors.New("context canceled")}
	api := registerAdmin(t, &mockSyncer{}, roller, &mockSchedule{})

	resp := api.Post("/api/v1/roll-dates")
	require.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Contains(t, resp.Body.String(), "month-end roll failed")
}

func TestReconcileDeal_Success(t *testing.T) {
	t.Parallel()

	syncer := &mockSyncer{res: &engine.SyncResult{Status: "ok", Updated: true, Value: "2025-09-01"}}
	api := registerAdmin(t, syncer, &mockRoller{}, &mockSchedule{})

	resp := api.Post("/api/v1/deals/301/reconcile?dry_run=true")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, int64(301), syncer.dealID)
	assert.True(t, syncer.opts.DryRun)
	assert.Contains(t, resp.Body.String(), "2025-09-01")
}

func TestReconcileDeal_Timeout(t *testing.T) {
	t.Parallel()

	syncer := &mockSyncer{
		err: &bitrix.TransportError{Method: "crm.deal.get", Timeout: true, Err: context.DeadlineExceeded},
	}
	api := registerAdmin(t, syncer, &mockRoller{}, &mockSchedule{})

	resp := api.Post("/api/v1/deals/301/reconcile")
	require.Equal(t, http.StatusGatewayTimeout, resp.Code)
}

func TestReconcileDeal_RemoteError(t *testing.T) {
	t.Parallel()

	syncer := &mockSyncer{err: &bitrix.APIError{Method: "crm.deal.update", Code: "ACCESS_DENIED"}}
	api := registerAdmin(t, syncer, &mockRoller{}, &mockSchedule{})

	resp := api.Post("/api/v1/deals/301/reconcile")
	require.Equal(t, http.StatusBadGateway, resp.Code)
	assert.Contains(t, resp.Body.String(), "bitrix request failed")
}

func TestListJobs(t *testing.T) {
	t.Parallel()

	next := time.Date(2025, 9, 1, 0, 1, 0, 0, time.UTC)
	sched := &mockSchedule{entries: []cron.Entry{{Next: next}}}
	roller := &mockRoller{last: &engine.RollResult{Value: "31.08.2025", Updated: 3}}
	api := registerAdmin(t, &mockSyncer{}, roller, sched)

	resp := api.Get("/api/v1/jobs")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "2025-09-01T00:01:00Z")
	assert.Contains(t, resp.Body.String(), "31.08.2025")
}

func TestListJobs_Empty(t *testing.T) {
	t.Parallel()

	api := registerAdmin(t, &mockSyncer{}, &mockRoller{}, &mockSchedule{})

	resp := api.Get("/api/v1/jobs")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"entries":[]`)
}
