package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/robfig/cron/v3"

	"github.com/pkravchenko/b24-dealsync/internal/bitrix"
	"github.com/pkravchenko/b24-dealsync/internal/engine"
)

// DateRoller runs the month-end maintenance job.
type DateRoller interface {
	RollDates(ctx context.Context) (*engine.RollResult, error)
	LastRoll() *engine.RollResult
}

// ScheduleInspector exposes the registered cron entries.
type ScheduleInspector interface {
	Entries() []cron.Entry
}

// RollHandler handles manual month-end roll requests.
type RollHandler struct {
	roller DateRoller
}

// NewRollHandler creates a new RollHandler.
func NewRollHandler(r DateRoller) *RollHandler {
	return &RollHandler{roller: r}
}

// RollOutput is the response body for the roll-dates endpoint.
type RollOutput struct {
	Body engine.RollResult
}

// Roll runs the month-end date roll immediately.
func (h *RollHandler) Roll(ctx context.Context, _ *struct{}) (*RollOutput, error) {
	res, err := h.roller.RollDates(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("month-end roll failed: " + err.Error())
	}
	return &RollOutput{Body: *res}, nil
}

// ReconcileHandler handles manual per-deal synchronization requests.
type ReconcileHandler struct {
	syncer DealSyncer
}

// NewReconcileHandler creates a new ReconcileHandler.
func NewReconcileHandler(s DealSyncer) *ReconcileHandler {
	return &ReconcileHandler{syncer: s}
}

// ReconcileInput is the request for a manual deal reconciliation.
type ReconcileInput struct {
	DealID int64 `path:"deal_id" doc:"CRM deal identifier"`
	DryRun bool  `query:"dry_run" doc:"Compute the decision without writing"`
	Debug  bool  `query:"debug" doc:"Include per-product lookup traces"`
}

// ReconcileOutput is the response body for a manual deal reconciliation.
type ReconcileOutput struct {
	Body engine.SyncResult
}

// Reconcile runs one deal synchronization on demand.
func (h *ReconcileHandler) Reconcile(ctx context.Context, input *ReconcileInput) (*ReconcileOutput, error) {
	res, err := h.syncer.SyncDeal(ctx, input.DealID, engine.SyncOptions{
		DryRun: input.DryRun,
		Debug:  input.Debug,
	})
	if err != nil {
		if bitrix.IsTimeout(err) {
			return nil, huma.Error504GatewayTimeout("bitrix timed out: " + err.Error())
		}
		return nil, huma.Error502BadGateway("bitrix request failed: " + err.Error())
	}
	return &ReconcileOutput{Body: *res}, nil
}

// JobsHandler reports the scheduler state and last month-end outcome.
type JobsHandler struct {
	schedule ScheduleInspector
	roller   DateRoller
}

// NewJobsHandler creates a new JobsHandler.
func NewJobsHandler(s ScheduleInspector, r DateRoller) *JobsHandler {
	return &JobsHandler{schedule: s, roller: r}
}

// JobEntry is one scheduled job as exposed by the API.
type JobEntry struct {
	Next time.Time `json:"next" doc:"Next scheduled firing"`
	Prev time.Time `json:"prev,omitzero" doc:"Previous firing, zero when never fired"`
}

// JobsOutput is the response body for the jobs endpoint.
type JobsOutput struct {
	Body struct {
		Entries  []JobEntry         `json:"entries"`
		LastRoll *engine.RollResult `json:"last_roll,omitempty"`
	}
}

// Jobs returns the registered schedule and the most recent roll outcome.
func (h *JobsHandler) Jobs(_ context.Context, _ *struct{}) (*JobsOutput, error) {
	resp := &JobsOutput{}
	resp.Body.Entries = []JobEntry{}
	for _, e := range h.schedule.Entries() {
		resp.Body.Entries = append(resp.Body.Entries, JobEntry{Next: e.Next, Prev: e.Prev})
	}
	resp.Body.LastRoll = h.roller.LastRoll()
	return resp, nil
}

// RegisterAdminRoutes registers the admin endpoints with the Huma API.
func RegisterAdminRoutes(api huma.API, rollH *RollHandler, recH *ReconcileHandler, jobsH *JobsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "roll-dates",
		Method:      http.MethodPost,
		Path:        "/api/v1/roll-dates",
		Summary:     "Run the month-end date roll now",
		Description: "Writes the last day of the current month into the date property " +
			"of every configured list element.",
		Tags:   []string{"maintenance"},
		Errors: []int{http.StatusInternalServerError},
	}, rollH.Roll)

	huma.Register(api, huma.Operation{
		OperationID: "reconcile-deal",
		Method:      http.MethodPost,
		Path:        "/api/v1/deals/{deal_id}/reconcile",
		Summary:     "Reconcile one deal now",
		Description: "Recomputes the controlling date for a deal and conditionally writes it, " +
			"exactly as the webhook path would.",
		Tags:   []string{"deals"},
		Errors: []int{http.StatusBadGateway, http.StatusGatewayTimeout},
	}, recH.Reconcile)

	huma.Register(api, huma.Operation{
		OperationID: "list-jobs",
		Method:      http.MethodGet,
		Path:        "/api/v1/jobs",
		Summary:     "List scheduled jobs",
		Description: "Returns the registered schedule entries and the outcome of the most " +
			"recent month-end roll.",
		Tags: []string{"maintenance"},
	}, jobsH.Jobs)
}
