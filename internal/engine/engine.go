// Package engine orchestrates deal synchronization and the month-end list
// maintenance job.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pkravchenko/b24-dealsync/internal/bitrix"
	"github.com/pkravchenko/b24-dealsync/internal/fields"
	"github.com/pkravchenko/b24-dealsync/internal/match"
	"github.com/pkravchenko/b24-dealsync/internal/metrics"
	"github.com/pkravchenko/b24-dealsync/internal/reconcile"
)

// Statuses reported for one synchronization run.
const (
	StatusOK   = "ok"
	StatusSkip = "skip"
)

// Skip reasons owned by the engine (the policy owns the rest).
const (
	ReasonNoProducts = "no products"
)

// RollConfig configures the month-end maintenance job.
type RollConfig struct {
	// ElementIDs are the list elements whose date property is rolled
	// forward every month.
	ElementIDs []string
	// DateTag is the property tag the month-end date is written to.
	DateTag string
	// Location is the civil timezone the month boundary is computed in.
	Location *time.Location
}

// Engine coordinates the gateway, matcher and policy for one deal event,
// and runs the month-end job.
type Engine struct {
	client   bitrix.Client
	matcher  *match.Matcher
	resolver *fields.Resolver
	policy   reconcile.Policy
	listID   int
	roll     RollConfig
	log      *slog.Logger
	nowFunc  func() time.Time

	mu       sync.Mutex
	lastRoll *RollResult
}

// Option configures the Engine.
type Option func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithNowFunc overrides the time source for testing.
func WithNowFunc(f func() time.Time) Option {
	return func(e *Engine) {
		e.nowFunc = f
	}
}

// New creates an Engine with injected dependencies.
func New(
	client bitrix.Client,
	matcher *match.Matcher,
	resolver *fields.Resolver,
	policy reconcile.Policy,
	listID int,
	roll RollConfig,
	opts ...Option,
) *Engine {
	e := &Engine{
		client:   client,
		matcher:  matcher,
		resolver: resolver,
		policy:   policy,
		listID:   listID,
		roll:     roll,
		log:      slog.Default(),
		nowFunc:  time.Now,
	}
	if e.roll.Location == nil {
		e.roll.Location = time.UTC
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SyncOptions modify one synchronization run.
type SyncOptions struct {
	// DryRun computes and reports the decision without writing.
	DryRun bool
	// Debug collects per-product lookup traces into the result.
	Debug bool
}

// SyncResult is the business outcome of one deal synchronization.
type SyncResult struct {
	Status  string         `json:"status"`
	Reason  string         `json:"reason,omitempty"`
	Updated bool           `json:"updated"`
	Note    string         `json:"note,omitempty"`
	Value   string         `json:"value,omitempty"`
	Debug   []*match.Trace `json:"debug,omitempty"`
}

// SyncDeal recomputes the controlling date for a deal and conditionally
// writes it to the target field. Per-product lookup failures shrink the
// matched date set but never abort the run; remote errors on the deal
// itself (and timeouts anywhere) are returned for the caller to classify.
func (e *Engine) SyncDeal(ctx context.Context, dealID int64, opts SyncOptions) (*SyncResult, error) {
	start := e.nowFunc()
	defer func() {
		metrics.SyncDuration.Observe(time.Since(start).Seconds())
	}()

	rows, err := e.client.DealProductRows(ctx, dealID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return e.finish(&SyncResult{Status: StatusSkip, Reason: ReasonNoProducts}), nil
	}

	var (
		dates  []string
		traces []*match.Trace
	)
	for _, row := range rows {
		date, trace, err := e.matcher.Match(ctx, row.ProductID)
		if err != nil {
			if bitrix.IsTimeout(err) {
				return nil, err
			}
			e.log.Warn("product lookup failed, continuing without it",
				"deal_id", dealID,
				"product_id", row.ProductID,
				"error", err,
			)
			continue
		}
		if opts.Debug {
			traces = append(traces, trace)
		}
		if date != "" {
			dates = append(dates, date)
		}
	}

	if len(dates) == 0 {
		return e.finish(&SyncResult{
			Status: StatusSkip,
			Reason: reconcile.ReasonNoDates,
			Debug:  traces,
		}), nil
	}

	deal, err := e.client.DealGet(ctx, dealID)
	if err != nil {
		return nil, err
	}

	decision := e.policy.Decide(deal, dates, e.nowFunc())

	if decision.Reason == reconcile.ReasonDatesInvalid {
		return e.finish(&SyncResult{
			Status: StatusSkip,
			Reason: decision.Reason,
			Debug:  traces,
		}), nil
	}

	if !decision.Update {
		return e.finish(&SyncResult{
			Status: StatusOK,
			Note:   decision.Reason,
			Value:  decision.Value,
			Debug:  traces,
		}), nil
	}

	if opts.DryRun {
		return e.finish(&SyncResult{
			Status: StatusOK,
			Note:   "dry_run",
			Value:  decision.Value,
			Debug:  traces,
		}), nil
	}

	ok, err := e.client.DealUpdateField(ctx, dealID, e.policy.TargetField, decision.Value)
	if err != nil {
		return nil, err
	}
	if ok {
		metrics.DealUpdatesTotal.Inc()
	}

	e.log.Info("deal date updated",
		"deal_id", dealID,
		"field", e.policy.TargetField,
		"value", decision.Value,
		"confirmed", ok,
	)
	return e.finish(&SyncResult{
		Status:  StatusOK,
		Updated: ok,
		Value:   decision.Value,
		Debug:   traces,
	}), nil
}

func (e *Engine) finish(res *SyncResult) *SyncResult {
	label := res.Reason
	if label == "" {
		label = res.Note
	}
	if label == "" {
		if res.Updated {
			label = "updated"
		} else {
			label = res.Status
		}
	}
	metrics.SyncRunsTotal.WithLabelValues(label).Inc()
	return res
}

// LastRoll returns the outcome of the most recent month-end run, or nil.
func (e *Engine) LastRoll() *RollResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastRoll
}

func (e *Engine) setLastRoll(r *RollResult) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastRoll = r
}
