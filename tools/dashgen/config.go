package main

import "errors"

// KnownMetrics is the set of metric names exported by b24-dealsync plus
// recording rule names referenced in dashboards and alerts.
var KnownMetrics = map[string]bool{
	// HTTP metrics.
	"b24sync_http_request_duration_seconds": true,
	"b24sync_http_requests_total":           true,

	// Health metrics.
	"b24sync_healthz_up": true,
	"b24sync_readyz_up":  true,

	// Bitrix REST metrics.
	"b24sync_bitrix_calls_total":           true,
	"b24sync_bitrix_call_duration_seconds": true,
	"b24sync_bitrix_retries_total":         true,
	"b24sync_bitrix_errors_total":          true,

	// Deal synchronization metrics.
	"b24sync_sync_runs_total":       true,
	"b24sync_sync_duration_seconds": true,
	"b24sync_deal_updates_total":    true,

	// Month-end job metrics.
	"b24sync_roll_runs_total":             true,
	"b24sync_roll_elements_updated_total": true,
	"b24sync_roll_elements_failed_total":  true,

	// Notification metrics.
	"b24sync_notification_duration_seconds": true,

	// Recording rules.
	"b24sync:http_requests:rate5m": true,
	"b24sync:http_errors:rate5m":   true,
	"b24sync:bitrix_calls:rate5m":  true,
	"b24sync:bitrix_errors:rate5m": true,
	"b24sync:sync_runs:rate5m":     true,
	"b24sync:deal_updates:rate5m":  true,

	// Standard Prometheus metrics referenced in dashboards.
	"up":                         true,
	"process_start_time_seconds": true,
}

// Config controls which artifacts the generator produces and where they go.
type Config struct {
	OutputDir        string
	DashboardEnabled bool
	RulesEnabled     bool
}

// DefaultConfig returns a Config that generates all artifacts into ../../deploy
// (relative to tools/dashgen/).
func DefaultConfig() Config {
	return Config{
		OutputDir:        "../../deploy",
		DashboardEnabled: true,
		RulesEnabled:     true,
	}
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output directory must be set")
	}
	if !c.DashboardEnabled && !c.RulesEnabled {
		return errors.New("at least one of dashboard or rules must be enabled")
	}
	return nil
}
