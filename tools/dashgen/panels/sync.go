package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// SyncRate returns a timeseries panel showing deal synchronization runs per
// second by outcome status.
func SyncRate() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Sync Runs").
		Description("Deal synchronization runs per second by outcome").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(
			`sum(rate(b24sync_sync_runs_total{job="b24-dealsync"}[5m])) by (status)`,
			"{{status}}", "A",
		)).
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// SyncLatency returns a timeseries panel showing p50, p95, and p99 deal
// synchronization durations.
func SyncLatency() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Sync Duration").
		Description("Deal synchronization duration percentiles").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(
			`histogram_quantile(0.50, sum(rate(b24sync_sync_duration_seconds_bucket{job="b24-dealsync"}[5m])) by (le))`,
			"p50",
			"A",
		)).
		WithTarget(PromQuery(
			`histogram_quantile(0.95, sum(rate(b24sync_sync_duration_seconds_bucket{job="b24-dealsync"}[5m])) by (le))`,
			"p95",
			"B",
		)).
		WithTarget(PromQuery(
			`histogram_quantile(0.99, sum(rate(b24sync_sync_duration_seconds_bucket{job="b24-dealsync"}[5m])) by (le))`,
			"p99",
			"C",
		)).
		Unit("s").
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// DealUpdateRate returns a timeseries panel showing deal field writes per
// second.
func DealUpdateRate() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Deal Updates").
		Description("Deal field writes per second").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(
			`b24sync:deal_updates:rate5m`,
			"updates/s", "A",
		)).
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}
