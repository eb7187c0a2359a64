package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// RollOutcomes returns a timeseries panel showing month-end element updates
// and failures over the trailing month.
func RollOutcomes() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Month-End Outcomes").
		Description("List elements updated and failed by the month-end job, trailing 31 days").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(
			`increase(b24sync_roll_elements_updated_total[31d])`,
			"updated", "A",
		)).
		WithTarget(PromQuery(
			`increase(b24sync_roll_elements_failed_total[31d])`,
			"failed", "B",
		)).
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("last")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// NotificationLatency returns a timeseries panel showing p95 roll report
// delivery latency.
func NotificationLatency() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Notification Latency").
		Description("Roll report delivery duration, p95").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(
			`histogram_quantile(0.95, sum(rate(b24sync_notification_duration_seconds_bucket[5m])) by (le))`,
			"p95", "A",
		)).
		Unit("s").
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}
