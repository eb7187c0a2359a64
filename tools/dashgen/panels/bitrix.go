package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// BitrixCallRate returns a timeseries panel showing REST calls per second
// by method.
func BitrixCallRate() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Bitrix Call Rate").
		Description("Bitrix REST calls per second by method").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(
			`sum(rate(b24sync_bitrix_calls_total{job="b24-dealsync"}[5m])) by (method)`,
			"{{method}}", "A",
		)).
		Unit("reqps").
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// BitrixCallLatency returns a timeseries panel showing p50 and p95 REST call
// latencies, retries included.
func BitrixCallLatency() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Bitrix Call Latency").
		Description("Bitrix REST call duration percentiles, retries included").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(
			`histogram_quantile(0.50, sum(rate(b24sync_bitrix_call_duration_seconds_bucket{job="b24-dealsync"}[5m])) by (le))`,
			"p50",
			"A",
		)).
		WithTarget(PromQuery(
			`histogram_quantile(0.95, sum(rate(b24sync_bitrix_call_duration_seconds_bucket{job="b24-dealsync"}[5m])) by (le))`,
			"p95",
			"B",
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

// BitrixRetryRate returns a timeseries panel showing retried REST attempts
// per second.
func BitrixRetryRate() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Retry Rate").
		Description("Retried Bitrix REST attempts per second").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(
			`rate(b24sync_bitrix_retries_total[5m])`,
			"retries/s", "A",
		)).
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenYellowRed(0.1, 1)).
		ColorScheme(ColorSchemeThresholds()).
		DrawStyle(common.GraphDrawStyleLine)
}

// BitrixErrorsByKind returns a timeseries panel showing failed REST calls
// per second by error kind.
func BitrixErrorsByKind() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Bitrix Errors").
		Description("Failed Bitrix REST calls per second by error kind").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(
			`sum(rate(b24sync_bitrix_errors_total{job="b24-dealsync"}[5m])) by (kind)`,
			"{{kind}}", "A",
		)).
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}
