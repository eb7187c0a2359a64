package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
)

// HealthzStat returns a stat panel showing the health check status.
func HealthzStat() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Healthz").
		Description("Health check status (1 = ok, 0 = failing)").
		Datasource(DSRef()).
		Height(StatHeight).
		Span(StatWidth).
		WithTarget(PromQuery(`b24sync_healthz_up`, "", "A")).
		Thresholds(ThresholdsRedGreen(1)).
		ColorScheme(ColorSchemeThresholds()).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeNone).
		TextMode(common.BigValueTextModeValue)
}

// ReadyzStat returns a stat panel showing the readiness check status.
func ReadyzStat() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Readyz").
		Description("Readiness check status (1 = ready, 0 = not ready)").
		Datasource(DSRef()).
		Height(StatHeight).
		Span(StatWidth).
		WithTarget(PromQuery(`b24sync_readyz_up`, "", "A")).
		Thresholds(ThresholdsRedGreen(1)).
		ColorScheme(ColorSchemeThresholds()).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeNone).
		TextMode(common.BigValueTextModeValue)
}

// UptimeStat returns a stat panel showing process uptime.
func UptimeStat() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Uptime").
		Description("Time since process start").
		Datasource(DSRef()).
		Height(StatHeight).
		Span(StatWidth).
		WithTarget(PromQuery(
			`time() - process_start_time_seconds{job="b24-dealsync"}`,
			"", "A",
		)).
		Unit("s").
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemeThresholds()).
		GraphMode(common.BigValueGraphModeNone)
}

// DealUpdatesStat returns a stat panel showing deal writes over the last day.
func DealUpdatesStat() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Deal Updates (24h)").
		Description("Deal field writes performed in the last 24 hours").
		Datasource(DSRef()).
		Height(StatHeight).
		Span(StatWidth).
		WithTarget(PromQuery(
			`increase(b24sync_deal_updates_total[24h])`,
			"", "A",
		)).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemeThresholds()).
		GraphMode(common.BigValueGraphModeNone)
}
