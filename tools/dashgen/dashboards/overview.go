// Package dashboards assembles Grafana dashboard definitions from panel builders.
package dashboards

import (
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"

	"github.com/pkravchenko/b24-dealsync/tools/dashgen/panels"
)

// BuildOverview constructs the b24sync Overview dashboard with all metric rows.
func BuildOverview() *dashboard.DashboardBuilder {
	b := dashboard.NewDashboardBuilder("b24sync Overview").
		Uid("b24sync-overview").
		Tags([]string{"b24sync", "b24-dealsync"}).
		Refresh("30s").
		Time("now-6h", "now").
		Timezone("browser").
		Editable().
		Tooltip(dashboard.DashboardCursorSyncCrosshair).
		WithVariable(datasourceVar())

	// Row 1: Overview.
	b.WithRow(dashboard.NewRowBuilder("Overview").
		WithPanel(panels.HealthzStat()).
		WithPanel(panels.ReadyzStat()).
		WithPanel(panels.UptimeStat()).
		WithPanel(panels.DealUpdatesStat()))

	// Row 2: HTTP.
	b.WithRow(dashboard.NewRowBuilder("HTTP").
		WithPanel(panels.RequestRate()).
		WithPanel(panels.LatencyPercentiles()).
		WithPanel(panels.ErrorRate()))

	// Row 3: Bitrix REST.
	b.WithRow(dashboard.NewRowBuilder("Bitrix REST").
		WithPanel(panels.BitrixCallRate()).
		WithPanel(panels.BitrixCallLatency()).
		WithPanel(panels.BitrixRetryRate()).
		WithPanel(panels.BitrixErrorsByKind()))

	// Row 4: Deal Sync.
	b.WithRow(dashboard.NewRowBuilder("Deal Sync").
		WithPanel(panels.SyncRate()).
		WithPanel(panels.SyncLatency()).
		WithPanel(panels.DealUpdateRate()))

	// Row 5: Month-End.
	b.WithRow(dashboard.NewRowBuilder("Month-End").
		WithPanel(panels.RollOutcomes()).
		WithPanel(panels.NotificationLatency()))

	return b
}

func datasourceVar() *dashboard.DatasourceVariableBuilder {
	return dashboard.NewDatasourceVariableBuilder("datasource").
		Label("Datasource").
		Type("prometheus")
}
