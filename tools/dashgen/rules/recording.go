package rules

// RecordingRules returns a PrometheusRule CR containing pre-computed rate
// expressions used by dashboards and alert rules.
func RecordingRules() PrometheusRule {
	return PrometheusRule{
		APIVersion: "monitoring.coreos.com/v1",
		Kind:       "PrometheusRule",
		Metadata: PrometheusRuleMetadata{
			Name: "b24sync-recording-rules",
			Labels: map[string]string{
				"prometheus": "system-rules-prometheus",
			},
		},
		Spec: PrometheusRuleSpec{
			Groups: []RuleGroup{
				{
					Name: "b24sync-recording",
					Rules: []Rule{
						{
							Record: "b24sync:http_requests:rate5m",
							Expr:   `sum(rate(b24sync_http_requests_total[5m]))`,
						},
						{
							Record: "b24sync:http_errors:rate5m",
							Expr:   `sum(rate(b24sync_http_requests_total{status=~"5.."}[5m]))`,
						},
						{
							Record: "b24sync:bitrix_calls:rate5m",
							Expr:   `sum(rate(b24sync_bitrix_calls_total[5m]))`,
						},
						{
							Record: "b24sync:bitrix_errors:rate5m",
							Expr:   `sum(rate(b24sync_bitrix_errors_total[5m]))`,
						},
						{
							Record: "b24sync:sync_runs:rate5m",
							Expr:   `sum(rate(b24sync_sync_runs_total[5m]))`,
						},
						{
							Record: "b24sync:deal_updates:rate5m",
							Expr:   `rate(b24sync_deal_updates_total[5m])`,
						},
					},
				},
			},
		},
	}
}
