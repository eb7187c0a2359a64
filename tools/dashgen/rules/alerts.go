package rules

// AlertRules returns a PrometheusRule CR containing alert rules for
// b24-dealsync operational monitoring.
func AlertRules() PrometheusRule {
	return PrometheusRule{
		APIVersion: "monitoring.coreos.com/v1",
		Kind:       "PrometheusRule",
		Metadata: PrometheusRuleMetadata{
			Name: "b24sync-alerts",
			Labels: map[string]string{
				"prometheus": "system-rules-prometheus",
			},
		},
		Spec: PrometheusRuleSpec{
			Groups: []RuleGroup{
				{
					Name: "b24sync-alerts",
					Rules: []Rule{
						{
							Alert: "B24SyncDown",
							Expr:  `absent(up{job="b24-dealsync"})`,
							For:   "2m",
							Labels: map[string]string{
								"severity": "critical",
							},
							Annotations: map[string]string{
								"summary":     "b24-dealsync is down",
								"description": "The b24-dealsync job has been absent for more than 2 minutes.",
							},
						},
						{
							Alert: "B24SyncReadinessDown",
							Expr:  `b24sync_readyz_up == 0`,
							For:   "2m",
							Labels: map[string]string{
								"severity": "critical",
							},
							Annotations: map[string]string{
								"summary":     "b24-dealsync readiness check is failing",
								"description": "The readiness probe has been reporting not-ready for more than 2 minutes.",
							},
						},
						{
							Alert: "B24SyncHighErrorRate",
							Expr:  `b24sync:http_errors:rate5m / b24sync:http_requests:rate5m > 0.05`,
							For:   "5m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "High HTTP error rate on b24-dealsync",
								"description": "More than 5% of HTTP requests are returning 5xx errors over the last 5 minutes.",
							},
						},
						{
							Alert: "B24SyncBitrixErrors",
							Expr:  `b24sync:bitrix_errors:rate5m > 0.1`,
							For:   "5m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "Bitrix REST calls are failing",
								"description": "Bitrix REST errors are occurring at more than 0.1/s for the last 5 minutes.",
							},
						},
						{
							Alert: "B24SyncBitrixTimeouts",
							Expr:  `rate(b24sync_bitrix_errors_total{kind="timeout"}[5m]) > 0`,
							For:   "5m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "Bitrix REST calls are timing out",
								"description": "Bitrix REST timeouts have been occurring for more than 5 minutes; the portal may be slow or unreachable.",
							},
						},
						{
							Alert: "B24SyncRollFailures",
							Expr:  `increase(b24sync_roll_elements_failed_total[1h]) > 0`,
							For:   "0m",
							Labels: map[string]string{
								"severity": "critical",
							},
							Annotations: map[string]string{
								"summary":     "Month-end roll failed to update elements",
								"description": "The month-end job could not update one or more list elements in the last hour.",
							},
						},
					},
				},
			},
		},
	}
}
