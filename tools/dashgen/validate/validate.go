// Package validate checks generated dashboards against the set of metrics
// the service actually exports, catching typos and stale references before
// they reach Grafana.
package validate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/grafana/grafana-foundation-sdk/go/dashboard"
	"github.com/prometheus/prometheus/promql/parser"
)

// Result collects validation findings.
type Result struct {
	Errors   []string
	Warnings []string
}

// Ok reports whether validation found no errors.
func (r Result) Ok() bool {
	return len(r.Errors) == 0
}

// histogramSuffixes are series-name suffixes Prometheus appends to
// histogram and summary families.
var histogramSuffixes = []string{"_bucket", "_sum", "_count"}

// Dashboard parses every PromQL expression in the dashboard and verifies
// each referenced metric name against known.
func Dashboard(dash dashboard.Dashboard, known map[string]bool) Result {
	var result Result

	exprs, err := collectExprs(dash)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	if len(exprs) == 0 {
		result.Warnings = append(result.Warnings, "dashboard contains no queries")
		return result
	}

	for _, expr := range exprs {
		node, err := parser.ParseExpr(expr)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("invalid PromQL %q: %v", expr, err))
			continue
		}

		for _, name := range metricNames(node) {
			if !known[baseName(name)] {
				result.Errors = append(result.Errors,
					fmt.Sprintf("unknown metric %q in query %q", name, expr))
			}
		}
	}

	return result
}

// collectExprs walks the marshaled dashboard and gathers every "expr" value.
// Working on the JSON form keeps this independent of the SDK's panel union
// types.
func collectExprs(dash dashboard.Dashboard) ([]string, error) {
	data, err := json.Marshal(dash)
	if err != nil {
		return nil, fmt.Errorf("marshaling dashboard: %w", err)
	}

	var tree any
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("re-parsing dashboard: %w", err)
	}

	var exprs []string
	walk(tree, &exprs)
	return exprs, nil
}

func walk(node any, exprs *[]string) {
	switch v := node.(type) {
	case map[string]any:
		for key, child := range v {
			if key == "expr" {
				if expr, ok := child.(string); ok && expr != "" {
					*exprs = append(*exprs, expr)
				}
				continue
			}
			walk(child, exprs)
		}
	case []any:
		for _, child := range v {
			walk(child, exprs)
		}
	}
}

func metricNames(node parser.Expr) []string {
	var names []string
	parser.Inspect(node, func(n parser.Node, _ []parser.Node) error {
		if vs, ok := n.(*parser.VectorSelector); ok && vs.Name != "" {
			names = append(names, vs.Name)
		}
		return nil
	})
	return names
}

func baseName(name string) string {
	for _, suffix := range histogramSuffixes {
		if stripped, ok := strings.CutSuffix(name, suffix); ok {
			return stripped
		}
	}
	return name
}
