package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricsRegistered(t *testing.T) {
	t.Parallel()

	// Verify all metrics are non-nil (registered via promauto on package init).
	assert.NotNil(t, HTTPRequestDuration)
	assert.NotNil(t, HTTPRequestsTotal)
	assert.NotNil(t, HealthzUp)
	assert.NotNil(t, BitrixCallsTotal)
	assert.NotNil(t, BitrixCallDuration)
	assert.NotNil(t, BitrixRetriesTotal)
	assert.NotNil(t, BitrixErrorsTotal)
	assert.NotNil(t, SyncRunsTotal)
	assert.NotNil(t, SyncDuration)
	assert.NotNil(t, DealUpdatesTotal)
	assert.NotNil(t, RollRunsTotal)
	assert.NotNil(t, RollElementsUpdated)
	assert.NotNil(t, RollElementsFailed)
}
