package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitIsIdempotent(t *testing.T) {
	reset()
	defer reset()

	m1 := Init()
	m2 := Init()
	assert.Same(t, m1, m2)
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordReply(100, 200, 0.001)
		m.RecordReconnect()
		m.SetInFlight(5)
		m.SetActiveJobs(3)
	})
}

func TestRecordReplyUpdatesCounters(t *testing.T) {
	reset()
	defer reset()

	m := Init()
	m.RecordReply(100, 200, 0.001)

	metricFamilies, err := m.Registry.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, metricFamilies)
}

func TestGetReturnsNilBeforeInit(t *testing.T) {
	reset()
	assert.Nil(t, Get())
}
