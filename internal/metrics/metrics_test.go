package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.SubmissionCreated()
	m.Ballot(false)
	m.Ballot(false)
	m.Ballot(true)
	m.StageTransition("egg", "caterpillar")
	m.StageTransition("egg", "egg")
	m.MetadataFetch(ResultError)
	m.CacheLookup(ResultHit)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SubmissionsCreated))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.BallotsCast))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BallotsRetracted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StageTransitions.WithLabelValues("egg", "caterpillar")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.StageTransitions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MetadataFetches.WithLabelValues(ResultError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ContentCache.WithLabelValues(ResultHit)))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.SubmissionCreated()
		m.Ballot(true)
		m.StageTransition("a", "b")
		m.MetadataFetch(ResultOK)
		m.CacheLookup(ResultMiss)
	})
}
