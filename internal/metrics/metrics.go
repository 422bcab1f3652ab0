// Package metrics exposes prometheus counters for submission and voting events.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "metamorph"

// Metrics groups the collectors. A nil *Metrics is a valid no-op recorder.
type Metrics struct {
	SubmissionsCreated prometheus.Counter
	BallotsCast        prometheus.Counter
	BallotsRetracted   prometheus.Counter
	StageTransitions   *prometheus.CounterVec
	MetadataFetches    *prometheus.CounterVec
	ContentCache       *prometheus.CounterVec
}

// Result label values
const (
	ResultOK    = "ok"
	ResultError = "error"
	ResultHit   = "hit"
	ResultMiss  = "miss"
)

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SubmissionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_created_total",
			Help:      "Number of submissions created.",
		}),
		BallotsCast: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ballots_cast_total",
			Help:      "Number of yes ballots cast.",
		}),
		BallotsRetracted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ballots_retracted_total",
			Help:      "Number of yes ballots retracted.",
		}),
		StageTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_transitions_total",
			Help:      "Submission stage changes caused by votes.",
		}, []string{"from", "to"}),
		MetadataFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "metadata_fetches_total",
			Help:      "External page metadata fetches by result.",
		}, []string{"result"}),
		ContentCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "content_cache_lookups_total",
			Help:      "Content cache lookups by result.",
		}, []string{"result"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.SubmissionsCreated,
			m.BallotsCast,
			m.BallotsRetracted,
			m.StageTransitions,
			m.MetadataFetches,
			m.ContentCache,
		)
	}
	return m
}

func (m *Metrics) SubmissionCreated() {
	if m == nil {
		return
	}
	m.SubmissionsCreated.Inc()
}

// Ballot records a cast (retracted=false) or a retraction
func (m *Metrics) Ballot(retracted bool) {
	if m == nil {
		return
	}
	if retracted {
		m.BallotsRetracted.Inc()
		return
	}
	m.BallotsCast.Inc()
}

// StageTransition records a stage change; equal stages are ignored
func (m *Metrics) StageTransition(from, to string) {
	if m == nil || from == to {
		return
	}
	m.StageTransitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) MetadataFetch(result string) {
	if m == nil {
		return
	}
	m.MetadataFetches.WithLabelValues(result).Inc()
}

func (m *Metrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.ContentCache.WithLabelValues(result).Inc()
}
