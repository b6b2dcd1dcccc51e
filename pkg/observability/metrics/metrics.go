package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks match runs and the notification lifecycle.
type Metrics struct {
	MatchRuns            *prometheus.CounterVec
	MatchDuration        prometheus.Histogram
	CandidatesPerRun     prometheus.Histogram
	NotificationsCreated prometheus.Counter
	NotificationsAccept  prometheus.Counter
	DonorsRegistered     prometheus.Counter
}

// New registers all metrics with reg. Pass prometheus.DefaultRegisterer in
// services and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		MatchRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lifelink_match_runs_total",
			Help: "Match engine runs by request kind and outcome (matched, empty, invalid)",
		}, []string{"kind", "outcome"}),
		MatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "lifelink_match_duration_seconds",
			Help:    "Duration of a donor scan for one request",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		CandidatesPerRun: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "lifelink_match_candidates",
			Help:    "Number of candidates returned per match run",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}),
		NotificationsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "lifelink_notifications_created_total",
			Help: "Pending notifications recorded for matched donors",
		}),
		NotificationsAccept: factory.NewCounter(prometheus.CounterOpts{
			Name: "lifelink_notifications_accepted_total",
			Help: "Notifications accepted by donors",
		}),
		DonorsRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "lifelink_donors_registered_total",
			Help: "Donors registered through the API",
		}),
	}
}

// ObserveMatch records one match run. Call with time.Now() taken before the
// scan started.
func (m *Metrics) ObserveMatch(kind, outcome string, candidates int, start time.Time) {
	if m == nil {
		return
	}
	m.MatchRuns.WithLabelValues(kind, outcome).Inc()
	m.MatchDuration.Observe(time.Since(start).Seconds())
	m.CandidatesPerRun.Observe(float64(candidates))
}

func (m *Metrics) AddNotifications(n int) {
	if m == nil {
		return
	}
	m.NotificationsCreated.Add(float64(n))
}

func (m *Metrics) IncAccepted() {
	if m == nil {
		return
	}
	m.NotificationsAccept.Inc()
}

func (m *Metrics) IncDonorsRegistered() {
	if m == nil {
		return
	}
	m.DonorsRegistered.Inc()
}
