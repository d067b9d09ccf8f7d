// Package metrics exposes Prometheus collectors for widget activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Submission outcomes.
const (
	OutcomePosted   = "posted"
	OutcomeCreated  = "created"
	OutcomeDropped  = "dropped"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Recorder holds the service collectors.
type Recorder struct {
	submissions      *prometheus.CounterVec
	reactions        *prometheus.CounterVec
	summaryFallbacks *prometheus.CounterVec
	sessions         prometheus.Gauge
	guestThrottled   prometheus.Counter
}

// New creates collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "guescus",
			Name:      "submissions_total",
			Help:      "Comment submissions by outcome and author kind.",
		}, []string{"outcome", "author"}),
		reactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "guescus",
			Name:      "reaction_toggles_total",
			Help:      "Reaction toggles by kind and direction.",
		}, []string{"kind", "action"}),
		summaryFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "guescus",
			Name:      "summary_fallbacks_total",
			Help:      "Summary or suggestion requests answered with fallback text.",
		}, []string{"op"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "guescus",
			Name:      "active_sessions",
			Help:      "Signed-in sessions currently held in memory.",
		}),
		guestThrottled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "guescus",
			Name:      "guest_throttled_total",
			Help:      "Guest submissions refused by the per-client rate limiter.",
		}),
	}

	for _, c := range []prometheus.Collector{r.submissions, r.reactions, r.summaryFallbacks, r.sessions, r.guestThrottled} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Submission counts one submission attempt.
func (r *Recorder) Submission(outcome string, guest bool) {
	if r == nil {
		return
	}
	author := "user"
	if guest {
		author = "guest"
	}
	r.submissions.WithLabelValues(outcome, author).Inc()
}

// Reaction counts one toggle.
func (r *Recorder) Reaction(kind string, removed bool) {
	if r == nil {
		return
	}
	action := "add"
	if removed {
		action = "remove"
	}
	r.reactions.WithLabelValues(kind, action).Inc()
}

// SummaryFallback counts one fallback answer.
func (r *Recorder) SummaryFallback(op string) {
	if r == nil {
		return
	}
	r.summaryFallbacks.WithLabelValues(op).Inc()
}

// Sessions sets the active session gauge.
func (r *Recorder) Sessions(n int) {
	if r == nil {
		return
	}
	r.sessions.Set(float64(n))
}

// GuestThrottled counts one limiter refusal.
func (r *Recorder) GuestThrottled() {
	if r == nil {
		return
	}
	r.guestThrottled.Inc()
}
