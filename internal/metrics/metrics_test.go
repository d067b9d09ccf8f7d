package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderCounts(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	r, err := New(reg)
	if err != nil {
		t.Fatalf("New error = %v, want nil", err)
	}

	r.Submission(OutcomePosted, true)
	r.Submission(OutcomePosted, true)
	r.Submission(OutcomeRejected, false)
	r.Reaction("HEART", false)
	r.Reaction("HEART", true)
	r.SummaryFallback("summarize")
	r.Sessions(3)
	r.GuestThrottled()

	if got := testutil.ToFloat64(r.submissions.WithLabelValues(OutcomePosted, "guest")); got != 2 {
		t.Fatalf("posted guest submissions = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.submissions.WithLabelValues(OutcomeRejected, "user")); got != 1 {
		t.Fatalf("rejected user submissions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.reactions.WithLabelValues("HEART", "remove")); got != 1 {
		t.Fatalf("heart removals = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.summaryFallbacks.WithLabelValues("summarize")); got != 1 {
		t.Fatalf("summary fallbacks = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.sessions); got != 3 {
		t.Fatalf("sessions = %v, want 3", got)
	}
	if got := testutil.ToFloat64(r.guestThrottled); got != 1 {
		t.Fatalf("guest throttled = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(r.submissions); n != 2 {
		t.Fatalf("submission series = %d, want 2", n)
	}
}

func TestRecorderDuplicateRegistration(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	if _, err := New(reg); err != nil {
		t.Fatalf("first New error = %v", err)
	}
	if _, err := New(reg); err == nil {
		t.Fatal("second New error = nil, want already registered error")
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	t.Parallel()

	var r *Recorder
	r.Submission(OutcomeFailed, false)
	r.Reaction("EYES", false)
	r.SummaryFallback("suggest")
	r.Sessions(1)
	r.GuestThrottled()
}
