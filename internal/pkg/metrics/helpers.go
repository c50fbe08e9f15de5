package metrics

import (
	"strconv"
	"time"

	"github.com/ferndale-labs/gatehouse/internal/domain/entities"
)

// Sign-in outcomes
const (
	OutcomeCreated   = "created"
	OutcomeReturning = "returning"
	OutcomeDisabled  = "disabled"
	OutcomeRejected  = "rejected"
	OutcomeError     = "error"
)

// RecordHTTPRequest records one served request
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(float64(duration.Milliseconds()))
}

// RecordSignIn records one federated sign-in attempt
func RecordSignIn(provider, outcome string) {
	SignIns.WithLabelValues(provider, outcome).Inc()
}

// RecordSyncReport feeds one membership sync report into the counters
func RecordSyncReport(report *entities.SyncReport) {
	if report == nil {
		return
	}
	for _, item := range report.Outcomes {
		outcome := "applied"
		switch {
		case item.Err != nil:
			outcome = "failed"
		case item.Skipped:
			outcome = "skipped"
		}
		SyncOutcomes.WithLabelValues(string(item.Action), outcome).Inc()
	}
}
