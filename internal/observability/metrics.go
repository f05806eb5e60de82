package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors shared by presence, access and the HTTP layer.
//
// Usage:
//
//	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
//	metrics.PresenceWrites.WithLabelValues("online", "success").Inc()
type Metrics struct {
	// PresenceWrites counts presence write attempts.
	// Labels: status (online|offline), result (success|error)
	PresenceWrites *prometheus.CounterVec

	// ActiveTrackers is the number of live presence trackers.
	ActiveTrackers prometheus.Gauge

	// AccessDecisions counts gate outcomes.
	// Labels: rule (self|public|contacts|private|unknown), result (allow|deny)
	AccessDecisions *prometheus.CounterVec

	// ProfileSaves counts profile save attempts.
	// Labels: result (success|error)
	ProfileSaves *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. A nil
// registerer leaves them unregistered, which is what tests want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PresenceWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatline",
			Name:      "presence_writes_total",
			Help:      "Presence write attempts by status and result.",
		}, []string{"status", "result"}),
		ActiveTrackers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "chatline",
			Name:      "presence_active_trackers",
			Help:      "Presence trackers currently bound to an identity.",
		}),
		AccessDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatline",
			Name:      "access_decisions_total",
			Help:      "Profile access decisions by matched rule and result.",
		}, []string{"rule", "result"}),
		ProfileSaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatline",
			Name:      "profile_saves_total",
			Help:      "Profile save attempts by result.",
		}, []string{"result"}),
	}
	if reg != nil {
		reg.MustRegister(m.PresenceWrites, m.ActiveTrackers, m.AccessDecisions, m.ProfileSaves)
	}
	return m
}
